package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
)

// SubjectController handles subject endpoints
type SubjectController struct {
	subjectService services.SubjectService
	paging         Paging
}

// NewSubjectController creates a new SubjectController
func NewSubjectController(subjectService services.SubjectService, paging Paging) *SubjectController {
	return &SubjectController{subjectService: subjectService, paging: paging}
}

// GetSubjects lists subjects
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term matched against name and code"
// @Param department_id query int false "Filter by department"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Failure 422 {object} dto.APIResponse "Invalid filter"
// @Router /subjects [get]
func (c *SubjectController) GetSubjects(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	filter := repositories.SubjectFilter{
		ListParams:   c.paging.listParams(ctx),
		DepartmentID: q.id("department_id"),
	}
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.subjectService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// GetFormOptions returns the lookups for the subject form
// @Summary Subject form options
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.Lookups}
// @Router /subjects/form-options [get]
func (c *SubjectController) GetFormOptions(ctx *gin.Context) {
	lookups, err := c.subjectService.FormOptions(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lookups)
}

// GetSubjectByID shows a subject with its department, teachers and students
// @Summary Get subject by ID
// @Tags subjects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=dto.SubjectResponse}
// @Failure 404 {object} dto.APIResponse "Subject not found"
// @Router /subjects/{id} [get]
func (c *SubjectController) GetSubjectByID(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	subject, err := c.subjectService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, subject)
}

// CreateSubject creates a subject
// @Summary Create subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubjectRequest true "Subject information"
// @Success 201 {object} dto.APIResponse{data=dto.SubjectResponse}
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /subjects [post]
func (c *SubjectController) CreateSubject(ctx *gin.Context) {
	var req dto.SubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	subject, err := c.subjectService.Create(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, subject)
}

// UpdateSubject updates a subject
// @Summary Update subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Param request body dto.SubjectRequest true "Subject information"
// @Success 200 {object} dto.APIResponse{data=dto.SubjectResponse}
// @Router /subjects/{id} [put]
func (c *SubjectController) UpdateSubject(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	subject, err := c.subjectService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, subject)
}

// DeleteSubject deletes a subject
// @Summary Delete subject
// @Tags subjects
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (c *SubjectController) DeleteSubject(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.subjectService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	noContent(ctx)
}
