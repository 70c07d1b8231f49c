package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
)

// StudentGroupController handles student group endpoints
type StudentGroupController struct {
	groupService services.StudentGroupService
	paging       Paging
}

// NewStudentGroupController creates a new StudentGroupController
func NewStudentGroupController(groupService services.StudentGroupService, paging Paging) *StudentGroupController {
	return &StudentGroupController{groupService: groupService, paging: paging}
}

// GetStudentGroups lists student groups with their student counts
// @Summary List student groups
// @Tags student-groups
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term matched against name, description, year level and section"
// @Param department_id query int false "Filter by department"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /student-groups [get]
func (c *StudentGroupController) GetStudentGroups(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	filter := repositories.StudentGroupFilter{
		ListParams:   c.paging.listParams(ctx),
		DepartmentID: q.id("department_id"),
	}
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.groupService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// GetFormOptions returns the lookups for the student group form
// @Router /student-groups/form-options [get]
func (c *StudentGroupController) GetFormOptions(ctx *gin.Context) {
	lookups, err := c.groupService.FormOptions(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lookups)
}

// GetStudentGroupByID shows a group with its department and students
// @Summary Get student group by ID
// @Tags student-groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student group ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentGroupResponse}
// @Failure 404 {object} dto.APIResponse "Student group not found"
// @Router /student-groups/{id} [get]
func (c *StudentGroupController) GetStudentGroupByID(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	group, err := c.groupService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, group)
}

// CreateStudentGroup creates a student group
// @Summary Create student group
// @Tags student-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StudentGroupRequest true "Student group information"
// @Success 201 {object} dto.APIResponse{data=dto.StudentGroupResponse}
// @Router /student-groups [post]
func (c *StudentGroupController) CreateStudentGroup(ctx *gin.Context) {
	var req dto.StudentGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	group, err := c.groupService.Create(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, group)
}

// UpdateStudentGroup updates a student group
// @Router /student-groups/{id} [put]
func (c *StudentGroupController) UpdateStudentGroup(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.StudentGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	group, err := c.groupService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, group)
}

// DeleteStudentGroup deletes a student group and its students
// @Router /student-groups/{id} [delete]
func (c *StudentGroupController) DeleteStudentGroup(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.groupService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	noContent(ctx)
}
