package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
)

// DepartmentController handles department-related operations
type DepartmentController struct {
	departmentService services.DepartmentService
	paging            Paging
}

// NewDepartmentController creates a new DepartmentController
func NewDepartmentController(departmentService services.DepartmentService, paging Paging) *DepartmentController {
	return &DepartmentController{
		departmentService: departmentService,
		paging:            paging,
	}
}

// GetDepartments lists departments
// @Summary List departments
// @Description Retrieves a paginated list of departments, optionally filtered by a search term matched against name and code
// @Tags departments
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Departments retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /departments [get]
func (c *DepartmentController) GetDepartments(ctx *gin.Context) {
	filter := repositories.DepartmentFilter{ListParams: c.paging.listParams(ctx)}

	result, err := c.departmentService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// CreateDepartment handles department creation
// @Summary Create a new department
// @Tags departments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DepartmentRequest true "Department information"
// @Success 201 {object} dto.APIResponse{data=dto.DepartmentResponse} "Department created successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /departments [post]
func (c *DepartmentController) CreateDepartment(ctx *gin.Context) {
	var req dto.DepartmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	department, err := c.departmentService.Create(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, department)
}

// GetDepartmentByID retrieves a department by ID
// @Summary Get department by ID
// @Tags departments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Success 200 {object} dto.APIResponse{data=dto.DepartmentResponse} "Department retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid department ID"
// @Failure 404 {object} dto.APIResponse "Department not found"
// @Router /departments/{id} [get]
func (c *DepartmentController) GetDepartmentByID(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}

	department, err := c.departmentService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, department)
}

// UpdateDepartment updates a department
// @Summary Update department
// @Tags departments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Param request body dto.DepartmentRequest true "Department information"
// @Success 200 {object} dto.APIResponse{data=dto.DepartmentResponse} "Department updated successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 404 {object} dto.APIResponse "Department not found"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /departments/{id} [put]
func (c *DepartmentController) UpdateDepartment(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	department, err := c.departmentService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, department)
}

// DeleteDepartment deletes a department
// @Summary Delete department
// @Description Deletes a department together with its subjects, groups and students
// @Tags departments
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Success 204 "Department deleted successfully"
// @Failure 400 {object} dto.APIResponse "Invalid department ID"
// @Failure 404 {object} dto.APIResponse "Department not found"
// @Router /departments/{id} [delete]
func (c *DepartmentController) DeleteDepartment(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.departmentService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	noContent(ctx)
}
