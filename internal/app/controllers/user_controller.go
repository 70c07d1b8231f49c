package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// UserController handles staff user management. Every route is admin only.
type UserController struct {
	userService services.UserService
	paging      Paging
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, paging Paging) *UserController {
	return &UserController{userService: userService, paging: paging}
}

// GetUsers lists staff users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term matched against name and email"
// @Param role query string false "Filter by role" Enums(teacher, admin)
// @Param department_id query int false "Filter by department"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Users retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Forbidden - admin role required"
// @Failure 422 {object} dto.APIResponse "Invalid filter"
// @Router /users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	filter := repositories.UserFilter{
		ListParams:   c.paging.listParams(ctx),
		DepartmentID: q.id("department_id"),
	}
	if raw := strings.TrimSpace(ctx.Query("role")); raw != "" {
		role := models.Role(raw)
		if role.Valid() {
			filter.Role = &role
		} else {
			q.verr.Add("role", validation.InvalidSelection("role"))
		}
	}
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.userService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// GetFormOptions returns departments, subjects and roles for the user form
// @Summary User form options
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.Lookups}
// @Router /users/form-options [get]
func (c *UserController) GetFormOptions(ctx *gin.Context) {
	lookups, err := c.userService.FormOptions(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lookups)
}

// GetUserByID retrieves a user with their department and assigned subjects
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid user ID"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	user, err := c.userService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}

// CreateUser creates a teacher or admin account
// @Summary Create user
// @Description Teachers must be assigned at least one subject; only the first three distinct subjects are kept
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UserRequest true "User information"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "User created successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.UserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Create(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, user)
}

// UpdateUser updates a user. The password only changes when one is sent.
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UserRequest true "User information"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User updated successfully"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}

// DeleteUser deletes a user
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "User deleted successfully"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.userService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	noContent(ctx)
}
