package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
)

// AuthController handles authentication endpoints
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login authenticates a staff user
// @Summary Log in
// @Description Exchanges email and password for a bearer access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, resp)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	rc, ok := middleware.RequestContext(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenNotFound)
		return
	}

	user, err := c.authService.Me(ctx.Request.Context(), rc.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}
