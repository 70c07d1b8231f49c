package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/auth"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation. On success the request
// context carries an auth.RequestContext for the services.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			code := dto.ErrorCodeInvalidToken
			if errors.Is(err, apperrors.ErrTokenNotFound) {
				code = dto.ErrorCodeTokenNotFound
			}
			abortUnauthorized(c, code, err.Error())
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			code := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				code = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			} else if errors.Is(err, apperrors.ErrInvalidFormat) {
				details = "Invalid token format"
			}
			abortUnauthorized(c, code, details)
			return
		}

		rc := appauth.RequestContext{UserID: claims.UserID, Role: claims.Role}
		c.Request = c.Request.WithContext(appauth.WithRequestContext(c.Request.Context(), rc))
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleRequired middleware to check if user has one of the given roles
func (m *AuthMiddleware) RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := appauth.FromContext(c.Request.Context())
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		for _, role := range roles {
			if rc.Role == role {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// RequestContext returns the authenticated caller of c.
func RequestContext(c *gin.Context) (appauth.RequestContext, bool) {
	return appauth.FromContext(c.Request.Context())
}
