package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/logger"
)

// messageOr returns the CustomError message carried by err, or fallback.
func messageOr(err error, fallback string) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	if verr, ok := apperrors.AsValidationError(err); ok {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "The given data was invalid.").
			WithDetails(verr.Fields)
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(detail))
		return
	}

	var (
		status int
		detail *dto.ErrorDetail
	)
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		status = http.StatusNotFound
		detail = dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, messageOr(err, "Resource not found"))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status = http.StatusForbidden
		detail = dto.NewErrorDetail(dto.ErrorCodeForbidden, messageOr(err, "Permission denied"))
	case errors.Is(err, apperrors.ErrBadRequest):
		status = http.StatusBadRequest
		detail = dto.NewErrorDetail(dto.ErrorCodeBadRequest, messageOr(err, "Bad request"))
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
		detail = dto.NewErrorDetail(dto.ErrorCodeConflict, messageOr(err, "Conflict"))
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		status = http.StatusUnauthorized
		detail = dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found")
	default:
		logger.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		status = http.StatusInternalServerError
		detail = dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}
