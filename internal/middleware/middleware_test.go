package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/auth"
)

type stubValidator struct {
	claims *auth.Claims
	err    error
}

func (s stubValidator) ValidateToken(string) (*auth.Claims, error) {
	return s.claims, s.err
}

type errorBody struct {
	Error struct {
		Code    dto.ErrorCode   `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func protectedRouter(validator TokenValidator, roles ...models.Role) *gin.Engine {
	m := NewAuthMiddleware(validator)
	router := gin.New()
	handlers := []gin.HandlerFunc{m.JWTAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RoleRequired(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		rc, ok := RequestContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": rc.UserID, "role": rc.Role})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	teacher := &auth.Claims{UserID: 7, Email: "t@example.com", Role: models.RoleTeacher}

	t.Run("MissingHeader_Unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		protectedRouter(stubValidator{claims: teacher}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeTokenNotFound, decodeError(t, w).Error.Code)
	})

	t.Run("ExpiredToken_Unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer old")
		w := httptest.NewRecorder()
		protectedRouter(stubValidator{err: apperrors.ErrTokenExpired}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
	})

	t.Run("ValidToken_CarriesRequestContext", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		protectedRouter(stubValidator{claims: teacher}).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"role":"teacher"}`, w.Body.String())
	})
}

func TestRoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		role   models.Role
		status int
	}{
		{"Admin_Allowed", models.RoleAdmin, http.StatusOK},
		{"Teacher_Forbidden", models.RoleTeacher, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := stubValidator{claims: &auth.Claims{UserID: 1, Role: tc.role}}
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer x")
			w := httptest.NewRecorder()
			protectedRouter(validator, models.RoleAdmin).ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, dto.ErrorCodeForbidden, decodeError(t, w).Error.Code)
			}
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"NotFound", fmt.Errorf("load: %w", apperrors.ErrStudentNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"Forbidden", apperrors.NewForbiddenError("You are not assigned to this subject."), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"Conflict", apperrors.NewConflictError("duplicate"), http.StatusConflict, dto.ErrorCodeConflict},
		{"BadRequest", apperrors.NewBadRequestError("nope"), http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"InvalidCredentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"TokenMissing", apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { HandleAPIError(c, tc.err) })
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error.Code)
		})
	}

	t.Run("Forbidden_KeepsMessage", func(t *testing.T) {
		router := gin.New()
		router.GET("/", func(c *gin.Context) {
			HandleAPIError(c, apperrors.NewForbiddenError("You are not assigned to this subject."))
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "You are not assigned to this subject.", decodeError(t, w).Error.Message)
	})

	t.Run("Validation_FieldDetails", func(t *testing.T) {
		verr := apperrors.NewValidationError().
			Add("email", "The email has already been taken.").
			Add("attendances.0.student_id", "The selected attendances.0.student_id is invalid.")
		router := gin.New()
		router.GET("/", func(c *gin.Context) { HandleAPIError(c, fmt.Errorf("create: %w", verr)) })
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, dto.ErrorCodeValidationFailed, body.Error.Code)
		var fields map[string]string
		require.NoError(t, json.Unmarshal(body.Error.Details, &fields))
		assert.Equal(t, "The email has already been taken.", fields["email"])
		assert.Contains(t, fields, "attendances.0.student_id")
	})
}

func TestIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := IDParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/items/12", http.StatusOK},
		{"/items/abc", http.StatusBadRequest},
		{"/items/0", http.StatusBadRequest},
		{"/items/-3", http.StatusBadRequest},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, tc.path)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Run("GeneratesRequestID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("EchoesIncomingRequestID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRequestContextWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := RequestContext(c)
	assert.False(t, ok)

	c.Request = c.Request.WithContext(appauth.WithRequestContext(c.Request.Context(), appauth.RequestContext{UserID: 3, Role: models.RoleAdmin}))
	rc, ok := RequestContext(c)
	require.True(t, ok)
	assert.True(t, rc.IsAdmin())
}
