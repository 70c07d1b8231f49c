package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/auth"
)

type fakeDepartmentService struct {
	services.DepartmentService
	filter  repositories.DepartmentFilter
	created dto.DepartmentRequest
	err     error
}

func (f *fakeDepartmentService) List(_ context.Context, filter repositories.DepartmentFilter) (*dto.PaginatedResponse, error) {
	f.filter = filter
	return &dto.PaginatedResponse{Items: []dto.DepartmentResponse{}}, f.err
}

func (f *fakeDepartmentService) Create(_ context.Context, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.DepartmentResponse{ID: 1, Name: req.Name, Code: req.Code}, nil
}

func (f *fakeDepartmentService) Get(_ context.Context, id int64) (*dto.DepartmentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.DepartmentResponse{ID: id}, nil
}

func (f *fakeDepartmentService) Delete(_ context.Context, _ int64) error {
	return f.err
}

type fakeStudentService struct {
	services.StudentService
	filter *repositories.StudentFilter
}

func (f *fakeStudentService) List(_ context.Context, filter repositories.StudentFilter) (*dto.PaginatedResponse, error) {
	f.filter = &filter
	return &dto.PaginatedResponse{Items: []dto.StudentResponse{}}, nil
}

type fakeAttendanceService struct {
	services.AttendanceService
	rc     appauth.RequestContext
	record dto.RecordAttendanceRequest
	params dto.AttendanceListParams
	roster dto.RosterRequest
	err    error
}

func (f *fakeAttendanceService) Record(_ context.Context, rc appauth.RequestContext, req dto.RecordAttendanceRequest) (*dto.RecordAttendanceResponse, error) {
	f.rc, f.record = rc, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RecordAttendanceResponse{Recorded: len(req.Attendances), SubjectID: req.SubjectID, Date: req.Date}, nil
}

func (f *fakeAttendanceService) List(_ context.Context, params dto.AttendanceListParams) (*dto.PaginatedResponse, error) {
	f.params = params
	return &dto.PaginatedResponse{Items: []dto.AttendanceResponse{}, Params: params}, nil
}

func (f *fakeAttendanceService) Roster(_ context.Context, req dto.RosterRequest) (*dto.RosterResponse, error) {
	f.roster = req
	return &dto.RosterResponse{Students: []dto.RosterStudentResponse{}}, nil
}

func (f *fakeAttendanceService) FormContext(_ context.Context, rc appauth.RequestContext) (*dto.AttendanceFormResponse, error) {
	f.rc = rc
	return &dto.AttendanceFormResponse{}, nil
}

type stubUsers struct {
	services.UserStore
	user *models.User
}

func (s stubUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, apperrors.ErrUserNotFound
	}
	return s.user, nil
}

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(*models.User) (string, int, error) {
	return "signed-token", 3600, nil
}

// withCaller simulates JWTAuth for handlers that need the authenticated caller.
func withCaller(rc appauth.RequestContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(appauth.WithRequestContext(c.Request.Context(), rc))
		c.Next()
	}
}

func perform(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    dto.ErrorCode   `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestDepartmentController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc *fakeDepartmentService) *gin.Engine {
		ctrl := NewDepartmentController(svc, DefaultPaging)
		router := gin.New()
		router.GET("/departments", ctrl.GetDepartments)
		router.POST("/departments", ctrl.CreateDepartment)
		router.GET("/departments/:id", ctrl.GetDepartmentByID)
		router.DELETE("/departments/:id", ctrl.DeleteDepartment)
		return router
	}

	t.Run("List_PassesSearchAndPaging", func(t *testing.T) {
		svc := &fakeDepartmentService{}
		w := perform(newRouter(svc), http.MethodGet, "/departments?search=%20comp%20&page=2&per_page=500", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "comp", svc.filter.Search)
		assert.Equal(t, 2, svc.filter.Page)
		assert.Equal(t, DefaultPaging.MaxPerPage, svc.filter.PerPage)
	})

	t.Run("List_DefaultPaging", func(t *testing.T) {
		svc := &fakeDepartmentService{}
		perform(newRouter(svc), http.MethodGet, "/departments?page=x", nil)

		assert.Equal(t, 1, svc.filter.Page)
		assert.Equal(t, DefaultPaging.DefaultPerPage, svc.filter.PerPage)
	})

	t.Run("Create_Created", func(t *testing.T) {
		svc := &fakeDepartmentService{}
		w := perform(newRouter(svc), http.MethodPost, "/departments", dto.DepartmentRequest{Name: "Physics", Code: "PHY"})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp dto.DepartmentResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Equal(t, "PHY", resp.Code)
	})

	t.Run("Create_MalformedJSON", func(t *testing.T) {
		w := perform(newRouter(&fakeDepartmentService{}), http.MethodPost, "/departments", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create_ValidationError", func(t *testing.T) {
		svc := &fakeDepartmentService{err: apperrors.FieldError("code", "The code has already been taken.")}
		w := perform(newRouter(svc), http.MethodPost, "/departments", dto.DepartmentRequest{Name: "Physics", Code: "CS"})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"code":"The code has already been taken."}`, string(decode(t, w).Error.Details))
	})

	t.Run("Get_InvalidID", func(t *testing.T) {
		w := perform(newRouter(&fakeDepartmentService{}), http.MethodGet, "/departments/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		w := perform(newRouter(&fakeDepartmentService{err: apperrors.ErrDepartmentNotFound}), http.MethodGet, "/departments/9", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete_NoContent", func(t *testing.T) {
		w := perform(newRouter(&fakeDepartmentService{}), http.MethodDelete, "/departments/3", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestStudentController_GetStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc *fakeStudentService) *gin.Engine {
		router := gin.New()
		router.GET("/students", NewStudentController(svc, DefaultPaging).GetStudents)
		return router
	}

	t.Run("Filters_Parsed", func(t *testing.T) {
		svc := &fakeStudentService{}
		w := perform(newRouter(svc), http.MethodGet, "/students?is_first_year=1&department_id=4&student_group_id=2", nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.filter)
		require.NotNil(t, svc.filter.IsFirstYear)
		assert.True(t, *svc.filter.IsFirstYear)
		assert.Equal(t, int64(4), *svc.filter.DepartmentID)
		assert.Equal(t, int64(2), *svc.filter.StudentGroupID)
	})

	t.Run("EmptyFilters_Unset", func(t *testing.T) {
		svc := &fakeStudentService{}
		perform(newRouter(svc), http.MethodGet, "/students?department_id=&is_first_year=", nil)

		require.NotNil(t, svc.filter)
		assert.Nil(t, svc.filter.DepartmentID)
		assert.Nil(t, svc.filter.IsFirstYear)
	})

	t.Run("BadFilter_ValidationError", func(t *testing.T) {
		svc := &fakeStudentService{}
		w := perform(newRouter(svc), http.MethodGet, "/students?department_id=abc&is_first_year=maybe", nil)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Nil(t, svc.filter)
		var fields map[string]string
		require.NoError(t, json.Unmarshal(decode(t, w).Error.Details, &fields))
		assert.Contains(t, fields, "department_id")
		assert.Contains(t, fields, "is_first_year")
	})
}

func TestAttendanceController(t *testing.T) {
	gin.SetMode(gin.TestMode)
	teacher := appauth.RequestContext{UserID: 5, Role: models.RoleTeacher}

	newRouter := func(svc *fakeAttendanceService, caller *appauth.RequestContext) *gin.Engine {
		ctrl := NewAttendanceController(svc)
		router := gin.New()
		if caller != nil {
			router.Use(withCaller(*caller))
		}
		router.GET("/attendances", ctrl.GetAttendances)
		router.GET("/attendances/create", ctrl.GetFormContext)
		router.GET("/attendances/students", ctrl.GetRoster)
		router.POST("/attendances", ctrl.RecordAttendance)
		return router
	}

	present := true
	batch := dto.RecordAttendanceRequest{
		SubjectID: 3,
		Date:      "2026-03-02",
		MarkedBy:  5,
		Attendances: []dto.AttendanceMarkRequest{
			{StudentID: 10, IsPresent: &present},
			{StudentID: 11, IsPresent: &present},
		},
	}

	t.Run("Record_PassesCaller", func(t *testing.T) {
		svc := &fakeAttendanceService{}
		w := perform(newRouter(svc, &teacher), http.MethodPost, "/attendances", batch)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, teacher, svc.rc)
		assert.Len(t, svc.record.Attendances, 2)
		var resp dto.RecordAttendanceResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Equal(t, 2, resp.Recorded)
	})

	t.Run("Record_WithoutCaller_Unauthorized", func(t *testing.T) {
		w := perform(newRouter(&fakeAttendanceService{}, nil), http.MethodPost, "/attendances", batch)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Record_Forbidden", func(t *testing.T) {
		svc := &fakeAttendanceService{err: apperrors.NewForbiddenError("You are not assigned to this subject.")}
		w := perform(newRouter(svc, &teacher), http.MethodPost, "/attendances", batch)

		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrorCodeForbidden, decode(t, w).Error.Code)
	})

	t.Run("List_ParsesFilters", func(t *testing.T) {
		svc := &fakeAttendanceService{}
		w := perform(newRouter(svc, &teacher), http.MethodGet,
			"/attendances?subject_id=3&is_present=false&start_date=2026-03-01&page=2", nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.params.SubjectID)
		assert.Equal(t, int64(3), *svc.params.SubjectID)
		require.NotNil(t, svc.params.IsPresent)
		assert.False(t, *svc.params.IsPresent)
		assert.Equal(t, "2026-03-01", svc.params.StartDate)
		assert.Empty(t, svc.params.EndDate)
		assert.Equal(t, 2, svc.params.Page)
		assert.Equal(t, services.AttendancePerPage, svc.params.PerPage)
	})

	t.Run("Roster_PassesQuery", func(t *testing.T) {
		svc := &fakeAttendanceService{}
		w := perform(newRouter(svc, &teacher), http.MethodGet, "/attendances/students?subject_id=3&date=2026-03-02", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, dto.RosterRequest{SubjectID: 3, Date: "2026-03-02"}, svc.roster)
	})

	t.Run("Roster_BadSubject", func(t *testing.T) {
		w := perform(newRouter(&fakeAttendanceService{}, &teacher), http.MethodGet, "/attendances/students?subject_id=x", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("FormContext_UsesCaller", func(t *testing.T) {
		svc := &fakeAttendanceService{}
		w := perform(newRouter(svc, &teacher), http.MethodGet, "/attendances/create", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(5), svc.rc.UserID)
	})
}

func TestAuthController_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	users := stubUsers{user: &models.User{ID: 1, Name: "Admin User", Email: "admin@example.com", PasswordHash: hash, Role: models.RoleAdmin}}

	router := gin.New()
	router.POST("/auth/login", NewAuthController(services.NewAuthService(users, stubTokens{})).Login)

	t.Run("ValidCredentials", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "admin@example.com", Password: "password"})

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.LoginResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Equal(t, "signed-token", resp.AccessToken)
		assert.Equal(t, services.TokenType, resp.TokenType)
		assert.Equal(t, models.RoleAdmin, resp.User.Role)
	})

	t.Run("WrongPassword_Unauthorized", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "admin@example.com", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MissingFields_ValidationError", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/auth/login", dto.LoginRequest{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
