package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// SubjectService defines subject operations
type SubjectService interface {
	List(ctx context.Context, f repositories.SubjectFilter) (*dto.PaginatedResponse, error)
	FormOptions(ctx context.Context) (*dto.Lookups, error)
	Get(ctx context.Context, id int64) (*dto.SubjectResponse, error)
	Create(ctx context.Context, req dto.SubjectRequest) (*dto.SubjectResponse, error)
	Update(ctx context.Context, id int64, req dto.SubjectRequest) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, id int64) error
}

type subjectServiceImpl struct {
	subjects    SubjectStore
	departments DepartmentStore
}

// NewSubjectService creates a new subject service instance
func NewSubjectService(subjects SubjectStore, departments DepartmentStore) SubjectService {
	return &subjectServiceImpl{subjects: subjects, departments: departments}
}

// SubjectListParams echoes the effective subject filters.
type SubjectListParams struct {
	Search       string `json:"search,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

func (s *subjectServiceImpl) List(ctx context.Context, f repositories.SubjectFilter) (*dto.PaginatedResponse, error) {
	items, info, err := s.subjects.List(ctx, f)
	if err != nil {
		return nil, err
	}
	lookups, err := s.FormOptions(ctx)
	if err != nil {
		return nil, err
	}
	params := SubjectListParams{Search: f.Search, DepartmentID: f.DepartmentID}
	return paginated(dto.NewSubjectResponses(items), info, lookups, params), nil
}

func (s *subjectServiceImpl) FormOptions(ctx context.Context) (*dto.Lookups, error) {
	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	summaries := dto.NewDepartmentSummaries(departments)
	return &dto.Lookups{Departments: &summaries}, nil
}

func (s *subjectServiceImpl) Get(ctx context.Context, id int64) (*dto.SubjectResponse, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	teachers, err := s.subjects.Teachers(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.subjects.Students(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewSubjectDetailResponse(dto.SubjectDetail{Subject: *subject, Teachers: teachers, Students: students})
	return &resp, nil
}

func (s *subjectServiceImpl) validate(ctx context.Context, req dto.SubjectRequest, exceptID int64) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	verr := apperrors.NewValidationError()
	if err := requireUnique(verr, "code", func() (bool, error) {
		return s.subjects.CodeTaken(ctx, req.Code, exceptID)
	}); err != nil {
		return nil, err
	}
	if err := requireExisting(verr, "department_id", func() (bool, error) {
		return s.departments.Exists(ctx, req.DepartmentID)
	}); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &models.Subject{
		ID:           exceptID,
		Name:         req.Name,
		Code:         req.Code,
		DepartmentID: req.DepartmentID,
		Description:  helpers.NilIfBlank(req.Description),
	}, nil
}

func (s *subjectServiceImpl) Create(ctx context.Context, req dto.SubjectRequest) (*dto.SubjectResponse, error) {
	subject, err := s.validate(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("error creating subject: %w", err)
	}
	return s.reload(ctx, subject.ID)
}

func (s *subjectServiceImpl) Update(ctx context.Context, id int64, req dto.SubjectRequest) (*dto.SubjectResponse, error) {
	if _, err := s.subjects.GetByID(ctx, id); err != nil {
		return nil, err
	}
	subject, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, fmt.Errorf("error updating subject: %w", err)
	}
	return s.reload(ctx, id)
}

// reload returns the stored subject with its department.
func (s *subjectServiceImpl) reload(ctx context.Context, id int64) (*dto.SubjectResponse, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewSubjectResponse(*subject)
	return &resp, nil
}

func (s *subjectServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.subjects.Delete(ctx, id)
}
