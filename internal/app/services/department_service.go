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

// DepartmentService defines department operations
type DepartmentService interface {
	List(ctx context.Context, f repositories.DepartmentFilter) (*dto.PaginatedResponse, error)
	Get(ctx context.Context, id int64) (*dto.DepartmentResponse, error)
	Create(ctx context.Context, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	Update(ctx context.Context, id int64, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	Delete(ctx context.Context, id int64) error
}

type departmentServiceImpl struct {
	departments DepartmentStore
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departments DepartmentStore) DepartmentService {
	return &departmentServiceImpl{departments: departments}
}

func (s *departmentServiceImpl) List(ctx context.Context, f repositories.DepartmentFilter) (*dto.PaginatedResponse, error) {
	items, info, err := s.departments.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return paginated(dto.NewDepartmentResponses(items), info, nil, nil), nil
}

func (s *departmentServiceImpl) Get(ctx context.Context, id int64) (*dto.DepartmentResponse, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewDepartmentResponse(*d)
	return &resp, nil
}

// validate checks req and returns the department it describes.
func (s *departmentServiceImpl) validate(ctx context.Context, req dto.DepartmentRequest, exceptID int64) (*models.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	verr := apperrors.NewValidationError()
	if err := requireUnique(verr, "code", func() (bool, error) {
		return s.departments.CodeTaken(ctx, req.Code, exceptID)
	}); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &models.Department{
		ID:          exceptID,
		Name:        req.Name,
		Code:        req.Code,
		Description: helpers.NilIfBlank(req.Description),
	}, nil
}

func (s *departmentServiceImpl) Create(ctx context.Context, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	d, err := s.validate(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("error creating department: %w", err)
	}
	resp := dto.NewDepartmentResponse(*d)
	return &resp, nil
}

func (s *departmentServiceImpl) Update(ctx context.Context, id int64, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		return nil, err
	}
	d, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("error updating department: %w", err)
	}
	resp := dto.NewDepartmentResponse(*d)
	return &resp, nil
}

func (s *departmentServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.departments.Delete(ctx, id)
}
