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

// StudentGroupService defines student group operations
type StudentGroupService interface {
	List(ctx context.Context, f repositories.StudentGroupFilter) (*dto.PaginatedResponse, error)
	FormOptions(ctx context.Context) (*dto.Lookups, error)
	Get(ctx context.Context, id int64) (*dto.StudentGroupResponse, error)
	Create(ctx context.Context, req dto.StudentGroupRequest) (*dto.StudentGroupResponse, error)
	Update(ctx context.Context, id int64, req dto.StudentGroupRequest) (*dto.StudentGroupResponse, error)
	Delete(ctx context.Context, id int64) error
}

type studentGroupServiceImpl struct {
	groups      StudentGroupStore
	departments DepartmentStore
}

// NewStudentGroupService creates a new student group service instance
func NewStudentGroupService(groups StudentGroupStore, departments DepartmentStore) StudentGroupService {
	return &studentGroupServiceImpl{groups: groups, departments: departments}
}

// StudentGroupListParams echoes the effective group filters.
type StudentGroupListParams struct {
	Search       string `json:"search,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

func (s *studentGroupServiceImpl) List(ctx context.Context, f repositories.StudentGroupFilter) (*dto.PaginatedResponse, error) {
	items, info, err := s.groups.List(ctx, f)
	if err != nil {
		return nil, err
	}
	lookups, err := s.FormOptions(ctx)
	if err != nil {
		return nil, err
	}
	params := StudentGroupListParams{Search: f.Search, DepartmentID: f.DepartmentID}
	return paginated(dto.NewStudentGroupResponses(items), info, lookups, params), nil
}

func (s *studentGroupServiceImpl) FormOptions(ctx context.Context) (*dto.Lookups, error) {
	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	summaries := dto.NewDepartmentSummaries(departments)
	return &dto.Lookups{Departments: &summaries}, nil
}

func (s *studentGroupServiceImpl) Get(ctx context.Context, id int64) (*dto.StudentGroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.groups.Students(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewStudentGroupDetailResponse(dto.StudentGroupDetail{Group: *group, Students: students})
	return &resp, nil
}

func (s *studentGroupServiceImpl) validate(ctx context.Context, req dto.StudentGroupRequest, id int64) (*models.StudentGroup, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	verr := apperrors.NewValidationError()
	if err := requireExisting(verr, "department_id", func() (bool, error) {
		return s.departments.Exists(ctx, req.DepartmentID)
	}); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return &models.StudentGroup{
		ID:           id,
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		YearLevel:    req.YearLevel,
		Section:      helpers.NilIfBlank(req.Section),
		Description:  helpers.NilIfBlank(req.Description),
	}, nil
}

func (s *studentGroupServiceImpl) Create(ctx context.Context, req dto.StudentGroupRequest) (*dto.StudentGroupResponse, error) {
	group, err := s.validate(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("error creating student group: %w", err)
	}
	return s.reload(ctx, group.ID)
}

func (s *studentGroupServiceImpl) Update(ctx context.Context, id int64, req dto.StudentGroupRequest) (*dto.StudentGroupResponse, error) {
	if _, err := s.groups.GetByID(ctx, id); err != nil {
		return nil, err
	}
	group, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("error updating student group: %w", err)
	}
	return s.reload(ctx, id)
}

func (s *studentGroupServiceImpl) reload(ctx context.Context, id int64) (*dto.StudentGroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewStudentGroupResponse(*group)
	return &resp, nil
}

func (s *studentGroupServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.groups.Delete(ctx, id)
}
