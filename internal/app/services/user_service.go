package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/auth"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// UserService defines staff user operations
type UserService interface {
	List(ctx context.Context, f repositories.UserFilter) (*dto.PaginatedResponse, error)
	FormOptions(ctx context.Context) (*dto.Lookups, error)
	Get(ctx context.Context, id int64) (*dto.UserResponse, error)
	Create(ctx context.Context, req dto.UserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, id int64, req dto.UserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, id int64) error
}

type userServiceImpl struct {
	tx          Transactor
	users       UserStore
	departments DepartmentStore
	subjects    SubjectStore
	hash        func(string) (string, error)
}

// NewUserService creates a new user service instance
func NewUserService(tx Transactor, users UserStore, departments DepartmentStore, subjects SubjectStore) UserService {
	return &userServiceImpl{
		tx:          tx,
		users:       users,
		departments: departments,
		subjects:    subjects,
		hash:        auth.HashPassword,
	}
}

// UserListParams echoes the effective user filters.
type UserListParams struct {
	Search       string       `json:"search,omitempty"`
	Role         *models.Role `json:"role,omitempty"`
	DepartmentID *int64       `json:"department_id,omitempty"`
}

func roleNames() []string {
	roles := models.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

func (s *userServiceImpl) List(ctx context.Context, f repositories.UserFilter) (*dto.PaginatedResponse, error) {
	items, info, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	summaries := dto.NewDepartmentSummaries(departments)
	lookups := &dto.Lookups{Departments: &summaries, Roles: roleNames()}
	params := UserListParams{Search: f.Search, Role: f.Role, DepartmentID: f.DepartmentID}
	return paginated(dto.NewUserResponses(items), info, lookups, params), nil
}

func (s *userServiceImpl) FormOptions(ctx context.Context) (*dto.Lookups, error) {
	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.All(ctx)
	if err != nil {
		return nil, err
	}
	deptSummaries := dto.NewDepartmentSummaries(departments)
	subjectSummaries := dto.NewSubjectSummaries(subjects)
	return &dto.Lookups{Departments: &deptSummaries, Subjects: &subjectSummaries, Roles: roleNames()}, nil
}

func (s *userServiceImpl) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ForTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserDetailResponse(dto.UserDetail{User: *user, Subjects: subjects})
	return &resp, nil
}

// TeacherSubjects returns the first TeacherMaxSubjects distinct ids of ids.
func TeacherSubjects(ids []int64) []int64 {
	ids = helpers.UniqueInt64s(ids)
	if len(ids) > validation.TeacherMaxSubjects {
		ids = ids[:validation.TeacherMaxSubjects]
	}
	return ids
}

// validate checks req and returns the user plus the subject assignment set.
// A nil set means the user is not a teacher and holds no assignments.
func (s *userServiceImpl) validate(ctx context.Context, req dto.UserRequest, id int64) (*models.User, []int64, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, nil, err
	}

	verr := apperrors.NewValidationError()
	creating := id == 0
	if req.Password == nil && creating {
		verr.Add("password", "The password field is required.")
	}
	if req.Password != nil && (req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password) {
		verr.Add("password", validation.MsgPasswordConfirmation)
	}

	// Every submitted id must exist, even those the teacher cap drops.
	submitted := helpers.UniqueInt64s(req.SubjectIDs)
	role := models.Role(req.Role)
	var subjectIDs []int64
	if role == models.RoleTeacher {
		subjectIDs = TeacherSubjects(submitted)
		if len(subjectIDs) == 0 {
			verr.Add("subject_ids", validation.MsgTeacherSubjects)
		}
	}

	checks := []error{
		requireUnique(verr, "email", func() (bool, error) {
			return s.users.EmailTaken(ctx, req.Email, id)
		}),
		requireAllExisting(ctx, verr, "subject_ids", submitted, s.subjects.MissingIDs),
	}
	if req.DepartmentID != nil {
		checks = append(checks, requireExisting(verr, "department_id", func() (bool, error) {
			return s.departments.Exists(ctx, *req.DepartmentID)
		}))
	}
	for _, err := range checks {
		if err != nil {
			return nil, nil, err
		}
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	user := &models.User{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		DepartmentID: req.DepartmentID,
	}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	return user, subjectIDs, nil
}

func (s *userServiceImpl) Create(ctx context.Context, req dto.UserRequest) (*dto.UserResponse, error) {
	user, subjectIDs, err := s.validate(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		if len(subjectIDs) == 0 {
			return nil
		}
		return s.users.SyncSubjects(ctx, user.ID, subjectIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

func (s *userServiceImpl) Update(ctx context.Context, id int64, req dto.UserRequest) (*dto.UserResponse, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	user, subjectIDs, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}

	// Non-teachers end up with an empty assignment set.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("error updating user: %w", err)
		}
		return s.users.SyncSubjects(ctx, id, subjectIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *userServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}
