package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolroll/internal/pkg/auth"
	"github.com/yigit/schoolroll/internal/pkg/metrics"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// Clock returns the current time; services take one so tests can pin "today".
type Clock func() time.Time

// Services bundles every service the HTTP layer depends on.
type Services struct {
	Auth          *AuthService
	Departments   DepartmentService
	Subjects      SubjectService
	StudentGroups StudentGroupService
	Students      StudentService
	Users         UserService
	Attendances   AttendanceService
}

// New wires the services over repos, running multi-row writes through tx.
func New(database *db.PostgresDB, repos *repositories.Repositories, jwt *pkgauth.JWTService, m *metrics.Metrics) *Services {
	authz := auth.NewAuthorizationService(repos.Subjects)
	return &Services{
		Auth:          NewAuthService(repos.Users, jwt),
		Departments:   NewDepartmentService(repos.Departments),
		Subjects:      NewSubjectService(repos.Subjects, repos.Departments),
		StudentGroups: NewStudentGroupService(repos.StudentGroups, repos.Departments),
		Students:      NewStudentService(database, repos.Students, repos.Departments, repos.StudentGroups, repos.Subjects, repos.Attendances, time.Now),
		Users:         NewUserService(database, repos.Users, repos.Departments, repos.Subjects),
		Attendances:   NewAttendanceService(database, repos.Attendances, repos.Subjects, repos.Users, repos.Students, repos.Departments, authz, m, time.Now),
	}
}

// paginated wraps one page of items.
func paginated(items interface{}, info dto.PaginationInfo, lookups *dto.Lookups, params interface{}) *dto.PaginatedResponse {
	return &dto.PaginatedResponse{
		Items:      items,
		Pagination: info,
		Lookups:    lookups,
		Params:     params,
	}
}

// requireUnique adds a uniqueness error for field when taken reports true.
func requireUnique(verr *apperrors.ValidationError, field string, taken func() (bool, error)) error {
	isTaken, err := taken()
	if err != nil {
		return fmt.Errorf("failed to check %s uniqueness: %w", field, err)
	}
	if isTaken {
		verr.Add(field, validation.Taken(field))
	}
	return nil
}

// requireExisting adds an invalid-selection error for field when the
// referenced row does not exist.
func requireExisting(verr *apperrors.ValidationError, field string, exists func() (bool, error)) error {
	found, err := exists()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	if !found {
		verr.Add(field, validation.InvalidSelection(field))
	}
	return nil
}

// requireAllExisting adds an error for field when any id is missing.
func requireAllExisting(ctx context.Context, verr *apperrors.ValidationError, field string, ids []int64, missing func(context.Context, []int64) ([]int64, error)) error {
	if len(ids) == 0 {
		return nil
	}
	absent, err := missing(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	if len(absent) > 0 {
		verr.Add(field, validation.InvalidSelection(field))
	}
	return nil
}
