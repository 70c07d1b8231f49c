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
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// LatestAttendanceLimit caps the marks shown on a student's detail view.
const LatestAttendanceLimit = 50

// StudentService defines student operations
type StudentService interface {
	List(ctx context.Context, f repositories.StudentFilter) (*dto.PaginatedResponse, error)
	FormOptions(ctx context.Context) (*dto.Lookups, error)
	Get(ctx context.Context, id int64) (*dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error)
	Update(ctx context.Context, id int64, req dto.StudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id int64) error
}

type studentServiceImpl struct {
	tx          Transactor
	students    StudentStore
	departments DepartmentStore
	groups      StudentGroupStore
	subjects    SubjectStore
	attendances AttendanceStore
	now         Clock
}

// NewStudentService creates a new student service instance
func NewStudentService(tx Transactor, students StudentStore, departments DepartmentStore, groups StudentGroupStore,
	subjects SubjectStore, attendances AttendanceStore, now Clock) StudentService {
	return &studentServiceImpl{
		tx:          tx,
		students:    students,
		departments: departments,
		groups:      groups,
		subjects:    subjects,
		attendances: attendances,
		now:         now,
	}
}

// StudentListParams echoes the effective student filters.
type StudentListParams struct {
	Search         string `json:"search,omitempty"`
	IsFirstYear    *bool  `json:"is_first_year,omitempty"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	StudentGroupID *int64 `json:"student_group_id,omitempty"`
}

func (s *studentServiceImpl) List(ctx context.Context, f repositories.StudentFilter) (*dto.PaginatedResponse, error) {
	items, info, err := s.students.List(ctx, f)
	if err != nil {
		return nil, err
	}

	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.All(ctx)
	if err != nil {
		return nil, err
	}
	deptSummaries := dto.NewDepartmentSummaries(departments)
	groupSummaries := dto.NewStudentGroupSummaries(groups)

	params := StudentListParams{
		Search:         f.Search,
		IsFirstYear:    f.IsFirstYear,
		DepartmentID:   f.DepartmentID,
		StudentGroupID: f.StudentGroupID,
	}
	lookups := &dto.Lookups{Departments: &deptSummaries, StudentGroups: &groupSummaries}
	return paginated(dto.NewStudentResponses(items), info, lookups, params), nil
}

func (s *studentServiceImpl) FormOptions(ctx context.Context) (*dto.Lookups, error) {
	departments, err := s.departments.All(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.All(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.All(ctx)
	if err != nil {
		return nil, err
	}
	deptSummaries := dto.NewDepartmentSummaries(departments)
	groupSummaries := dto.NewStudentGroupSummaries(groups)
	subjectSummaries := dto.NewSubjectSummaries(subjects)
	return &dto.Lookups{
		Departments:   &deptSummaries,
		StudentGroups: &groupSummaries,
		Subjects:      &subjectSummaries,
	}, nil
}

func (s *studentServiceImpl) Get(ctx context.Context, id int64) (*dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ForStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	latest, err := s.attendances.LatestForStudent(ctx, id, LatestAttendanceLimit)
	if err != nil {
		return nil, err
	}
	totals, err := s.attendances.TotalsForStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.NewStudentDetailResponse(dto.StudentDetail{
		Student:     *student,
		Subjects:    subjects,
		Attendances: latest,
		Totals:      totals,
	})
	return &resp, nil
}

// validate checks req and returns the student and the distinct subject ids
// it enrolls in.
func (s *studentServiceImpl) validate(ctx context.Context, req dto.StudentRequest, id int64) (*models.Student, []int64, error) {
	req.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, nil, err
	}

	subjectIDs := helpers.UniqueInt64s(req.SubjectIDs)
	verr := apperrors.NewValidationError()
	if *req.IsFirstYear {
		switch {
		case len(subjectIDs) < validation.FirstYearMinSubjects:
			verr.Add("subject_ids", validation.MsgFirstYearMin)
		case len(subjectIDs) > validation.FirstYearMaxSubjects:
			verr.Add("subject_ids", validation.MsgFirstYearMax)
		}
	}

	checks := []error{
		requireUnique(verr, "registration_number", func() (bool, error) {
			return s.students.RegistrationNumberTaken(ctx, req.RegistrationNumber, id)
		}),
		requireUnique(verr, "email", func() (bool, error) {
			return s.students.EmailTaken(ctx, req.Email, id)
		}),
		requireExisting(verr, "department_id", func() (bool, error) {
			return s.departments.Exists(ctx, req.DepartmentID)
		}),
		requireExisting(verr, "student_group_id", func() (bool, error) {
			return s.groups.Exists(ctx, req.StudentGroupID)
		}),
		requireAllExisting(ctx, verr, "subject_ids", subjectIDs, s.subjects.MissingIDs),
	}
	for _, err := range checks {
		if err != nil {
			return nil, nil, err
		}
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	return &models.Student{
		ID:                 id,
		RegistrationNumber: req.RegistrationNumber,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		IsFirstYear:        *req.IsFirstYear,
		DepartmentID:       req.DepartmentID,
		StudentGroupID:     req.StudentGroupID,
	}, subjectIDs, nil
}

func (s *studentServiceImpl) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	student, subjectIDs, err := s.validate(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		if err := s.students.Create(ctx, student); err != nil {
			return fmt.Errorf("error creating student: %w", err)
		}
		return s.students.SyncSubjects(ctx, student.ID, subjectIDs, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, student.ID)
}

func (s *studentServiceImpl) Update(ctx context.Context, id int64, req dto.StudentRequest) (*dto.StudentResponse, error) {
	if _, err := s.students.GetByID(ctx, id); err != nil {
		return nil, err
	}
	student, subjectIDs, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		if err := s.students.Update(ctx, student); err != nil {
			return fmt.Errorf("error updating student: %w", err)
		}
		return s.students.SyncSubjects(ctx, id, subjectIDs, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *studentServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.students.Delete(ctx, id)
}
