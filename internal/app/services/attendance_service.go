package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/logger"
	"github.com/yigit/schoolroll/internal/pkg/metrics"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

const (
	// AttendancePerPage is the default page size of the attendance listing.
	AttendancePerPage = 15
	// DefaultAttendanceWindow is how far back the listing reaches without a start_date.
	DefaultAttendanceWindow = 7 * 24 * time.Hour
)

// AttendanceService defines the attendance workflow
type AttendanceService interface {
	Record(ctx context.Context, rc auth.RequestContext, req dto.RecordAttendanceRequest) (*dto.RecordAttendanceResponse, error)
	Roster(ctx context.Context, req dto.RosterRequest) (*dto.RosterResponse, error)
	FormContext(ctx context.Context, rc auth.RequestContext) (*dto.AttendanceFormResponse, error)
	List(ctx context.Context, params dto.AttendanceListParams) (*dto.PaginatedResponse, error)
}

type attendanceServiceImpl struct {
	tx          Transactor
	attendances AttendanceStore
	subjects    SubjectStore
	users       UserStore
	students    StudentStore
	departments DepartmentStore
	authz       *auth.AuthorizationService
	metrics     *metrics.Metrics
	now         Clock
}

// NewAttendanceService creates a new attendance service instance
func NewAttendanceService(tx Transactor, attendances AttendanceStore, subjects SubjectStore, users UserStore,
	students StudentStore, departments DepartmentStore, authz *auth.AuthorizationService, m *metrics.Metrics, now Clock) AttendanceService {
	return &attendanceServiceImpl{
		tx:          tx,
		attendances: attendances,
		subjects:    subjects,
		users:       users,
		students:    students,
		departments: departments,
		authz:       authz,
		metrics:     m,
		now:         now,
	}
}

// Record writes a batch of marks for one subject and day. Field and existence
// problems are reported as a validation error before authorization runs; the
// batch itself is all-or-nothing.
func (s *attendanceServiceImpl) Record(ctx context.Context, rc auth.RequestContext, req dto.RecordAttendanceRequest) (*dto.RecordAttendanceResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	date, err := helpers.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.FieldError("date", fmt.Sprintf(validation.MsgInvalidDate, "date"))
	}

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	if err := s.authz.CanRecordAttendance(ctx, rc, req.SubjectID, req.MarkedBy); err != nil {
		return nil, err
	}

	// Later entries for the same student overwrite earlier ones.
	final := make(map[int64]bool, len(req.Attendances))
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		for _, mark := range req.Attendances {
			key := models.AttendanceKey{StudentID: mark.StudentID, SubjectID: req.SubjectID, Date: date}
			_, err := s.attendances.FindOrInsert(ctx, key, repositories.AttendanceMark{
				IsPresent: *mark.IsPresent,
				MarkedBy:  req.MarkedBy,
				Remarks:   helpers.NilIfBlank(mark.Remarks),
			})
			if err != nil {
				return fmt.Errorf("failed to record attendance for student %d: %w", mark.StudentID, err)
			}
			final[mark.StudentID] = *mark.IsPresent
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var present, absent int
	for _, isPresent := range final {
		if isPresent {
			present++
		} else {
			absent++
		}
	}

	s.metrics.AttendanceRecorded(present, absent)
	logger.Info().
		Int64("subject_id", req.SubjectID).
		Str("date", req.Date).
		Int64("marked_by", req.MarkedBy).
		Int("recorded", len(final)).
		Msg("Attendance recorded")

	return &dto.RecordAttendanceResponse{
		Recorded:  len(final),
		SubjectID: req.SubjectID,
		Date:      date.Format(dto.DateLayout),
	}, nil
}

// checkReferences verifies that every id in req points at an existing row.
func (s *attendanceServiceImpl) checkReferences(ctx context.Context, req dto.RecordAttendanceRequest) error {
	verr := apperrors.NewValidationError()
	if err := requireExisting(verr, "subject_id", func() (bool, error) {
		return s.subjects.Exists(ctx, req.SubjectID)
	}); err != nil {
		return err
	}
	if err := requireExisting(verr, "marked_by", func() (bool, error) {
		return s.users.Exists(ctx, req.MarkedBy)
	}); err != nil {
		return err
	}

	ids := make([]int64, 0, len(req.Attendances))
	for _, mark := range req.Attendances {
		ids = append(ids, mark.StudentID)
	}
	missing, err := s.students.MissingIDs(ctx, helpers.UniqueInt64s(ids))
	if err != nil {
		return fmt.Errorf("failed to check students: %w", err)
	}
	if len(missing) > 0 {
		absent := make(map[int64]struct{}, len(missing))
		for _, id := range missing {
			absent[id] = struct{}{}
		}
		for i, mark := range req.Attendances {
			if _, ok := absent[mark.StudentID]; ok {
				field := "attendances." + strconv.Itoa(i) + ".student_id"
				verr.Add(field, validation.InvalidSelection(field))
			}
		}
	}
	return verr.OrNil()
}

func (s *attendanceServiceImpl) Roster(ctx context.Context, req dto.RosterRequest) (*dto.RosterResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	date, err := helpers.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.FieldError("date", fmt.Sprintf(validation.MsgInvalidDate, "date"))
	}

	verr := apperrors.NewValidationError()
	if err := requireExisting(verr, "subject_id", func() (bool, error) {
		return s.subjects.Exists(ctx, req.SubjectID)
	}); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	entries, err := s.attendances.Roster(ctx, req.SubjectID, date)
	if err != nil {
		return nil, err
	}
	resp := dto.NewRosterResponse(entries)
	return &resp, nil
}

func (s *attendanceServiceImpl) FormContext(ctx context.Context, rc auth.RequestContext) (*dto.AttendanceFormResponse, error) {
	resp := &dto.AttendanceFormResponse{AuthUserID: rc.UserID, UserRole: rc.Role}

	if rc.IsTeacher() {
		subjects, err := s.subjects.ForTeacher(ctx, rc.UserID)
		if err != nil {
			return nil, err
		}
		resp.Subjects = dto.NewSubjectSummaries(subjects)
		return resp, nil
	}

	subjects, err := s.subjects.All(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := s.users.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	summaries := dto.NewUserSummaries(teachers)
	resp.Subjects = dto.NewSubjectSummaries(subjects)
	resp.Teachers = &summaries
	return resp, nil
}

// dateRange resolves the listing's inclusive date bounds. A missing bound
// falls back to the default window ending today.
func (s *attendanceServiceImpl) dateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	today := helpers.DateOnly(s.now())
	start := today.Add(-DefaultAttendanceWindow)
	end := today

	verr := apperrors.NewValidationError()
	if startRaw != "" {
		parsed, err := helpers.ParseDate(startRaw)
		if err != nil {
			verr.Add("start_date", fmt.Sprintf(validation.MsgInvalidDate, "start_date"))
		}
		start = parsed
	}
	if endRaw != "" {
		parsed, err := helpers.ParseDate(endRaw)
		if err != nil {
			verr.Add("end_date", fmt.Sprintf(validation.MsgInvalidDate, "end_date"))
		}
		end = parsed
	}
	return start, end, verr.OrNil()
}

func (s *attendanceServiceImpl) List(ctx context.Context, params dto.AttendanceListParams) (*dto.PaginatedResponse, error) {
	start, end, err := s.dateRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}
	page := helpers.PageRequest{Page: params.Page, PerPage: params.PerPage}.Normalize(AttendancePerPage, helpers.MaxPageSize)

	filter := repositories.AttendanceFilter{
		ListParams:   repositories.ListParams{Search: params.Search, Page: page.Page, PerPage: page.PerPage},
		SubjectID:    params.SubjectID,
		DepartmentID: params.DepartmentID,
		IsPresent:    params.IsPresent,
		StartDate:    &start,
		EndDate:      &end,
	}
	items, info, err := s.attendances.List(ctx, filter)
	if err != nil {
		return nil, err
	}

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

	params.StartDate = start.Format(dto.DateLayout)
	params.EndDate = end.Format(dto.DateLayout)
	params.Page = page.Page
	params.PerPage = page.PerPage
	lookups := &dto.Lookups{Departments: &deptSummaries, Subjects: &subjectSummaries}
	return paginated(dto.NewAttendanceResponses(items), info, lookups, params), nil
}
