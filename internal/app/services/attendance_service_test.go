package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolroll/internal/app/auth"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/metrics"
)

type attendanceFixture struct {
	svc         AttendanceService
	tx          *fakeTx
	attendances *fakeAttendances
	subjects    *fakeSubjects
	metrics     *metrics.Metrics
}

const (
	adminID   int64 = 1
	teacherID int64 = 2
	otherID   int64 = 3
)

func newAttendanceFixture(now time.Time) *attendanceFixture {
	subjects := newFakeSubjects(
		models.Subject{ID: 10, Name: "Algebra", Code: "MATH101", DepartmentID: 1},
		models.Subject{ID: 11, Name: "Physics", Code: "PHY101", DepartmentID: 1},
	)
	subjects.assignments[teacherID] = []int64{10}
	users := newFakeUsers(
		models.User{ID: adminID, Name: "Admin", Email: "admin@school.test", Role: models.RoleAdmin},
		models.User{ID: teacherID, Name: "Ada", Email: "ada@school.test", Role: models.RoleTeacher},
		models.User{ID: otherID, Name: "Bob", Email: "bob@school.test", Role: models.RoleTeacher},
	)
	students := newFakeStudents(
		models.Student{ID: 100, RegistrationNumber: "R100"},
		models.Student{ID: 101, RegistrationNumber: "R101"},
		models.Student{ID: 102, RegistrationNumber: "R102"},
	)
	tx := &fakeTx{}
	attendances := newFakeAttendances()
	m := metrics.New()
	svc := NewAttendanceService(tx, attendances, subjects, users, students, newFakeDepartments(),
		auth.NewAuthorizationService(subjects), m, func() time.Time { return now })
	return &attendanceFixture{svc: svc, tx: tx, attendances: attendances, subjects: subjects, metrics: m}
}

func mark(studentID int64, present bool) dto.AttendanceMarkRequest {
	return dto.AttendanceMarkRequest{StudentID: studentID, IsPresent: &present}
}

func TestAttendanceService_Record(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	admin := auth.RequestContext{UserID: adminID, Role: models.RoleAdmin}
	teacher := auth.RequestContext{UserID: teacherID, Role: models.RoleTeacher}

	t.Run("Admin_RecordsBatch", func(t *testing.T) {
		f := newAttendanceFixture(date)
		resp, err := f.svc.Record(ctx, admin, dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    teacherID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true), mark(101, false)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Recorded)
		assert.Equal(t, "2024-03-04", resp.Date)
		assert.Equal(t, 2, f.attendances.countFor(10, date))
		assert.Equal(t, 1, f.tx.calls)
	})

	t.Run("Resubmission_IsIdempotent", func(t *testing.T) {
		f := newAttendanceFixture(date)
		req := dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    teacherID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true), mark(101, true)},
		}
		_, err := f.svc.Record(ctx, teacher, req)
		require.NoError(t, err)

		req.Attendances = []dto.AttendanceMarkRequest{mark(100, false), mark(101, true)}
		_, err = f.svc.Record(ctx, teacher, req)
		require.NoError(t, err)

		assert.Equal(t, 2, f.attendances.countFor(10, date))
		row := f.attendances.rows[models.AttendanceKey{StudentID: 100, SubjectID: 10, Date: date}]
		assert.False(t, row.IsPresent)
	})

	t.Run("DuplicateStudent_LastWins", func(t *testing.T) {
		f := newAttendanceFixture(date)
		resp, err := f.svc.Record(ctx, admin, dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    adminID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true), mark(100, false), mark(101, true)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Recorded)
		row := f.attendances.rows[models.AttendanceKey{StudentID: 100, SubjectID: 10, Date: date}]
		assert.False(t, row.IsPresent)

		expected := `
# HELP schoolroll_attendance_marks_recorded_total Attendance marks written, by status.
# TYPE schoolroll_attendance_marks_recorded_total counter
schoolroll_attendance_marks_recorded_total{status="absent"} 1
schoolroll_attendance_marks_recorded_total{status="present"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected),
			"schoolroll_attendance_marks_recorded_total"))
	})

	t.Run("MissingFields_ValidationError", func(t *testing.T) {
		f := newAttendanceFixture(date)
		_, err := f.svc.Record(ctx, admin, dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    adminID,
			Attendances: []dto.AttendanceMarkRequest{{StudentID: 100}},
		})
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "attendances.0.is_present")
		assert.Zero(t, f.tx.calls)
	})

	t.Run("UnknownReferences_KeyedByField", func(t *testing.T) {
		f := newAttendanceFixture(date)
		_, err := f.svc.Record(ctx, admin, dto.RecordAttendanceRequest{
			SubjectID:   99,
			Date:        "2024-03-04",
			MarkedBy:    98,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true), mark(999, true)},
		})
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "The selected subject_id is invalid.", verr.Fields["subject_id"])
		assert.Contains(t, verr.Fields, "marked_by")
		assert.Contains(t, verr.Fields, "attendances.1.student_id")
		assert.NotContains(t, verr.Fields, "attendances.0.student_id")
	})

	t.Run("Teacher_UnassignedSubject_Forbidden", func(t *testing.T) {
		f := newAttendanceFixture(date)
		_, err := f.svc.Record(ctx, teacher, dto.RecordAttendanceRequest{
			SubjectID:   11,
			Date:        "2024-03-04",
			MarkedBy:    teacherID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true)},
		})
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		assert.Equal(t, auth.MsgSubjectNotAssigned, err.Error())
		assert.Empty(t, f.attendances.rows)
	})

	t.Run("Teacher_MarkingAsSomeoneElse_Forbidden", func(t *testing.T) {
		f := newAttendanceFixture(date)
		_, err := f.svc.Record(ctx, teacher, dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    otherID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true)},
		})
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		assert.Equal(t, auth.MsgMarkAsSelfOnly, err.Error())
	})

	t.Run("WriteFailure_RollsBack", func(t *testing.T) {
		f := newAttendanceFixture(date)
		f.attendances.failOn = 101
		_, err := f.svc.Record(ctx, admin, dto.RecordAttendanceRequest{
			SubjectID:   10,
			Date:        "2024-03-04",
			MarkedBy:    adminID,
			Attendances: []dto.AttendanceMarkRequest{mark(100, true), mark(101, true)},
		})
		require.Error(t, err)
		assert.Equal(t, 1, f.tx.rollbacks)
	})
}

func TestAttendanceService_FormContext(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(time.Now())

	t.Run("Teacher_OwnSubjectsOnly", func(t *testing.T) {
		resp, err := f.svc.FormContext(ctx, auth.RequestContext{UserID: teacherID, Role: models.RoleTeacher})
		require.NoError(t, err)
		require.Len(t, resp.Subjects, 1)
		assert.Equal(t, int64(10), resp.Subjects[0].ID)
		assert.Nil(t, resp.Teachers)
		assert.Equal(t, teacherID, resp.AuthUserID)
		assert.Equal(t, models.RoleTeacher, resp.UserRole)
	})

	t.Run("Admin_AllSubjectsAndTeachers", func(t *testing.T) {
		resp, err := f.svc.FormContext(ctx, auth.RequestContext{UserID: adminID, Role: models.RoleAdmin})
		require.NoError(t, err)
		assert.Len(t, resp.Subjects, 2)
		require.NotNil(t, resp.Teachers)
		assert.Equal(t, []dto.UserSummary{{ID: teacherID, Name: "Ada"}, {ID: otherID, Name: "Bob"}}, *resp.Teachers)
	})
}

func TestAttendanceService_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	t.Run("DefaultRange_LastSevenDays", func(t *testing.T) {
		f := newAttendanceFixture(now)
		resp, err := f.svc.List(ctx, dto.AttendanceListParams{})
		require.NoError(t, err)

		require.Len(t, f.attendances.filters, 1)
		filter := f.attendances.filters[0]
		assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), *filter.StartDate)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *filter.EndDate)
		assert.Equal(t, AttendancePerPage, filter.PerPage)

		params := resp.Params.(dto.AttendanceListParams)
		assert.Equal(t, "2024-03-03", params.StartDate)
		assert.Equal(t, "2024-03-10", params.EndDate)
		assert.Equal(t, 1, params.Page)
		require.NotNil(t, resp.Lookups.Subjects)
	})

	t.Run("SingleBound_KeepsOtherDefault", func(t *testing.T) {
		f := newAttendanceFixture(now)
		_, err := f.svc.List(ctx, dto.AttendanceListParams{StartDate: "2024-01-01"})
		require.NoError(t, err)
		filter := f.attendances.filters[0]
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *filter.EndDate)
	})

	t.Run("InvalidDate_ValidationError", func(t *testing.T) {
		f := newAttendanceFixture(now)
		_, err := f.svc.List(ctx, dto.AttendanceListParams{EndDate: "10/03/2024"})
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "The end_date field must be a valid date.", verr.Fields["end_date"])
		assert.Empty(t, f.attendances.filters)
	})
}

func TestAttendanceService_Roster(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(time.Now())

	t.Run("UnknownSubject_ValidationError", func(t *testing.T) {
		_, err := f.svc.Roster(ctx, dto.RosterRequest{SubjectID: 99, Date: "2024-03-04"})
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "subject_id")
	})

	t.Run("MissingDate_ValidationError", func(t *testing.T) {
		_, err := f.svc.Roster(ctx, dto.RosterRequest{SubjectID: 10})
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "date")
	})

	t.Run("EmptyRoster", func(t *testing.T) {
		resp, err := f.svc.Roster(ctx, dto.RosterRequest{SubjectID: 10, Date: "2024-03-04"})
		require.NoError(t, err)
		assert.Empty(t, resp.Students)
		assert.NotNil(t, resp.Students)
	})
}
