package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
)

// AttendanceFilter narrows the attendance listing. StartDate and EndDate
// bound the day inclusively.
type AttendanceFilter struct {
	ListParams
	SubjectID    *int64
	DepartmentID *int64
	IsPresent    *bool
	StartDate    *time.Time
	EndDate      *time.Time
}

// AttendanceMark is the mutable part of an attendance row.
type AttendanceMark struct {
	IsPresent bool
	MarkedBy  int64
	Remarks   *string
}

// AttendanceRepository handles database operations for attendance marks
type AttendanceRepository struct {
	db *db.PostgresDB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(database *db.PostgresDB) *AttendanceRepository {
	return &AttendanceRepository{db: database}
}

// FindOrInsertQuery builds the upsert keyed on (student_id, subject_id, date).
func FindOrInsertQuery(key models.AttendanceKey, mark AttendanceMark) squirrel.InsertBuilder {
	return psql().Insert("attendances").
		Columns("student_id", "subject_id", "date", "is_present", "marked_by", "remarks").
		Values(key.StudentID, key.SubjectID, helpers.DateOnly(key.Date), mark.IsPresent, mark.MarkedBy, mark.Remarks).
		Suffix(`ON CONFLICT (student_id, subject_id, date) DO UPDATE
			SET is_present = EXCLUDED.is_present,
				marked_by = EXCLUDED.marked_by,
				remarks = EXCLUDED.remarks,
				updated_at = NOW()
			RETURNING id, student_id, subject_id, date, is_present, marked_by, remarks, created_at, updated_at`)
}

// FindOrInsert writes mark for key, overwriting the existing row for the same
// key. Called with a transactional ctx it joins that transaction.
func (r *AttendanceRepository) FindOrInsert(ctx context.Context, key models.AttendanceKey, mark AttendanceMark) (*models.Attendance, error) {
	var a models.Attendance
	if err := insertReturning(ctx, r.db.Conn(ctx), FindOrInsertQuery(key, mark), attendanceDests(&a)...); err != nil {
		return nil, fmt.Errorf("error recording attendance: %w", err)
	}
	return &a, nil
}

// RosterQuery selects the students enrolled in subjectID with their mark on date.
func RosterQuery(subjectID int64, date time.Time) squirrel.SelectBuilder {
	return psql().Select(prefixed("st", studentColumns)...).
		Column("a.is_present").
		From("students st").
		Join("subject_student ss ON ss.student_id = st.id").
		LeftJoin("attendances a ON a.student_id = st.id AND a.subject_id = ss.subject_id AND a.date = ?", helpers.DateOnly(date)).
		Where(squirrel.Eq{"ss.subject_id": subjectID}).
		OrderBy("st.registration_number ASC")
}

// Roster returns the students enrolled in subjectID, each with the mark
// recorded on date or a nil status when none exists.
func (r *AttendanceRepository) Roster(ctx context.Context, subjectID int64, date time.Time) ([]models.RosterEntry, error) {
	items := make([]models.RosterEntry, 0)
	err := queryAll(ctx, r.db.Conn(ctx), RosterQuery(subjectID, date), func(rows pgx.Rows) error {
		var e models.RosterEntry
		if err := rows.Scan(append(studentDests(&e.Student), &e.Status)...); err != nil {
			return err
		}
		items = append(items, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving roster: %w", err)
	}
	return items, nil
}

func selectAttendancesWithRelations() squirrel.SelectBuilder {
	cols := prefixed("a", attendanceColumns)
	cols = append(cols, prefixed("st", studentColumns)...)
	cols = append(cols, prefixed("s", subjectColumns)...)
	cols = append(cols, "u.id", "u.name")
	return psql().Select(cols...).
		From("attendances a").
		Join("students st ON st.id = a.student_id").
		Join("subjects s ON s.id = a.subject_id").
		Join("users u ON u.id = a.marked_by")
}

func scanAttendanceWithRelations(row pgx.Row) (models.Attendance, error) {
	var a models.Attendance
	var st models.Student
	var s models.Subject
	var u models.User
	dests := attendanceDests(&a)
	dests = append(dests, studentDests(&st)...)
	dests = append(dests, subjectDests(&s)...)
	dests = append(dests, &u.ID, &u.Name)
	if err := row.Scan(dests...); err != nil {
		return a, err
	}
	a.Student = &st
	a.Subject = &s
	a.MarkedByUser = &u
	return a, nil
}

// AttendanceListQueries builds the count and page queries for f.
func AttendanceListQueries(f AttendanceFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.
		add(SearchCondition(f.Search, "st.first_name", "st.last_name", "st.registration_number")).
		add(eqIfSet("a.subject_id", f.SubjectID)).
		add(eqIfSet("a.is_present", f.IsPresent)).
		add(eqIfSet("st.department_id", f.DepartmentID))
	for _, c := range DateRangeCondition("a.date", f.StartDate, f.EndDate) {
		conds = conds.add(c)
	}
	count = conds.apply(psql().Select("COUNT(*)").From("attendances a").Join("students st ON st.id = a.student_id"))
	list = conds.apply(selectAttendancesWithRelations()).OrderBy("a.date DESC", "a.id DESC")
	return count, list
}

// List returns one page of attendance marks with student, subject and marker.
func (r *AttendanceRepository) List(ctx context.Context, f AttendanceFilter) ([]models.Attendance, dto.PaginationInfo, error) {
	count, list := AttendanceListQueries(f)
	items := make([]models.Attendance, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		a, err := scanAttendanceWithRelations(rows)
		if err != nil {
			return err
		}
		items = append(items, a)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing attendances: %w", err)
	}
	return items, info, nil
}

// LatestForStudent returns the newest limit marks of studentID with subject.
func (r *AttendanceRepository) LatestForStudent(ctx context.Context, studentID int64, limit uint64) ([]models.Attendance, error) {
	cols := append(prefixed("a", attendanceColumns), prefixed("s", subjectColumns)...)
	b := psql().Select(cols...).
		From("attendances a").
		Join("subjects s ON s.id = a.subject_id").
		Where(squirrel.Eq{"a.student_id": studentID}).
		OrderBy("a.date DESC", "a.id DESC").
		Limit(limit)

	items := make([]models.Attendance, 0)
	err := queryAll(ctx, r.db.Conn(ctx), b, func(rows pgx.Rows) error {
		var a models.Attendance
		var s models.Subject
		if err := rows.Scan(append(attendanceDests(&a), subjectDests(&s)...)...); err != nil {
			return err
		}
		a.Subject = &s
		items = append(items, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving student attendances: %w", err)
	}
	return items, nil
}

// TotalsForStudent counts all and present marks of studentID.
func (r *AttendanceRepository) TotalsForStudent(ctx context.Context, studentID int64) (models.AttendanceTotals, error) {
	var t models.AttendanceTotals
	b := psql().Select("COUNT(*)", "COUNT(*) FILTER (WHERE is_present)").
		From("attendances").
		Where(squirrel.Eq{"student_id": studentID})
	if err := queryOne(ctx, r.db.Conn(ctx), b, pgx.ErrNoRows, &t.Total, &t.Present); err != nil {
		return t, fmt.Errorf("error counting student attendances: %w", err)
	}
	return t, nil
}

// CountForSubjectDate counts the marks of subjectID on date.
func (r *AttendanceRepository) CountForSubjectDate(ctx context.Context, subjectID int64, date time.Time) (int64, error) {
	var n int64
	b := psql().Select("COUNT(*)").
		From("attendances").
		Where(squirrel.Eq{"subject_id": subjectID, "date": helpers.DateOnly(date)})
	if err := queryOne(ctx, r.db.Conn(ctx), b, pgx.ErrNoRows, &n); err != nil {
		return 0, fmt.Errorf("error counting attendances: %w", err)
	}
	return n, nil
}
