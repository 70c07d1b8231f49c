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
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
)

// StudentFilter narrows the student listing.
type StudentFilter struct {
	ListParams
	IsFirstYear    *bool
	DepartmentID   *int64
	StudentGroupID *int64
}

// StudentRepository handles database operations for students and their
// subject_student enrollments.
type StudentRepository struct {
	db *db.PostgresDB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(database *db.PostgresDB) *StudentRepository {
	return &StudentRepository{db: database}
}

func selectStudentsWithRelations() squirrel.SelectBuilder {
	cols := prefixed("st", studentColumns)
	cols = append(cols, prefixed("d", departmentColumns)...)
	cols = append(cols, prefixed("g", studentGroupColumns)...)
	return psql().Select(cols...).
		From("students st").
		Join("departments d ON d.id = st.department_id").
		Join("student_groups g ON g.id = st.student_group_id")
}

func scanStudentWithRelations(row pgx.Row) (models.Student, error) {
	var s models.Student
	var d models.Department
	var g models.StudentGroup
	dests := studentDests(&s)
	dests = append(dests, departmentDests(&d)...)
	dests = append(dests, studentGroupDests(&g)...)
	if err := row.Scan(dests...); err != nil {
		return s, err
	}
	s.Department = &d
	s.StudentGroup = &g
	return s, nil
}

func collectStudents(ctx context.Context, q db.DBTX, b squirrel.SelectBuilder) ([]models.Student, error) {
	items := make([]models.Student, 0)
	err := queryAll(ctx, q, b, func(rows pgx.Rows) error {
		s, err := scanStudentWithRelations(rows)
		if err != nil {
			return err
		}
		items = append(items, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving students: %w", err)
	}
	return items, nil
}

// StudentListQueries builds the count and page queries for f.
func StudentListQueries(f StudentFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.
		add(SearchCondition(f.Search, "st.first_name", "st.last_name", "st.email", "st.registration_number")).
		add(eqIfSet("st.is_first_year", f.IsFirstYear)).
		add(eqIfSet("st.department_id", f.DepartmentID)).
		add(eqIfSet("st.student_group_id", f.StudentGroupID))
	count = conds.apply(psql().Select("COUNT(*)").From("students st"))
	list = conds.apply(selectStudentsWithRelations()).OrderBy("st.created_at DESC", "st.id DESC")
	return count, list
}

// List returns one page of students with department and group.
func (r *StudentRepository) List(ctx context.Context, f StudentFilter) ([]models.Student, dto.PaginationInfo, error) {
	count, list := StudentListQueries(f)
	items := make([]models.Student, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		s, err := scanStudentWithRelations(rows)
		if err != nil {
			return err
		}
		items = append(items, s)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing students: %w", err)
	}
	return items, info, nil
}

// GetByID retrieves a student with department and group.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sqlStr, args, err := selectStudentsWithRelations().Where(squirrel.Eq{"st.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	s, err := scanStudentWithRelations(r.db.Conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// MissingIDs returns the ids among ids that name no student.
func (r *StudentRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db.Conn(ctx), "students", ids)
}

// EmailTaken reports whether email belongs to a student other than exceptID.
func (r *StudentRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	return valueTaken(ctx, r.db.Conn(ctx), "students", "email", email, exceptID)
}

// RegistrationNumberTaken reports whether number belongs to a student other than exceptID.
func (r *StudentRepository) RegistrationNumberTaken(ctx context.Context, number string, exceptID int64) (bool, error) {
	return valueTaken(ctx, r.db.Conn(ctx), "students", "registration_number", number, exceptID)
}

// Create creates a new student
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	b := psql().Insert("students").
		Columns("registration_number", "first_name", "last_name", "email", "is_first_year", "department_id", "student_group_id").
		Values(s.RegistrationNumber, s.FirstName, s.LastName, s.Email, s.IsFirstYear, s.DepartmentID, s.StudentGroupID).
		Suffix("RETURNING id, created_at, updated_at")
	return insertReturning(ctx, r.db.Conn(ctx), b, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update updates an existing student
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	b := psql().Update("students").
		Set("registration_number", s.RegistrationNumber).
		Set("first_name", s.FirstName).
		Set("last_name", s.LastName).
		Set("email", s.Email).
		Set("is_first_year", s.IsFirstYear).
		Set("department_id", s.DepartmentID).
		Set("student_group_id", s.StudentGroupID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING created_at, updated_at")
	return updateReturning(ctx, r.db.Conn(ctx), b, apperrors.ErrStudentNotFound, &s.CreatedAt, &s.UpdatedAt)
}

// Delete deletes a student by ID
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db.Conn(ctx), psql().Delete("students").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}
	if n == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Enrollments returns the subject_student rows of studentID.
func (r *StudentRepository) Enrollments(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	items := make([]models.Enrollment, 0)
	b := psql().Select("subject_id", "student_id", "enrollment_date").
		From("subject_student").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("subject_id ASC")
	err := queryAll(ctx, r.db.Conn(ctx), b, func(rows pgx.Rows) error {
		var e models.Enrollment
		if err := rows.Scan(&e.SubjectID, &e.StudentID, &e.EnrollmentDate); err != nil {
			return err
		}
		items = append(items, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving enrollments: %w", err)
	}
	return items, nil
}

// SyncSubjects makes subjectIDs the exact enrollment set of studentID.
// Dropped subjects are detached, new ones attached on enrolledOn, and kept
// rows retain their original enrollment date.
func (r *StudentRepository) SyncSubjects(ctx context.Context, studentID int64, subjectIDs []int64, enrolledOn time.Time) error {
	return syncPivot(ctx, r.db.Conn(ctx), pivotSpec{
		table:      "subject_student",
		ownerCol:   "student_id",
		relatedCol: "subject_id",
		extraCols:  []string{"enrollment_date"},
		extraVals:  []any{helpers.DateOnly(enrolledOn)},
	}, studentID, subjectIDs)
}
