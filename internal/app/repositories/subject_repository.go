package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
)

// SubjectFilter narrows the subject listing.
type SubjectFilter struct {
	ListParams
	DepartmentID *int64
}

// SubjectRepository handles database operations for subjects and the
// subject_teacher assignments.
type SubjectRepository struct {
	db *db.PostgresDB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(database *db.PostgresDB) *SubjectRepository {
	return &SubjectRepository{db: database}
}

func selectSubjects() squirrel.SelectBuilder {
	return psql().Select(prefixed("s", subjectColumns)...).From("subjects s")
}

func selectSubjectsWithDepartment() squirrel.SelectBuilder {
	cols := append(prefixed("s", subjectColumns), prefixed("d", departmentColumns)...)
	return psql().Select(cols...).From("subjects s").Join("departments d ON d.id = s.department_id")
}

func scanSubjectWithDepartment(rows pgx.Row) (models.Subject, error) {
	var s models.Subject
	var d models.Department
	if err := rows.Scan(append(subjectDests(&s), departmentDests(&d)...)...); err != nil {
		return s, err
	}
	s.Department = &d
	return s, nil
}

func scanSubject(rows pgx.Rows) (models.Subject, error) {
	var s models.Subject
	err := rows.Scan(subjectDests(&s)...)
	return s, err
}

// SubjectListQueries builds the count and page queries for f.
func SubjectListQueries(f SubjectFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.
		add(SearchCondition(f.Search, "s.name", "s.code")).
		add(eqIfSet("s.department_id", f.DepartmentID))
	count = conds.apply(psql().Select("COUNT(*)").From("subjects s"))
	list = conds.apply(selectSubjectsWithDepartment()).OrderBy("s.created_at DESC", "s.id DESC")
	return count, list
}

// List returns one page of subjects, each with its department.
func (r *SubjectRepository) List(ctx context.Context, f SubjectFilter) ([]models.Subject, dto.PaginationInfo, error) {
	count, list := SubjectListQueries(f)
	items := make([]models.Subject, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		s, err := scanSubjectWithDepartment(rows)
		if err != nil {
			return err
		}
		items = append(items, s)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing subjects: %w", err)
	}
	return items, info, nil
}

func (r *SubjectRepository) collect(ctx context.Context, b squirrel.SelectBuilder) ([]models.Subject, error) {
	items := make([]models.Subject, 0)
	err := queryAll(ctx, r.db.Conn(ctx), b, func(rows pgx.Rows) error {
		s, err := scanSubject(rows)
		if err != nil {
			return err
		}
		items = append(items, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	return items, nil
}

// All returns every subject ordered by name, for lookups.
func (r *SubjectRepository) All(ctx context.Context) ([]models.Subject, error) {
	return r.collect(ctx, selectSubjects().OrderBy("s.name ASC"))
}

// ForTeacher returns the subjects assigned to userID, ordered by name.
func (r *SubjectRepository) ForTeacher(ctx context.Context, userID int64) ([]models.Subject, error) {
	return r.collect(ctx, selectSubjects().
		Join("subject_teacher st ON st.subject_id = s.id").
		Where(squirrel.Eq{"st.user_id": userID}).
		OrderBy("s.name ASC"))
}

// ForStudent returns the subjects studentID is enrolled in, ordered by name.
func (r *SubjectRepository) ForStudent(ctx context.Context, studentID int64) ([]models.Subject, error) {
	return r.collect(ctx, selectSubjects().
		Join("subject_student ss ON ss.subject_id = s.id").
		Where(squirrel.Eq{"ss.student_id": studentID}).
		OrderBy("s.name ASC"))
}

// GetByID retrieves a subject with its department.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	sqlStr, args, err := selectSubjectsWithDepartment().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	s, err := scanSubjectWithDepartment(r.db.Conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error retrieving subject: %w", err)
	}
	return &s, nil
}

// Teachers returns the users assigned to subjectID, each with its department.
func (r *SubjectRepository) Teachers(ctx context.Context, subjectID int64) ([]models.User, error) {
	b := selectUsersWithDepartment().
		Join("subject_teacher st ON st.user_id = u.id").
		Where(squirrel.Eq{"st.subject_id": subjectID}).
		OrderBy("u.name ASC")
	return collectUsers(ctx, r.db.Conn(ctx), b)
}

// Students returns the students enrolled in subjectID with department and group.
func (r *SubjectRepository) Students(ctx context.Context, subjectID int64) ([]models.Student, error) {
	b := selectStudentsWithRelations().
		Join("subject_student ss ON ss.student_id = st.id").
		Where(squirrel.Eq{"ss.subject_id": subjectID}).
		OrderBy("st.registration_number ASC")
	return collectStudents(ctx, r.db.Conn(ctx), b)
}

// Exists reports whether a subject with id exists.
func (r *SubjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db.Conn(ctx), "subjects", squirrel.Eq{"id": id})
}

// MissingIDs returns the ids among ids that name no subject.
func (r *SubjectRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db.Conn(ctx), "subjects", ids)
}

// CodeTaken reports whether code is used by a subject other than exceptID.
func (r *SubjectRepository) CodeTaken(ctx context.Context, code string, exceptID int64) (bool, error) {
	return valueTaken(ctx, r.db.Conn(ctx), "subjects", "code", code, exceptID)
}

// IsTeacherAssigned reports whether userID teaches subjectID.
func (r *SubjectRepository) IsTeacherAssigned(ctx context.Context, userID, subjectID int64) (bool, error) {
	return exists(ctx, r.db.Conn(ctx), "subject_teacher", squirrel.Eq{"user_id": userID, "subject_id": subjectID})
}

// Create creates a new subject
func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	b := psql().Insert("subjects").
		Columns("name", "code", "department_id", "description").
		Values(s.Name, s.Code, s.DepartmentID, s.Description).
		Suffix("RETURNING id, created_at, updated_at")
	return insertReturning(ctx, r.db.Conn(ctx), b, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update updates an existing subject
func (r *SubjectRepository) Update(ctx context.Context, s *models.Subject) error {
	b := psql().Update("subjects").
		Set("name", s.Name).
		Set("code", s.Code).
		Set("department_id", s.DepartmentID).
		Set("description", s.Description).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING created_at, updated_at")
	return updateReturning(ctx, r.db.Conn(ctx), b, apperrors.ErrSubjectNotFound, &s.CreatedAt, &s.UpdatedAt)
}

// Delete deletes a subject by ID
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db.Conn(ctx), psql().Delete("subjects").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting subject: %w", err)
	}
	if n == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}
