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

// StudentGroupFilter narrows the student group listing.
type StudentGroupFilter struct {
	ListParams
	DepartmentID *int64
}

// StudentGroupRepository handles database operations for student groups
type StudentGroupRepository struct {
	db *db.PostgresDB
}

// NewStudentGroupRepository creates a new student group repository
func NewStudentGroupRepository(database *db.PostgresDB) *StudentGroupRepository {
	return &StudentGroupRepository{db: database}
}

const studentsCountColumn = "(SELECT COUNT(*) FROM students c WHERE c.student_group_id = sg.id) AS students_count"

func selectStudentGroupsWithDepartment() squirrel.SelectBuilder {
	cols := append(prefixed("sg", studentGroupColumns), prefixed("d", departmentColumns)...)
	return psql().Select(cols...).Column(studentsCountColumn).
		From("student_groups sg").
		Join("departments d ON d.id = sg.department_id")
}

func scanStudentGroup(row pgx.Row) (models.StudentGroup, error) {
	var g models.StudentGroup
	var d models.Department
	var count int64
	dests := append(studentGroupDests(&g), departmentDests(&d)...)
	if err := row.Scan(append(dests, &count)...); err != nil {
		return g, err
	}
	g.Department = &d
	g.StudentsCount = &count
	return g, nil
}

// StudentGroupListQueries builds the count and page queries for f.
func StudentGroupListQueries(f StudentGroupFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.
		add(SearchCondition(f.Search, "sg.name", "sg.description", "CAST(sg.year_level AS TEXT)", "sg.section")).
		add(eqIfSet("sg.department_id", f.DepartmentID))
	count = conds.apply(psql().Select("COUNT(*)").From("student_groups sg"))
	list = conds.apply(selectStudentGroupsWithDepartment()).OrderBy("sg.created_at DESC", "sg.id DESC")
	return count, list
}

// List returns one page of groups with department and students_count.
func (r *StudentGroupRepository) List(ctx context.Context, f StudentGroupFilter) ([]models.StudentGroup, dto.PaginationInfo, error) {
	count, list := StudentGroupListQueries(f)
	items := make([]models.StudentGroup, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		g, err := scanStudentGroup(rows)
		if err != nil {
			return err
		}
		items = append(items, g)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing student groups: %w", err)
	}
	return items, info, nil
}

// All returns every group ordered by name, for lookups.
func (r *StudentGroupRepository) All(ctx context.Context) ([]models.StudentGroup, error) {
	items := make([]models.StudentGroup, 0)
	b := psql().Select(prefixed("sg", studentGroupColumns)...).From("student_groups sg").OrderBy("sg.name ASC")
	err := queryAll(ctx, r.db.Conn(ctx), b, func(rows pgx.Rows) error {
		var g models.StudentGroup
		if err := rows.Scan(studentGroupDests(&g)...); err != nil {
			return err
		}
		items = append(items, g)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving student groups: %w", err)
	}
	return items, nil
}

// GetByID retrieves a group with its department and students_count.
func (r *StudentGroupRepository) GetByID(ctx context.Context, id int64) (*models.StudentGroup, error) {
	sqlStr, args, err := selectStudentGroupsWithDepartment().Where(squirrel.Eq{"sg.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	g, err := scanStudentGroup(r.db.Conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrStudentGroupNotFound
		}
		return nil, fmt.Errorf("error retrieving student group: %w", err)
	}
	return &g, nil
}

// Students returns the members of groupID ordered by registration number.
func (r *StudentGroupRepository) Students(ctx context.Context, groupID int64) ([]models.Student, error) {
	b := selectStudentsWithRelations().
		Where(squirrel.Eq{"st.student_group_id": groupID}).
		OrderBy("st.registration_number ASC")
	return collectStudents(ctx, r.db.Conn(ctx), b)
}

// Exists reports whether a group with id exists.
func (r *StudentGroupRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db.Conn(ctx), "student_groups", squirrel.Eq{"id": id})
}

// Create creates a new student group
func (r *StudentGroupRepository) Create(ctx context.Context, g *models.StudentGroup) error {
	b := psql().Insert("student_groups").
		Columns("name", "department_id", "year_level", "section", "description").
		Values(g.Name, g.DepartmentID, g.YearLevel, g.Section, g.Description).
		Suffix("RETURNING id, created_at, updated_at")
	return insertReturning(ctx, r.db.Conn(ctx), b, &g.ID, &g.CreatedAt, &g.UpdatedAt)
}

// Update updates an existing student group
func (r *StudentGroupRepository) Update(ctx context.Context, g *models.StudentGroup) error {
	b := psql().Update("student_groups").
		Set("name", g.Name).
		Set("department_id", g.DepartmentID).
		Set("year_level", g.YearLevel).
		Set("section", g.Section).
		Set("description", g.Description).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": g.ID}).
		Suffix("RETURNING created_at, updated_at")
	return updateReturning(ctx, r.db.Conn(ctx), b, apperrors.ErrStudentGroupNotFound, &g.CreatedAt, &g.UpdatedAt)
}

// Delete deletes a student group by ID
func (r *StudentGroupRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db.Conn(ctx), psql().Delete("student_groups").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting student group: %w", err)
	}
	if n == 0 {
		return apperrors.ErrStudentGroupNotFound
	}
	return nil
}
