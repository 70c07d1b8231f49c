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

// DepartmentFilter narrows the department listing.
type DepartmentFilter struct {
	ListParams
}

// DepartmentRepository handles database operations for departments
type DepartmentRepository struct {
	db *db.PostgresDB
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(database *db.PostgresDB) *DepartmentRepository {
	return &DepartmentRepository{db: database}
}

func selectDepartments() squirrel.SelectBuilder {
	return psql().Select(prefixed("d", departmentColumns)...).From("departments d")
}

// DepartmentListQueries builds the count and page queries for f.
func DepartmentListQueries(f DepartmentFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.add(SearchCondition(f.Search, "d.name", "d.code"))
	count = conds.apply(psql().Select("COUNT(*)").From("departments d"))
	list = conds.apply(selectDepartments()).OrderBy("d.created_at DESC", "d.id DESC")
	return count, list
}

// List returns one page of departments matching f.
func (r *DepartmentRepository) List(ctx context.Context, f DepartmentFilter) ([]models.Department, dto.PaginationInfo, error) {
	count, list := DepartmentListQueries(f)
	items := make([]models.Department, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		var d models.Department
		if err := rows.Scan(departmentDests(&d)...); err != nil {
			return err
		}
		items = append(items, d)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing departments: %w", err)
	}
	return items, info, nil
}

// All returns every department ordered by name, for lookups.
func (r *DepartmentRepository) All(ctx context.Context) ([]models.Department, error) {
	items := make([]models.Department, 0)
	err := queryAll(ctx, r.db.Conn(ctx), selectDepartments().OrderBy("d.name ASC"), func(rows pgx.Rows) error {
		var d models.Department
		if err := rows.Scan(departmentDests(&d)...); err != nil {
			return err
		}
		items = append(items, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving departments: %w", err)
	}
	return items, nil
}

// GetByID retrieves a department by ID
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	var d models.Department
	err := queryOne(ctx, r.db.Conn(ctx), selectDepartments().Where(squirrel.Eq{"d.id": id}),
		apperrors.ErrDepartmentNotFound, departmentDests(&d)...)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Exists reports whether a department with id exists.
func (r *DepartmentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db.Conn(ctx), "departments", squirrel.Eq{"id": id})
}

// CodeTaken reports whether code is used by a department other than exceptID.
func (r *DepartmentRepository) CodeTaken(ctx context.Context, code string, exceptID int64) (bool, error) {
	return valueTaken(ctx, r.db.Conn(ctx), "departments", "code", code, exceptID)
}

// Create creates a new department
func (r *DepartmentRepository) Create(ctx context.Context, d *models.Department) error {
	b := psql().Insert("departments").
		Columns("name", "code", "description").
		Values(d.Name, d.Code, d.Description).
		Suffix("RETURNING id, created_at, updated_at")
	return insertReturning(ctx, r.db.Conn(ctx), b, &d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// Update updates an existing department
func (r *DepartmentRepository) Update(ctx context.Context, d *models.Department) error {
	b := psql().Update("departments").
		Set("name", d.Name).
		Set("code", d.Code).
		Set("description", d.Description).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": d.ID}).
		Suffix("RETURNING created_at, updated_at")
	return updateReturning(ctx, r.db.Conn(ctx), b, apperrors.ErrDepartmentNotFound, &d.CreatedAt, &d.UpdatedAt)
}

// Delete deletes a department by ID. Dependent rows go with it.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db.Conn(ctx), psql().Delete("departments").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting department: %w", err)
	}
	if n == 0 {
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}
