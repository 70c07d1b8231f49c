package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/dberrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/logger"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// ListParams are the options every listing accepts.
type ListParams struct {
	Search  string
	Page    int
	PerPage int
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SearchCondition matches every whitespace-separated term of search against
// at least one of fields, case-insensitively and literally. It returns nil
// when search has no terms.
func SearchCondition(search string, fields ...string) squirrel.Sqlizer {
	terms := helpers.SplitSearchTerms(search)
	if len(terms) == 0 || len(fields) == 0 {
		return nil
	}

	all := make(squirrel.And, 0, len(terms))
	for _, term := range terms {
		pattern := helpers.ContainsPattern(term)
		either := make(squirrel.Or, 0, len(fields))
		for _, field := range fields {
			either = append(either, squirrel.ILike{field: pattern})
		}
		all = append(all, either)
	}
	return all
}

// DateRangeCondition bounds column to [from, to]; either side may be nil.
func DateRangeCondition(column string, from, to *time.Time) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if from != nil {
		conds = append(conds, squirrel.GtOrEq{column: helpers.DateOnly(*from)})
	}
	if to != nil {
		conds = append(conds, squirrel.LtOrEq{column: helpers.DateOnly(*to)})
	}
	return conds
}

// conditions collects optional WHERE predicates; nil entries are dropped.
type conditions []squirrel.Sqlizer

func (c conditions) add(cond squirrel.Sqlizer) conditions {
	if cond == nil {
		return c
	}
	return append(c, cond)
}

func (c conditions) apply(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, cond := range c {
		b = b.Where(cond)
	}
	return b
}

func eqIfSet[T any](column string, v *T) squirrel.Sqlizer {
	if v == nil {
		return nil
	}
	return squirrel.Eq{column: *v}
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

// paginate counts with countQuery, then hands the LIMIT/OFFSET-bound
// selectQuery to scan. Empty results skip the second round trip.
func paginate(ctx context.Context, q db.DBTX, countQuery, selectQuery squirrel.SelectBuilder, params ListParams, scan func(pgx.Rows) error) (dto.PaginationInfo, error) {
	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return dto.PaginationInfo{}, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Error executing count query")
		return dto.PaginationInfo{}, err
	}

	info := helpers.NewPaginationInfo(total, params.Page, params.PerPage)
	if total == 0 {
		return info, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(info.CurrentPage, info.PerPage)
	sqlStr, args, err := selectQuery.Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return dto.PaginationInfo{}, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Error executing list query")
		return dto.PaginationInfo{}, err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return dto.PaginationInfo{}, fmt.Errorf("failed to scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return dto.PaginationInfo{}, fmt.Errorf("database iteration error: %w", err)
	}
	return info, nil
}

// queryAll runs b and scans every row.
func queryAll(ctx context.Context, q db.DBTX, b squirrel.SelectBuilder, scan func(pgx.Rows) error) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("sql", sqlStr).Msg("Error executing query")
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}
	return rows.Err()
}

// queryOne runs b and scans its single row; pgx.ErrNoRows becomes notFound.
func queryOne(ctx context.Context, q db.DBTX, b squirrel.SelectBuilder, notFound error, dest ...any) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		logger.FromContext(ctx).Error().Err(err).Str("sql", sqlStr).Msg("Error executing query")
		return err
	}
	return nil
}

// exec runs a write statement and returns the affected row count.
func exec(ctx context.Context, q db.DBTX, b squirrel.Sqlizer) (int64, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build statement: %w", err)
	}
	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	return tag.RowsAffected(), nil
}

// ExistsQuery builds SELECT EXISTS over table filtered by where.
func ExistsQuery(table string, where squirrel.Sqlizer) squirrel.SelectBuilder {
	inner := squirrel.Select("1").From(table).Where(where)
	return psql().Select().Column(squirrel.Expr("EXISTS(?)", inner))
}

func exists(ctx context.Context, q db.DBTX, table string, where squirrel.Sqlizer) (bool, error) {
	var found bool
	if err := queryOne(ctx, q, ExistsQuery(table, where), pgx.ErrNoRows, &found); err != nil {
		return false, err
	}
	return found, nil
}

// valueTaken reports whether another row of table than exceptID already
// holds value in column. exceptID 0 checks every row.
func valueTaken(ctx context.Context, q db.DBTX, table, column string, value any, exceptID int64) (bool, error) {
	where := squirrel.And{squirrel.Eq{column: value}}
	if exceptID > 0 {
		where = append(where, squirrel.NotEq{"id": exceptID})
	}
	return exists(ctx, q, table, where)
}

// missingIDs returns the members of ids that have no row in table, in input order.
func missingIDs(ctx context.Context, q db.DBTX, table string, ids []int64) ([]int64, error) {
	ids = helpers.UniqueInt64s(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[int64]struct{}, len(ids))
	err := queryAll(ctx, q, psql().Select("id").From(table).Where(squirrel.Eq{"id": ids}), func(rows pgx.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		found[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// constraintFields maps constraint names to the request field they guard.
var constraintFields = map[string]string{
	"departments_code_key":             "code",
	"subjects_code_key":                "code",
	"students_registration_number_key": "registration_number",
	"students_email_key":               "email",
	"users_email_key":                  "email",

	"subjects_department_id_fkey":       "department_id",
	"student_groups_department_id_fkey": "department_id",
	"students_department_id_fkey":       "department_id",
	"students_student_group_id_fkey":    "student_group_id",
	"users_department_id_fkey":          "department_id",
	"subject_student_subject_id_fkey":   "subject_ids",
	"subject_teacher_subject_id_fkey":   "subject_ids",
	"attendances_subject_id_fkey":       "subject_id",
	"attendances_marked_by_fkey":        "marked_by",
	"attendances_student_id_fkey":       "attendances",
}

// mapConstraintError turns unique and foreign key violations into the field
// errors a pre-check would have produced. Unknown constraints become conflicts.
func mapConstraintError(err error) error {
	pgErr, ok := dberrors.AsPgError(err)
	if !ok {
		return err
	}

	field, known := constraintFields[pgErr.ConstraintName]
	switch pgErr.Code {
	case dberrors.UniqueViolation:
		if known {
			return apperrors.FieldError(field, validation.Taken(field))
		}
		return apperrors.NewConflictError("The resource conflicts with an existing record.")
	case dberrors.ForeignKeyViolation:
		if known {
			return apperrors.FieldError(field, validation.InvalidSelection(field))
		}
		return apperrors.NewConflictError("The resource references a record that does not exist.")
	}
	return err
}

var (
	departmentColumns   = []string{"id", "name", "code", "description", "created_at", "updated_at"}
	subjectColumns      = []string{"id", "name", "code", "department_id", "description", "created_at", "updated_at"}
	studentGroupColumns = []string{"id", "name", "department_id", "year_level", "section", "description", "created_at", "updated_at"}
	studentColumns      = []string{"id", "registration_number", "first_name", "last_name", "email", "is_first_year", "department_id", "student_group_id", "created_at", "updated_at"}
	userColumns         = []string{"id", "name", "email", "password_hash", "role", "department_id", "created_at", "updated_at"}
	attendanceColumns   = []string{"id", "student_id", "subject_id", "date", "is_present", "marked_by", "remarks", "created_at", "updated_at"}
)

func departmentDests(d *models.Department) []any {
	return []any{&d.ID, &d.Name, &d.Code, &d.Description, &d.CreatedAt, &d.UpdatedAt}
}

func subjectDests(s *models.Subject) []any {
	return []any{&s.ID, &s.Name, &s.Code, &s.DepartmentID, &s.Description, &s.CreatedAt, &s.UpdatedAt}
}

func studentGroupDests(g *models.StudentGroup) []any {
	return []any{&g.ID, &g.Name, &g.DepartmentID, &g.YearLevel, &g.Section, &g.Description, &g.CreatedAt, &g.UpdatedAt}
}

func studentDests(s *models.Student) []any {
	return []any{&s.ID, &s.RegistrationNumber, &s.FirstName, &s.LastName, &s.Email, &s.IsFirstYear,
		&s.DepartmentID, &s.StudentGroupID, &s.CreatedAt, &s.UpdatedAt}
}

func userDests(u *models.User) []any {
	return []any{&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.DepartmentID, &u.CreatedAt, &u.UpdatedAt}
}

func attendanceDests(a *models.Attendance) []any {
	return []any{&a.ID, &a.StudentID, &a.SubjectID, &a.Date, &a.IsPresent, &a.MarkedBy, &a.Remarks, &a.CreatedAt, &a.UpdatedAt}
}

// nullableDepartment receives a LEFT JOINed department.
type nullableDepartment struct {
	ID          *int64
	Name        *string
	Code        *string
	Description *string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

func (n *nullableDepartment) dests() []any {
	return []any{&n.ID, &n.Name, &n.Code, &n.Description, &n.CreatedAt, &n.UpdatedAt}
}

func (n *nullableDepartment) value() *models.Department {
	if n.ID == nil {
		return nil
	}
	d := &models.Department{ID: *n.ID, Description: n.Description}
	if n.Name != nil {
		d.Name = *n.Name
	}
	if n.Code != nil {
		d.Code = *n.Code
	}
	if n.CreatedAt != nil {
		d.CreatedAt = *n.CreatedAt
	}
	if n.UpdatedAt != nil {
		d.UpdatedAt = *n.UpdatedAt
	}
	return d
}

// insertReturning runs an INSERT ... RETURNING and scans the returned columns.
func insertReturning(ctx context.Context, q db.DBTX, b squirrel.InsertBuilder, dest ...any) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(dest...); err != nil {
		mapped := mapConstraintError(err)
		if mapped == err {
			logger.FromContext(ctx).Error().Err(err).Str("sql", sqlStr).Msg("Error executing insert")
		}
		return mapped
	}
	return nil
}

// updateReturning runs an UPDATE ... RETURNING; no matching row yields notFound.
func updateReturning(ctx context.Context, q db.DBTX, b squirrel.UpdateBuilder, notFound error, dest ...any) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		mapped := mapConstraintError(err)
		if mapped == err {
			logger.FromContext(ctx).Error().Err(err).Str("sql", sqlStr).Msg("Error executing update")
		}
		return mapped
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// pivotSpec describes a many-to-many join table keyed by owner and related ids.
type pivotSpec struct {
	table      string
	ownerCol   string
	relatedCol string
	extraCols  []string
	extraVals  []any
}

// syncPivot detaches every related id of owner not in ids and attaches the
// missing ones. Existing rows are left untouched.
func syncPivot(ctx context.Context, q db.DBTX, spec pivotSpec, owner int64, ids []int64) error {
	ids = helpers.UniqueInt64s(ids)

	del := psql().Delete(spec.table).Where(squirrel.Eq{spec.ownerCol: owner})
	if len(ids) > 0 {
		del = del.Where(squirrel.NotEq{spec.relatedCol: ids})
	}
	if _, err := exec(ctx, q, del); err != nil {
		return fmt.Errorf("error detaching %s rows: %w", spec.table, err)
	}

	if len(ids) == 0 {
		return nil
	}

	cols := append([]string{spec.ownerCol, spec.relatedCol}, spec.extraCols...)
	ins := psql().Insert(spec.table).Columns(cols...)
	for _, id := range ids {
		ins = ins.Values(append([]any{owner, id}, spec.extraVals...)...)
	}
	ins = ins.Suffix(fmt.Sprintf("ON CONFLICT (%s, %s) DO NOTHING", spec.relatedCol, spec.ownerCol))
	if _, err := exec(ctx, q, ins); err != nil {
		return fmt.Errorf("error attaching %s rows: %w", spec.table, err)
	}
	return nil
}
