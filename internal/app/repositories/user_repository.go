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

// UserFilter narrows the user listing.
type UserFilter struct {
	ListParams
	Role         *models.Role
	DepartmentID *int64
}

// UserRepository handles database operations for staff users and their
// subject_teacher assignments.
type UserRepository struct {
	db *db.PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{db: database}
}

func selectUsersWithDepartment() squirrel.SelectBuilder {
	cols := append(prefixed("u", userColumns), prefixed("d", departmentColumns)...)
	return psql().Select(cols...).
		From("users u").
		LeftJoin("departments d ON d.id = u.department_id")
}

func scanUserWithDepartment(row pgx.Row) (models.User, error) {
	var u models.User
	var d nullableDepartment
	if err := row.Scan(append(userDests(&u), d.dests()...)...); err != nil {
		return u, err
	}
	u.Department = d.value()
	return u, nil
}

func collectUsers(ctx context.Context, q db.DBTX, b squirrel.SelectBuilder) ([]models.User, error) {
	items := make([]models.User, 0)
	err := queryAll(ctx, q, b, func(rows pgx.Rows) error {
		u, err := scanUserWithDepartment(rows)
		if err != nil {
			return err
		}
		items = append(items, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving users: %w", err)
	}
	return items, nil
}

// UserListQueries builds the count and page queries for f.
func UserListQueries(f UserFilter) (count, list squirrel.SelectBuilder) {
	conds := conditions{}.
		add(SearchCondition(f.Search, "u.name", "u.email")).
		add(eqIfSet("u.role", f.Role)).
		add(eqIfSet("u.department_id", f.DepartmentID))
	count = conds.apply(psql().Select("COUNT(*)").From("users u"))
	list = conds.apply(selectUsersWithDepartment()).OrderBy("u.created_at DESC", "u.id DESC")
	return count, list
}

// List returns one page of users with their department.
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, dto.PaginationInfo, error) {
	count, list := UserListQueries(f)
	items := make([]models.User, 0)
	info, err := paginate(ctx, r.db.Conn(ctx), count, list, f.ListParams, func(rows pgx.Rows) error {
		u, err := scanUserWithDepartment(rows)
		if err != nil {
			return err
		}
		items = append(items, u)
		return nil
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("error listing users: %w", err)
	}
	return items, info, nil
}

// Teachers returns every teacher ordered by name.
func (r *UserRepository) Teachers(ctx context.Context) ([]models.User, error) {
	return collectUsers(ctx, r.db.Conn(ctx), selectUsersWithDepartment().
		Where(squirrel.Eq{"u.role": models.RoleTeacher}).
		OrderBy("u.name ASC"))
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sqlStr, args, err := selectUsersWithDepartment().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	u, err := scanUserWithDepartment(r.db.Conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user with its department.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

// GetByEmail retrieves a user by email, password hash included.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": email})
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db.Conn(ctx), "users", squirrel.Eq{"id": id})
}

// EmailTaken reports whether email belongs to a user other than exceptID.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	return valueTaken(ctx, r.db.Conn(ctx), "users", "email", email, exceptID)
}

// Create creates a new user. u.PasswordHash must already be hashed.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	b := psql().Insert("users").
		Columns("name", "email", "password_hash", "role", "department_id").
		Values(u.Name, u.Email, u.PasswordHash, u.Role, u.DepartmentID).
		Suffix("RETURNING id, created_at, updated_at")
	return insertReturning(ctx, r.db.Conn(ctx), b, &u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// Update updates an existing user. The password hash is only written when
// u.PasswordHash is non-empty.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	b := psql().Update("users").
		Set("name", u.Name).
		Set("email", u.Email).
		Set("role", u.Role).
		Set("department_id", u.DepartmentID).
		Set("updated_at", squirrel.Expr("NOW()"))
	if u.PasswordHash != "" {
		b = b.Set("password_hash", u.PasswordHash)
	}
	b = b.Where(squirrel.Eq{"id": u.ID}).Suffix("RETURNING created_at, updated_at")
	return updateReturning(ctx, r.db.Conn(ctx), b, apperrors.ErrUserNotFound, &u.CreatedAt, &u.UpdatedAt)
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db.Conn(ctx), psql().Delete("users").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// SyncSubjects makes subjectIDs the exact assignment set of userID. An empty
// list clears every assignment.
func (r *UserRepository) SyncSubjects(ctx context.Context, userID int64, subjectIDs []int64) error {
	return syncPivot(ctx, r.db.Conn(ctx), pivotSpec{
		table:      "subject_teacher",
		ownerCol:   "user_id",
		relatedCol: "subject_id",
	}, userID, subjectIDs)
}
