package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := AsPgError(err)
	return ok && pgErr.Code == UniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports any unique violation regardless of constraint.
func IsUniqueViolation(err error) bool {
	pgErr, ok := AsPgError(err)
	return ok && pgErr.Code == UniqueViolation
}

// IsForeignKeyViolation reports any foreign key violation.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := AsPgError(err)
	return ok && pgErr.Code == ForeignKeyViolation
}

// ConstraintName returns the violated constraint, or "" when err is not a PgError.
func ConstraintName(err error) string {
	if pgErr, ok := AsPgError(err); ok {
		return pgErr.ConstraintName
	}
	return ""
}

// AsPgError unwraps err into a *pgconn.PgError.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
