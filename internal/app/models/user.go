package models

import "time"

// User is a staff account (teacher or admin).
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	DepartmentID *int64    `db:"department_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	Department *Department `db:"-"`
}

// IsTeacher reports whether u holds the teacher role.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
