package models

import "time"

// Department is the root aggregate owning subjects, groups, students and teachers.
type Department struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Code        string    `db:"code"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
