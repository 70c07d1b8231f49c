package models

import "time"

// Subject is a course taught within a department.
type Subject struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Code         string    `db:"code"`
	DepartmentID int64     `db:"department_id"`
	Description  *string   `db:"description"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	// Department is set only when the query joined it.
	Department *Department `db:"-"`
}
