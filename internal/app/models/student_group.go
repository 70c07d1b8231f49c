package models

import "time"

// StudentGroup is a class/cohort of students inside a department.
type StudentGroup struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	DepartmentID int64     `db:"department_id"`
	YearLevel    *int      `db:"year_level"`
	Section      *string   `db:"section"`
	Description  *string   `db:"description"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	Department    *Department `db:"-"`
	StudentsCount *int64      `db:"-"`
}
