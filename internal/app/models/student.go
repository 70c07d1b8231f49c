package models

import "time"

// Student is an enrolled learner. Enrollment in subjects lives in subject_student.
type Student struct {
	ID                 int64     `db:"id"`
	RegistrationNumber string    `db:"registration_number"`
	FirstName          string    `db:"first_name"`
	LastName           string    `db:"last_name"`
	Email              string    `db:"email"`
	IsFirstYear        bool      `db:"is_first_year"`
	DepartmentID       int64     `db:"department_id"`
	StudentGroupID     int64     `db:"student_group_id"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`

	Department   *Department   `db:"-"`
	StudentGroup *StudentGroup `db:"-"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Enrollment is a row of the subject_student pivot.
type Enrollment struct {
	SubjectID      int64
	StudentID      int64
	EnrollmentDate time.Time
}
