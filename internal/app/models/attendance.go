package models

import "time"

// AttendanceKey is the natural key of an attendance mark: one row per
// student, subject and calendar day.
type AttendanceKey struct {
	StudentID int64
	SubjectID int64
	Date      time.Time
}

// Attendance is a single present/absent mark.
type Attendance struct {
	ID        int64     `db:"id"`
	StudentID int64     `db:"student_id"`
	SubjectID int64     `db:"subject_id"`
	Date      time.Time `db:"date"`
	IsPresent bool      `db:"is_present"`
	MarkedBy  int64     `db:"marked_by"`
	Remarks   *string   `db:"remarks"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Student      *Student `db:"-"`
	Subject      *Subject `db:"-"`
	MarkedByUser *User    `db:"-"`
}

// Key returns the attendance's natural key.
func (a Attendance) Key() AttendanceKey {
	return AttendanceKey{StudentID: a.StudentID, SubjectID: a.SubjectID, Date: a.Date}
}

// RosterEntry is an enrolled student with the mark recorded for a given day,
// or nil when the student has not been marked yet.
type RosterEntry struct {
	Student Student
	Status  *bool
}

// AttendanceTotals counts a student's marks.
type AttendanceTotals struct {
	Total   int64
	Present int64
}
