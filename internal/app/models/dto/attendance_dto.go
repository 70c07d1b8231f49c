package dto

import "github.com/yigit/schoolroll/internal/app/models"

// RecordAttendanceRequest marks a batch of students for one subject and day.
type RecordAttendanceRequest struct {
	SubjectID   int64                   `json:"subject_id" validate:"required,gt=0"`
	Date        string                  `json:"date" validate:"required,datetime=2006-01-02"`
	MarkedBy    int64                   `json:"marked_by" validate:"required,gt=0"`
	Attendances []AttendanceMarkRequest `json:"attendances" validate:"required,min=1,dive"`
}

// AttendanceMarkRequest is one student's mark inside a batch.
type AttendanceMarkRequest struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	IsPresent *bool   `json:"is_present" validate:"required"`
	Remarks   *string `json:"remarks" validate:"omitempty,max=500"`
}

// RecordAttendanceResponse reports how many marks were written.
type RecordAttendanceResponse struct {
	Recorded  int    `json:"recorded"`
	SubjectID int64  `json:"subject_id"`
	Date      string `json:"date"`
}

// RosterRequest selects the roster-with-status of a subject on a day.
type RosterRequest struct {
	SubjectID int64  `form:"subject_id" json:"subject_id" validate:"required,gt=0"`
	Date      string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// RosterStudentResponse is one enrolled student; AttendanceStatus is null
// until the student has been marked for the day.
type RosterStudentResponse struct {
	ID                 int64  `json:"id"`
	RegistrationNumber string `json:"registration_number"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	FullName           string `json:"full_name"`
	AttendanceStatus   *bool  `json:"attendance_status"`
}

// RosterResponse wraps the roster list.
type RosterResponse struct {
	Students []RosterStudentResponse `json:"students"`
}

// AttendanceResponse represents one attendance mark.
type AttendanceResponse struct {
	ID           int64            `json:"id"`
	StudentID    int64            `json:"student_id"`
	SubjectID    int64            `json:"subject_id"`
	Date         string           `json:"date"`
	IsPresent    bool             `json:"is_present"`
	MarkedBy     int64            `json:"marked_by"`
	Remarks      *string          `json:"remarks"`
	Student      *StudentResponse `json:"student,omitempty"`
	Subject      *SubjectResponse `json:"subject,omitempty"`
	MarkedByUser *UserSummary     `json:"marked_by_user,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// AttendanceListParams echoes the effective attendance filters.
type AttendanceListParams struct {
	Search       string `json:"search,omitempty"`
	SubjectID    *int64 `json:"subject_id,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	IsPresent    *bool  `json:"is_present,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Page         int    `json:"page"`
	PerPage      int    `json:"per_page"`
}

// AttendanceFormResponse is the context for the marking form. Teachers is
// null for a teacher, who may only mark as themself.
type AttendanceFormResponse struct {
	Subjects   []SubjectSummary `json:"subjects"`
	Teachers   *[]UserSummary   `json:"teachers"`
	AuthUserID int64            `json:"auth_user_id"`
	UserRole   models.Role      `json:"user_role"`
}

func NewAttendanceResponse(a models.Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:        a.ID,
		StudentID: a.StudentID,
		SubjectID: a.SubjectID,
		Date:      a.Date.Format(DateLayout),
		IsPresent: a.IsPresent,
		MarkedBy:  a.MarkedBy,
		Remarks:   a.Remarks,
		CreatedAt: formatTimestamp(a.CreatedAt),
		UpdatedAt: formatTimestamp(a.UpdatedAt),
	}
	if a.Student != nil {
		student := NewStudentResponse(*a.Student)
		resp.Student = &student
	}
	if a.Subject != nil {
		subject := NewSubjectResponse(*a.Subject)
		resp.Subject = &subject
	}
	if a.MarkedByUser != nil {
		resp.MarkedByUser = &UserSummary{ID: a.MarkedByUser.ID, Name: a.MarkedByUser.Name}
	}
	return resp
}

func NewAttendanceResponses(items []models.Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewAttendanceResponse(a))
	}
	return out
}

func NewRosterResponse(entries []models.RosterEntry) RosterResponse {
	students := make([]RosterStudentResponse, 0, len(entries))
	for _, e := range entries {
		students = append(students, RosterStudentResponse{
			ID:                 e.Student.ID,
			RegistrationNumber: e.Student.RegistrationNumber,
			FirstName:          e.Student.FirstName,
			LastName:           e.Student.LastName,
			FullName:           e.Student.FullName(),
			AttendanceStatus:   e.Status,
		})
	}
	return RosterResponse{Students: students}
}
