package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/schoolroll/internal/app/models"
)

// StudentRequest is the create/update payload for a student. SubjectIDs is
// the full enrollment set; on update it replaces the current one.
type StudentRequest struct {
	RegistrationNumber string  `json:"registration_number" validate:"required,max=20"`
	FirstName          string  `json:"first_name" validate:"required,max=100"`
	LastName           string  `json:"last_name" validate:"required,max=100"`
	Email              string  `json:"email" validate:"required,email,max=255"`
	IsFirstYear        *bool   `json:"is_first_year" validate:"required"`
	DepartmentID       int64   `json:"department_id" validate:"required,gt=0"`
	StudentGroupID     int64   `json:"student_group_id" validate:"required,gt=0"`
	SubjectIDs         []int64 `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

// StudentResponse represents a student. Relation fields are nil unless loaded.
type StudentResponse struct {
	ID                 int64                      `json:"id"`
	RegistrationNumber string                     `json:"registration_number"`
	FirstName          string                     `json:"first_name"`
	LastName           string                     `json:"last_name"`
	FullName           string                     `json:"full_name"`
	IsFirstYear        bool                       `json:"is_first_year"`
	StudentGroupID     int64                      `json:"student_group_id"`
	DepartmentID       int64                      `json:"department_id"`
	Email              string                     `json:"email"`
	Department         *DepartmentResponse        `json:"department,omitempty"`
	StudentGroup       *StudentGroupResponse      `json:"student_group,omitempty"`
	Subjects           *[]SubjectResponse         `json:"subjects,omitempty"`
	SubjectIDs         *[]int64                   `json:"subject_ids,omitempty"`
	Attendances        *[]AttendanceResponse      `json:"attendances,omitempty"`
	AttendanceSummary  *AttendanceSummaryResponse `json:"attendance_summary,omitempty"`
	CreatedAt          string                     `json:"created_at"`
	UpdatedAt          string                     `json:"updated_at"`
}

// AttendanceSummaryResponse aggregates a student's marks. Rate is the present
// percentage rounded to two decimals.
type AttendanceSummaryResponse struct {
	Total   int64           `json:"total"`
	Present int64           `json:"present"`
	Absent  int64           `json:"absent"`
	Rate    decimal.Decimal `json:"rate"`
}

// StudentDetail is a student with every relation the detail view shows.
type StudentDetail struct {
	Student     models.Student
	Subjects    []models.Subject
	Attendances []models.Attendance
	Totals      models.AttendanceTotals
}

func NewStudentResponse(s models.Student) StudentResponse {
	resp := StudentResponse{
		ID:                 s.ID,
		RegistrationNumber: s.RegistrationNumber,
		FirstName:          s.FirstName,
		LastName:           s.LastName,
		FullName:           s.FullName(),
		IsFirstYear:        s.IsFirstYear,
		StudentGroupID:     s.StudentGroupID,
		DepartmentID:       s.DepartmentID,
		Email:              s.Email,
		CreatedAt:          formatTimestamp(s.CreatedAt),
		UpdatedAt:          formatTimestamp(s.UpdatedAt),
	}
	if s.Department != nil {
		dep := NewDepartmentResponse(*s.Department)
		resp.Department = &dep
	}
	if s.StudentGroup != nil {
		group := NewStudentGroupResponse(*s.StudentGroup)
		resp.StudentGroup = &group
	}
	return resp
}

func NewStudentDetailResponse(d StudentDetail) StudentResponse {
	resp := NewStudentResponse(d.Student)

	subjects := NewSubjectResponses(d.Subjects)
	resp.Subjects = &subjects

	ids := make([]int64, 0, len(d.Subjects))
	for _, s := range d.Subjects {
		ids = append(ids, s.ID)
	}
	resp.SubjectIDs = &ids

	attendances := NewAttendanceResponses(d.Attendances)
	resp.Attendances = &attendances

	summary := NewAttendanceSummary(d.Totals)
	resp.AttendanceSummary = &summary
	return resp
}

func NewAttendanceSummary(t models.AttendanceTotals) AttendanceSummaryResponse {
	rate := decimal.Zero
	if t.Total > 0 {
		rate = decimal.NewFromInt(t.Present).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(t.Total)).
			Round(2)
	}
	return AttendanceSummaryResponse{
		Total:   t.Total,
		Present: t.Present,
		Absent:  t.Total - t.Present,
		Rate:    rate,
	}
}

func NewStudentResponses(items []models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(items))
	for _, s := range items {
		out = append(out, NewStudentResponse(s))
	}
	return out
}
