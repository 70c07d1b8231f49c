package dto

import "github.com/yigit/schoolroll/internal/app/models"

// SubjectRequest is the create/update payload for a subject.
type SubjectRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Code         string  `json:"code" validate:"required,max=20"`
	DepartmentID int64   `json:"department_id" validate:"required,gt=0"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

// SubjectResponse represents a subject. Relation fields are nil unless loaded.
type SubjectResponse struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Code         string             `json:"code"`
	DepartmentID int64              `json:"department_id"`
	Description  *string            `json:"description"`
	Department   *DepartmentSummary `json:"department,omitempty"`
	Teachers     *[]UserResponse    `json:"teachers,omitempty"`
	Students     *[]StudentResponse `json:"students,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

// SubjectSummary is the compact form used in lookups.
type SubjectSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	DepartmentID int64  `json:"department_id"`
}

// SubjectDetail is a subject with its teaching staff and enrolled students.
type SubjectDetail struct {
	Subject  models.Subject
	Teachers []models.User
	Students []models.Student
}

func NewSubjectResponse(s models.Subject) SubjectResponse {
	resp := SubjectResponse{
		ID:           s.ID,
		Name:         s.Name,
		Code:         s.Code,
		DepartmentID: s.DepartmentID,
		Description:  s.Description,
		CreatedAt:    formatTimestamp(s.CreatedAt),
		UpdatedAt:    formatTimestamp(s.UpdatedAt),
	}
	if s.Department != nil {
		dep := NewDepartmentSummary(*s.Department)
		resp.Department = &dep
	}
	return resp
}

func NewSubjectDetailResponse(d SubjectDetail) SubjectResponse {
	resp := NewSubjectResponse(d.Subject)
	teachers := NewUserResponses(d.Teachers)
	students := NewStudentResponses(d.Students)
	resp.Teachers = &teachers
	resp.Students = &students
	return resp
}

func NewSubjectResponses(items []models.Subject) []SubjectResponse {
	out := make([]SubjectResponse, 0, len(items))
	for _, s := range items {
		out = append(out, NewSubjectResponse(s))
	}
	return out
}

func NewSubjectSummaries(items []models.Subject) []SubjectSummary {
	out := make([]SubjectSummary, 0, len(items))
	for _, s := range items {
		out = append(out, SubjectSummary{ID: s.ID, Name: s.Name, Code: s.Code, DepartmentID: s.DepartmentID})
	}
	return out
}
