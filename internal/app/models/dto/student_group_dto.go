package dto

import "github.com/yigit/schoolroll/internal/app/models"

// StudentGroupRequest is the create/update payload for a student group.
type StudentGroupRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	DepartmentID int64   `json:"department_id" validate:"required,gt=0"`
	YearLevel    *int    `json:"year_level" validate:"omitempty,min=1,max=10"`
	Section      *string `json:"section" validate:"omitempty,max=20"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
}

// StudentGroupResponse represents a student group.
type StudentGroupResponse struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	DepartmentID  int64              `json:"department_id"`
	Department    *DepartmentSummary `json:"department,omitempty"`
	YearLevel     *int               `json:"year_level"`
	Section       *string            `json:"section"`
	Description   *string            `json:"description"`
	StudentsCount *int64             `json:"students_count,omitempty"`
	Students      *[]StudentResponse `json:"students,omitempty"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

// StudentGroupSummary is the compact form used in lookups.
type StudentGroupSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
}

// StudentGroupDetail is a group with its students.
type StudentGroupDetail struct {
	Group    models.StudentGroup
	Students []models.Student
}

func NewStudentGroupResponse(g models.StudentGroup) StudentGroupResponse {
	resp := StudentGroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		DepartmentID:  g.DepartmentID,
		YearLevel:     g.YearLevel,
		Section:       g.Section,
		Description:   g.Description,
		StudentsCount: g.StudentsCount,
		CreatedAt:     formatTimestamp(g.CreatedAt),
		UpdatedAt:     formatTimestamp(g.UpdatedAt),
	}
	if g.Department != nil {
		dep := NewDepartmentSummary(*g.Department)
		resp.Department = &dep
	}
	return resp
}

func NewStudentGroupDetailResponse(d StudentGroupDetail) StudentGroupResponse {
	resp := NewStudentGroupResponse(d.Group)
	students := NewStudentResponses(d.Students)
	resp.Students = &students
	return resp
}

func NewStudentGroupResponses(items []models.StudentGroup) []StudentGroupResponse {
	out := make([]StudentGroupResponse, 0, len(items))
	for _, g := range items {
		out = append(out, NewStudentGroupResponse(g))
	}
	return out
}

func NewStudentGroupSummaries(items []models.StudentGroup) []StudentGroupSummary {
	out := make([]StudentGroupSummary, 0, len(items))
	for _, g := range items {
		out = append(out, StudentGroupSummary{ID: g.ID, Name: g.Name, DepartmentID: g.DepartmentID})
	}
	return out
}
