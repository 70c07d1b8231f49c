package dto

import "github.com/yigit/schoolroll/internal/app/models"

// DepartmentRequest is the create/update payload for a department.
type DepartmentRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Code        string  `json:"code" validate:"required,max=20"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// DepartmentResponse represents a department in API responses.
type DepartmentResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// DepartmentSummary is the compact form used inside other resources and lookups.
type DepartmentSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func NewDepartmentResponse(d models.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		CreatedAt:   formatTimestamp(d.CreatedAt),
		UpdatedAt:   formatTimestamp(d.UpdatedAt),
	}
}

func NewDepartmentSummary(d models.Department) DepartmentSummary {
	return DepartmentSummary{ID: d.ID, Name: d.Name, Code: d.Code}
}

func NewDepartmentResponses(items []models.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, NewDepartmentResponse(d))
	}
	return out
}

func NewDepartmentSummaries(items []models.Department) []DepartmentSummary {
	out := make([]DepartmentSummary, 0, len(items))
	for _, d := range items {
		out = append(out, NewDepartmentSummary(d))
	}
	return out
}
