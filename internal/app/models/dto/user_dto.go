package dto

import "github.com/yigit/schoolroll/internal/app/models"

// UserRequest is the create/update payload for a staff user. Password is
// required on create; on update it is only changed when present.
type UserRequest struct {
	Name                 string  `json:"name" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Password             *string `json:"password" validate:"omitempty,min=8,max=255"`
	PasswordConfirmation *string `json:"password_confirmation"`
	Role                 string  `json:"role" validate:"required,oneof=teacher admin"`
	DepartmentID         *int64  `json:"department_id" validate:"omitempty,gt=0"`
	SubjectIDs           []int64 `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

// UserResponse represents a staff user. The password hash is never exposed.
type UserResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         models.Role         `json:"role"`
	DepartmentID *int64              `json:"department_id"`
	Department   *DepartmentResponse `json:"department,omitempty"`
	Subjects     *[]SubjectResponse  `json:"subjects,omitempty"`
	SubjectIDs   *[]int64            `json:"subject_ids,omitempty"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

// UserSummary is the compact form used for teacher pickers and marked_by.
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserDetail is a user with assigned subjects.
type UserDetail struct {
	User     models.User
	Subjects []models.Subject
}

func NewUserResponse(u models.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		CreatedAt:    formatTimestamp(u.CreatedAt),
		UpdatedAt:    formatTimestamp(u.UpdatedAt),
	}
	if u.Department != nil {
		dep := NewDepartmentResponse(*u.Department)
		resp.Department = &dep
	}
	return resp
}

func NewUserDetailResponse(d UserDetail) UserResponse {
	resp := NewUserResponse(d.User)
	subjects := NewSubjectResponses(d.Subjects)
	ids := make([]int64, 0, len(d.Subjects))
	for _, s := range d.Subjects {
		ids = append(ids, s.ID)
	}
	resp.Subjects = &subjects
	resp.SubjectIDs = &ids
	return resp
}

func NewUserResponses(items []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(items))
	for _, u := range items {
		out = append(out, NewUserResponse(u))
	}
	return out
}

func NewUserSummaries(items []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(items))
	for _, u := range items {
		out = append(out, UserSummary{ID: u.ID, Name: u.Name})
	}
	return out
}
