package dto

import "time"

const (
	// TimestampLayout renders created_at/updated_at.
	TimestampLayout = "2006-01-02 15:04"
	// DateLayout renders calendar dates.
	DateLayout = "2006-01-02"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// PaginationInfo is the page metadata returned with every listing.
type PaginationInfo struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
}

// PaginatedResponse represents a paginated list with metadata. Lookups carries
// the option lists a filter form needs; Params echoes the effective filters.
type PaginatedResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
	Lookups    *Lookups       `json:"lookups,omitempty"`
	Params     interface{}    `json:"params,omitempty"`
}

// Lookups are the option lists for filter and edit forms. A nil field was
// not requested.
type Lookups struct {
	Departments   *[]DepartmentSummary   `json:"departments,omitempty"`
	StudentGroups *[]StudentGroupSummary `json:"student_groups,omitempty"`
	Subjects      *[]SubjectSummary      `json:"subjects,omitempty"`
	Teachers      *[]UserSummary         `json:"teachers,omitempty"`
	Roles         []string               `json:"roles,omitempty"`
}

// MessageResponse is returned by operations that have nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}
