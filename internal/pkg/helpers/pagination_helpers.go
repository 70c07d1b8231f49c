package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // 1-based
)

// PageRequest is the page/per_page pair taken from a listing request.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize replaces out-of-range values with defaults. A per_page above
// maxPerPage is capped rather than reset.
func (p PageRequest) Normalize(defaultPerPage, maxPerPage int) PageRequest {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPageSize
	}
	if maxPerPage <= 0 {
		maxPerPage = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	p.Page = clampPage(p.Page, p.PerPage)
	return p
}

// clampPage caps page so that (page-1)*size cannot overflow an int. Such a
// page is far past any real result and simply comes back empty.
func clampPage(page, size int) int {
	if maxPage := math.MaxInt / size; page > maxPage {
		return maxPage
	}
	return page
}

// CalculateOffsetLimit calculates the offset and limit for SQL queries based on 1-based page index.
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}
	page = clampPage(page, size)
	return uint64(page-1) * uint64(size), uint64(size)
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// An empty result still reports one (empty) page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := 1
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PerPage:     size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams extracts page and per_page from the query string.
// Invalid numbers fall back to the defaults.
func ParsePaginationParams(c *gin.Context, defaultPerPage, maxPerPage int) PageRequest {
	var p PageRequest
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = page
	}
	if perPage, err := strconv.Atoi(c.Query("per_page")); err == nil {
		p.PerPage = perPage
	}
	return p.Normalize(defaultPerPage, maxPerPage)
}
