package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

// Paging holds the listing page-size limits from configuration.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultPaging matches the configuration defaults.
var DefaultPaging = Paging{DefaultPerPage: helpers.DefaultPageSize, MaxPerPage: helpers.MaxPageSize}

func (p Paging) listParams(c *gin.Context) repositories.ListParams {
	page := helpers.ParsePaginationParams(c, p.DefaultPerPage, p.MaxPerPage)
	return repositories.ListParams{
		Search:  strings.TrimSpace(c.Query("search")),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
}

// queryFilters collects optional query-string filters. Values that do not
// parse are recorded as field errors instead of being ignored.
type queryFilters struct {
	c    *gin.Context
	verr *apperrors.ValidationError
}

func newQueryFilters(c *gin.Context) *queryFilters {
	return &queryFilters{c: c, verr: apperrors.NewValidationError()}
}

func (q *queryFilters) id(name string) *int64 {
	raw := strings.TrimSpace(q.c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.verr.Add(name, fmt.Sprintf(validation.MsgInvalidInteger, name))
		return nil
	}
	return &v
}

func (q *queryFilters) flag(name string) *bool {
	raw := strings.TrimSpace(q.c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := helpers.ParseBoolParam(raw)
	if err != nil {
		q.verr.Add(name, fmt.Sprintf(validation.MsgInvalidBoolean, name))
		return nil
	}
	return &v
}

func (q *queryFilters) err() error {
	return q.verr.OrNil()
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.NewDataResponse(data))
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
