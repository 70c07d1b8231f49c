package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
)

// AttendanceController handles the attendance workflow
type AttendanceController struct {
	attendanceService services.AttendanceService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService services.AttendanceService) *AttendanceController {
	return &AttendanceController{attendanceService: attendanceService}
}

// GetAttendances lists attendance marks
// @Summary List attendance
// @Description Without start_date/end_date the listing covers the last seven days
// @Tags attendances
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search student name or registration number"
// @Param subject_id query int false "Filter by subject"
// @Param department_id query int false "Filter by the student's department"
// @Param is_present query bool false "Filter by status"
// @Param start_date query string false "Inclusive start (YYYY-MM-DD)"
// @Param end_date query string false "Inclusive end (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Failure 422 {object} dto.APIResponse "Invalid filter"
// @Router /attendances [get]
func (c *AttendanceController) GetAttendances(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	page := helpers.ParsePaginationParams(ctx, services.AttendancePerPage, helpers.MaxPageSize)
	params := dto.AttendanceListParams{
		Search:       strings.TrimSpace(ctx.Query("search")),
		SubjectID:    q.id("subject_id"),
		DepartmentID: q.id("department_id"),
		IsPresent:    q.flag("is_present"),
		StartDate:    strings.TrimSpace(ctx.Query("start_date")),
		EndDate:      strings.TrimSpace(ctx.Query("end_date")),
		Page:         page.Page,
		PerPage:      page.PerPage,
	}
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.attendanceService.List(ctx.Request.Context(), params)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// GetFormContext returns the subjects (and for admins, the teachers) the
// caller may mark attendance with
// @Summary Attendance form context
// @Tags attendances
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceFormResponse}
// @Router /attendances/create [get]
func (c *AttendanceController) GetFormContext(ctx *gin.Context) {
	rc, ok := middleware.RequestContext(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenNotFound)
		return
	}
	form, err := c.attendanceService.FormContext(ctx.Request.Context(), rc)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, form)
}

// GetRoster returns the students enrolled in a subject with their mark for a day
// @Summary Roster with status
// @Description attendance_status is null for students not marked yet
// @Tags attendances
// @Produce json
// @Security BearerAuth
// @Param subject_id query int true "Subject ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.RosterResponse}
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /attendances/students [get]
func (c *AttendanceController) GetRoster(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	var req dto.RosterRequest
	if id := q.id("subject_id"); id != nil {
		req.SubjectID = *id
	}
	req.Date = strings.TrimSpace(ctx.Query("date"))
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	roster, err := c.attendanceService.Roster(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, roster)
}

// RecordAttendance records a batch of marks for one subject and day
// @Summary Record attendance
// @Description Existing marks for the same student, subject and day are overwritten. The whole batch is written atomically.
// @Tags attendances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RecordAttendanceRequest true "Attendance batch"
// @Success 201 {object} dto.APIResponse{data=dto.RecordAttendanceResponse}
// @Failure 400 {object} dto.APIResponse "Malformed request"
// @Failure 403 {object} dto.APIResponse "Not allowed to mark this subject"
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /attendances [post]
func (c *AttendanceController) RecordAttendance(ctx *gin.Context) {
	rc, ok := middleware.RequestContext(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenNotFound)
		return
	}
	var req dto.RecordAttendanceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.attendanceService.Record(ctx.Request.Context(), rc, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, result)
}
