package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/middleware"
)

// StudentController handles student endpoints
type StudentController struct {
	studentService services.StudentService
	paging         Paging
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, paging Paging) *StudentController {
	return &StudentController{studentService: studentService, paging: paging}
}

// GetStudents lists students
// @Summary List students
// @Description Filters are independent; a search term matches first name, last name, email or registration number
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Param is_first_year query bool false "Filter by first-year flag"
// @Param department_id query int false "Filter by department"
// @Param student_group_id query int false "Filter by student group"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Failure 422 {object} dto.APIResponse "Invalid filter"
// @Router /students [get]
func (c *StudentController) GetStudents(ctx *gin.Context) {
	q := newQueryFilters(ctx)
	filter := repositories.StudentFilter{
		ListParams:     c.paging.listParams(ctx),
		IsFirstYear:    q.flag("is_first_year"),
		DepartmentID:   q.id("department_id"),
		StudentGroupID: q.id("student_group_id"),
	}
	if err := q.err(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	result, err := c.studentService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// GetFormOptions returns departments, groups and subjects for the student form
// @Summary Student form options
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.Lookups}
// @Router /students/form-options [get]
func (c *StudentController) GetFormOptions(ctx *gin.Context) {
	lookups, err := c.studentService.FormOptions(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lookups)
}

// GetStudentByID shows a student with enrollments, latest marks and the
// attendance summary
// @Summary Get student by ID
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.APIResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudentByID(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	student, err := c.studentService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, student)
}

// CreateStudent creates a student and enrolls them in the selected subjects
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StudentRequest true "Student information"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 422 {object} dto.APIResponse "Validation failed"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	student, err := c.studentService.Create(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, student)
}

// UpdateStudent updates a student and replaces their enrollment set
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.StudentRequest true "Student information"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	student, err := c.studentService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, student)
}

// DeleteStudent deletes a student
// @Summary Delete student
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := middleware.IDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.studentService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	noContent(ctx)
}
