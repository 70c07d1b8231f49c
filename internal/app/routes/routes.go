package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolroll/internal/app/controllers"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/middleware"
	"github.com/yigit/schoolroll/internal/pkg/metrics"
)

// Controllers groups every controller the router mounts.
type Controllers struct {
	Auth          *controllers.AuthController
	Departments   *controllers.DepartmentController
	Subjects      *controllers.SubjectController
	StudentGroups *controllers.StudentGroupController
	Students      *controllers.StudentController
	Users         *controllers.UserController
	Attendances   *controllers.AttendanceController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, m *metrics.Metrics) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	v1.POST("/auth/login", c.Auth.Login)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", c.Auth.Me)

	departments := authenticated.Group("/departments")
	{
		departments.GET("", c.Departments.GetDepartments)
		departments.POST("", c.Departments.CreateDepartment)
		departments.GET("/:id", c.Departments.GetDepartmentByID)
		departments.PUT("/:id", c.Departments.UpdateDepartment)
		departments.DELETE("/:id", c.Departments.DeleteDepartment)
	}

	subjects := authenticated.Group("/subjects")
	{
		subjects.GET("", c.Subjects.GetSubjects)
		subjects.GET("/form-options", c.Subjects.GetFormOptions)
		subjects.POST("", c.Subjects.CreateSubject)
		subjects.GET("/:id", c.Subjects.GetSubjectByID)
		subjects.PUT("/:id", c.Subjects.UpdateSubject)
		subjects.DELETE("/:id", c.Subjects.DeleteSubject)
	}

	groups := authenticated.Group("/student-groups")
	{
		groups.GET("", c.StudentGroups.GetStudentGroups)
		groups.GET("/form-options", c.StudentGroups.GetFormOptions)
		groups.POST("", c.StudentGroups.CreateStudentGroup)
		groups.GET("/:id", c.StudentGroups.GetStudentGroupByID)
		groups.PUT("/:id", c.StudentGroups.UpdateStudentGroup)
		groups.DELETE("/:id", c.StudentGroups.DeleteStudentGroup)
	}

	students := authenticated.Group("/students")
	{
		students.GET("", c.Students.GetStudents)
		students.GET("/form-options", c.Students.GetFormOptions)
		students.POST("", c.Students.CreateStudent)
		students.GET("/:id", c.Students.GetStudentByID)
		students.PUT("/:id", c.Students.UpdateStudent)
		students.DELETE("/:id", c.Students.DeleteStudent)
	}

	// Staff management is admin only.
	users := authenticated.Group("/users")
	users.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		users.GET("", c.Users.GetUsers)
		users.GET("/form-options", c.Users.GetFormOptions)
		users.POST("", c.Users.CreateUser)
		users.GET("/:id", c.Users.GetUserByID)
		users.PUT("/:id", c.Users.UpdateUser)
		users.DELETE("/:id", c.Users.DeleteUser)
	}

	attendances := authenticated.Group("/attendances")
	{
		attendances.GET("", c.Attendances.GetAttendances)
		attendances.GET("/create", c.Attendances.GetFormContext)
		attendances.GET("/students", c.Attendances.GetRoster)
		attendances.POST("", c.Attendances.RecordAttendance)
	}
}
