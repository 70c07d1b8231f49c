package services

import (
	"context"
	"time"

	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/db"
)

// Transactor runs fn in a transaction; repository calls made with the ctx
// fn receives take part in it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// DepartmentStore is the persistence contract of DepartmentService.
type DepartmentStore interface {
	List(ctx context.Context, f repositories.DepartmentFilter) ([]models.Department, dto.PaginationInfo, error)
	All(ctx context.Context) ([]models.Department, error)
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CodeTaken(ctx context.Context, code string, exceptID int64) (bool, error)
	Create(ctx context.Context, d *models.Department) error
	Update(ctx context.Context, d *models.Department) error
	Delete(ctx context.Context, id int64) error
}

// SubjectStore is the persistence contract for subjects and teacher assignments.
type SubjectStore interface {
	List(ctx context.Context, f repositories.SubjectFilter) ([]models.Subject, dto.PaginationInfo, error)
	All(ctx context.Context) ([]models.Subject, error)
	ForTeacher(ctx context.Context, userID int64) ([]models.Subject, error)
	ForStudent(ctx context.Context, studentID int64) ([]models.Subject, error)
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	Teachers(ctx context.Context, subjectID int64) ([]models.User, error)
	Students(ctx context.Context, subjectID int64) ([]models.Student, error)
	Exists(ctx context.Context, id int64) (bool, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	CodeTaken(ctx context.Context, code string, exceptID int64) (bool, error)
	IsTeacherAssigned(ctx context.Context, userID, subjectID int64) (bool, error)
	Create(ctx context.Context, s *models.Subject) error
	Update(ctx context.Context, s *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

// StudentGroupStore is the persistence contract of StudentGroupService.
type StudentGroupStore interface {
	List(ctx context.Context, f repositories.StudentGroupFilter) ([]models.StudentGroup, dto.PaginationInfo, error)
	All(ctx context.Context) ([]models.StudentGroup, error)
	GetByID(ctx context.Context, id int64) (*models.StudentGroup, error)
	Students(ctx context.Context, groupID int64) ([]models.Student, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, g *models.StudentGroup) error
	Update(ctx context.Context, g *models.StudentGroup) error
	Delete(ctx context.Context, id int64) error
}

// StudentStore is the persistence contract for students and enrollments.
type StudentStore interface {
	List(ctx context.Context, f repositories.StudentFilter) ([]models.Student, dto.PaginationInfo, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	RegistrationNumberTaken(ctx context.Context, number string, exceptID int64) (bool, error)
	Create(ctx context.Context, s *models.Student) error
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, id int64) error
	SyncSubjects(ctx context.Context, studentID int64, subjectIDs []int64, enrolledOn time.Time) error
}

// UserStore is the persistence contract for staff users and assignments.
type UserStore interface {
	List(ctx context.Context, f repositories.UserFilter) ([]models.User, dto.PaginationInfo, error)
	Teachers(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
	SyncSubjects(ctx context.Context, userID int64, subjectIDs []int64) error
}

// AttendanceStore is the persistence contract of AttendanceService.
type AttendanceStore interface {
	FindOrInsert(ctx context.Context, key models.AttendanceKey, mark repositories.AttendanceMark) (*models.Attendance, error)
	Roster(ctx context.Context, subjectID int64, date time.Time) ([]models.RosterEntry, error)
	List(ctx context.Context, f repositories.AttendanceFilter) ([]models.Attendance, dto.PaginationInfo, error)
	LatestForStudent(ctx context.Context, studentID int64, limit uint64) ([]models.Attendance, error)
	TotalsForStudent(ctx context.Context, studentID int64) (models.AttendanceTotals, error)
}

// Compile-time checks that the repositories satisfy the contracts.
var (
	_ Transactor        = (*db.PostgresDB)(nil)
	_ DepartmentStore   = (*repositories.DepartmentRepository)(nil)
	_ SubjectStore      = (*repositories.SubjectRepository)(nil)
	_ StudentGroupStore = (*repositories.StudentGroupRepository)(nil)
	_ StudentStore      = (*repositories.StudentRepository)(nil)
	_ UserStore         = (*repositories.UserRepository)(nil)
	_ AttendanceStore   = (*repositories.AttendanceRepository)(nil)
)
