package repositories

import (
	"github.com/yigit/schoolroll/internal/db"
)

// Repositories bundles every repository over one connection pool.
type Repositories struct {
	Departments   *DepartmentRepository
	Subjects      *SubjectRepository
	StudentGroups *StudentGroupRepository
	Students      *StudentRepository
	Users         *UserRepository
	Attendances   *AttendanceRepository
}

// New wires all repositories to database.
func New(database *db.PostgresDB) *Repositories {
	return &Repositories{
		Departments:   NewDepartmentRepository(database),
		Subjects:      NewSubjectRepository(database),
		StudentGroups: NewStudentGroupRepository(database),
		Students:      NewStudentRepository(database),
		Users:         NewUserRepository(database),
		Attendances:   NewAttendanceRepository(database),
	}
}
