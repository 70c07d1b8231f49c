// Package seed loads a fixed demo data set: departments, subjects, groups,
// staff, students and ten days of attendance.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/auth"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/logger"
)

// Options controls the seeded admin account.
type Options struct {
	AdminEmail    string
	AdminPassword string
	// Now anchors enrollment and attendance dates.
	Now time.Time
}

// Counts reports how many rows of each kind were inserted.
type Counts struct {
	Departments int
	Subjects    int
	Groups      int
	Users       int
	Students    int
	Attendances int
}

type entry struct {
	Name, Code, Description string
}

var departments = []entry{
	{"Computer Science", "CS", "Department of Computer Science"},
	{"Information Technology", "IT", "Department of Information Technology"},
	{"Software Engineering", "SE", "Department of Software Engineering"},
	{"Data Science", "DS", "Department of Data Science"},
	{"Computer Engineering", "CE", "Department of Computer Engineering"},
	{"Information Systems", "IS", "Department of Information Systems"},
	{"Cybersecurity", "CYB", "Department of Cybersecurity"},
	{"Artificial Intelligence", "AI", "Department of Artificial Intelligence"},
	{"Network Engineering", "NE", "Department of Network Engineering"},
	{"Web Development", "WD", "Department of Web Development"},
	{"Mobile Computing", "MC", "Department of Mobile Computing"},
	{"Cloud Computing", "CC", "Department of Cloud Computing"},
}

var subjects = []entry{
	{"Introduction to Programming", "CS101", "Basic programming concepts and problem-solving"},
	{"Data Structures", "CS201", "Study of fundamental data structures and algorithms"},
	{"Database Systems", "CS301", "Database design and management"},
	{"Web Development", "CS401", "Front-end and back-end web development"},
	{"Software Engineering", "CS501", "Software development methodologies and practices"},
	{"Computer Networks", "CS601", "Network protocols and architecture"},
	{"Operating Systems", "CS701", "OS concepts and implementation"},
	{"Artificial Intelligence", "CS801", "AI algorithms and applications"},
	{"Machine Learning", "CS802", "ML algorithms and data analysis"},
	{"Cybersecurity", "CS901", "Security principles and practices"},
	{"Cloud Computing", "CS902", "Cloud services and deployment"},
	{"Mobile App Development", "CS903", "Mobile application development"},
	{"Data Science", "CS904", "Data analysis and visualization"},
	{"Computer Graphics", "CS905", "Graphics programming and design"},
	{"Software Testing", "CS906", "Testing methodologies and tools"},
	{"Big Data Analytics", "CS907", "Large-scale data processing"},
	{"Internet of Things", "CS908", "IoT systems and applications"},
	{"Blockchain Technology", "CS909", "Blockchain concepts and development"},
	{"Game Development", "CS910", "Game design and programming"},
	{"Natural Language Processing", "CS911", "NLP algorithms and applications"},
	{"Computer Vision", "CS912", "Image processing and analysis"},
	{"Distributed Systems", "CS913", "Distributed computing concepts"},
	{"Software Architecture", "CS914", "System design and architecture"},
	{"Human-Computer Interaction", "CS915", "UI/UX design principles"},
	{"Quantum Computing", "CS916", "Quantum computing fundamentals"},
}

var groups = []entry{
	{"Group A", "A", "First year students group A"},
	{"Group B", "B", "First year students group B"},
	{"Group C", "C", "First year students group C"},
	{"Group D", "D", "First year students group D"},
	{"Group E", "E", "First year students group E"},
}

var teacherNames = []string{
	"John Smith", "Sarah Johnson", "Michael Brown", "Emily Davis", "David Wilson",
	"Lisa Anderson", "Robert Taylor", "Jennifer Martinez", "William Thomas", "Elizabeth Jackson",
	"James White", "Patricia Harris", "Richard Martin", "Barbara Thompson", "Charles Garcia",
}

var (
	firstNames = []string{"Alice", "Bruno", "Chloe", "Daniel", "Elif", "Farid", "Grace", "Hiro", "Ines", "Jonas"}
	lastNames  = []string{"Keller", "Lopez", "Moreau", "Nakamura", "Okafor", "Petrov"}
)

const (
	studentCount   = 30
	firstYearCount = 25
	attendanceDays = 10
)

// Run inserts the data set in one transaction. It does nothing when the
// admin account already exists, so repeated runs are safe.
func Run(ctx context.Context, database *db.PostgresDB, repos *repositories.Repositories, opts Options) (Counts, error) {
	var counts Counts
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	exists, err := repos.Users.EmailTaken(ctx, opts.AdminEmail, 0)
	if err != nil {
		return counts, fmt.Errorf("failed to check seed state: %w", err)
	}
	if exists {
		logger.Info().Str("admin_email", opts.AdminEmail).Msg("Seed data already present, skipping")
		return counts, nil
	}

	err = database.WithTransaction(ctx, func(ctx context.Context, _ pgx.Tx) error {
		s := &seeder{repos: repos, opts: opts, counts: &counts}
		return s.run(ctx)
	})
	if err != nil {
		return Counts{}, err
	}

	logger.Info().
		Int("departments", counts.Departments).
		Int("subjects", counts.Subjects).
		Int("students", counts.Students).
		Int("attendances", counts.Attendances).
		Msg("Seed data created")
	return counts, nil
}

type seeder struct {
	repos  *repositories.Repositories
	opts   Options
	counts *Counts

	departments []models.Department
	subjects    []models.Subject
	groups      []models.StudentGroup
	teachers    map[int64]int64 // subject id => teacher id
}

func (s *seeder) run(ctx context.Context) error {
	steps := []func(context.Context) error{
		s.seedDepartments,
		s.seedSubjects,
		s.seedGroups,
		s.seedStaff,
		s.seedStudents,
		s.seedAttendance,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedDepartments(ctx context.Context) error {
	for _, e := range departments {
		d := models.Department{Name: e.Name, Code: e.Code, Description: &e.Description}
		if err := s.repos.Departments.Create(ctx, &d); err != nil {
			return fmt.Errorf("seed department %s: %w", e.Code, err)
		}
		s.departments = append(s.departments, d)
	}
	s.counts.Departments = len(s.departments)
	return nil
}

func (s *seeder) seedSubjects(ctx context.Context) error {
	for i, e := range subjects {
		subject := models.Subject{
			Name:         e.Name,
			Code:         e.Code,
			Description:  &e.Description,
			DepartmentID: s.departments[i%len(s.departments)].ID,
		}
		if err := s.repos.Subjects.Create(ctx, &subject); err != nil {
			return fmt.Errorf("seed subject %s: %w", e.Code, err)
		}
		s.subjects = append(s.subjects, subject)
	}
	s.counts.Subjects = len(s.subjects)
	return nil
}

func (s *seeder) seedGroups(ctx context.Context) error {
	for i, e := range groups {
		year := 1
		section := e.Code
		g := models.StudentGroup{
			Name:         e.Name,
			Description:  &e.Description,
			DepartmentID: s.departments[i%len(s.departments)].ID,
			YearLevel:    &year,
			Section:      &section,
		}
		if err := s.repos.StudentGroups.Create(ctx, &g); err != nil {
			return fmt.Errorf("seed group %s: %w", e.Name, err)
		}
		s.groups = append(s.groups, g)
	}
	s.counts.Groups = len(s.groups)
	return nil
}

// seedStaff creates two admins and one teacher per subject.
func (s *seeder) seedStaff(ctx context.Context) error {
	hash, err := auth.HashPassword(s.opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed password: %w", err)
	}
	firstDept := s.departments[0].ID

	admins := []models.User{
		{Name: "Admin User", Email: s.opts.AdminEmail},
		{Name: "Super Admin", Email: "superadmin@example.com"},
	}
	for _, u := range admins {
		u.Role = models.RoleAdmin
		u.PasswordHash = hash
		u.DepartmentID = &firstDept
		if err := s.repos.Users.Create(ctx, &u); err != nil {
			return fmt.Errorf("seed admin %s: %w", u.Email, err)
		}
		s.counts.Users++
	}

	s.teachers = make(map[int64]int64, len(s.subjects))
	for i, subject := range s.subjects {
		name := teacherNames[i%len(teacherNames)]
		deptID := subject.DepartmentID
		teacher := models.User{
			Name:         name,
			Email:        fmt.Sprintf("%s.%d@example.com", strings.ToLower(strings.ReplaceAll(name, " ", ".")), i+1),
			PasswordHash: hash,
			Role:         models.RoleTeacher,
			DepartmentID: &deptID,
		}
		if err := s.repos.Users.Create(ctx, &teacher); err != nil {
			return fmt.Errorf("seed teacher %s: %w", teacher.Email, err)
		}
		if err := s.repos.Users.SyncSubjects(ctx, teacher.ID, []int64{subject.ID}); err != nil {
			return fmt.Errorf("seed teacher subjects: %w", err)
		}
		s.teachers[subject.ID] = teacher.ID
		s.counts.Users++
	}
	return nil
}

// seedStudents creates students STU0001..STU0030. First-year students take
// three to five consecutive subjects.
func (s *seeder) seedStudents(ctx context.Context) error {
	for i := 1; i <= studentCount; i++ {
		first := firstNames[(i-1)%len(firstNames)]
		last := lastNames[(i-1)%len(lastNames)]
		st := models.Student{
			RegistrationNumber: fmt.Sprintf("STU%04d", i),
			FirstName:          first,
			LastName:           last,
			Email:              fmt.Sprintf("%s.%s.%d@student.example.com", strings.ToLower(first), strings.ToLower(last), i),
			IsFirstYear:        i <= firstYearCount,
			DepartmentID:       s.departments[(i-1)%len(s.departments)].ID,
			StudentGroupID:     s.groups[(i-1)%len(s.groups)].ID,
		}
		if err := s.repos.Students.Create(ctx, &st); err != nil {
			return fmt.Errorf("seed student %s: %w", st.RegistrationNumber, err)
		}

		if st.IsFirstYear {
			n := 3 + i%3
			ids := make([]int64, 0, n)
			for k := 0; k < n; k++ {
				ids = append(ids, s.subjects[(i*2+k)%len(s.subjects)].ID)
			}
			if err := s.repos.Students.SyncSubjects(ctx, st.ID, ids, s.opts.Now); err != nil {
				return fmt.Errorf("seed enrollment %s: %w", st.RegistrationNumber, err)
			}
		}
		s.counts.Students++
	}
	return nil
}

// seedAttendance marks every enrolled student for the last ten days. Roughly
// four in five marks are present.
func (s *seeder) seedAttendance(ctx context.Context) error {
	today := helpers.DateOnly(s.opts.Now)
	for _, subject := range s.subjects {
		enrolled, err := s.repos.Subjects.Students(ctx, subject.ID)
		if err != nil {
			return fmt.Errorf("seed roster %s: %w", subject.Code, err)
		}
		for day := 0; day < attendanceDays; day++ {
			date := today.AddDate(0, 0, -day)
			for _, st := range enrolled {
				key := models.AttendanceKey{StudentID: st.ID, SubjectID: subject.ID, Date: date}
				mark := repositories.AttendanceMark{
					IsPresent: (st.ID+int64(day))%5 != 0,
					MarkedBy:  s.teachers[subject.ID],
				}
				if _, err := s.repos.Attendances.FindOrInsert(ctx, key, mark); err != nil {
					return fmt.Errorf("seed attendance: %w", err)
				}
				s.counts.Attendances++
			}
		}
	}
	return nil
}
