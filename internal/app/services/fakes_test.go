package services

import (
	"context"
	"sort"
	"time"

	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/app/repositories"
	"github.com/yigit/schoolroll/internal/db"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
)

// fakeTx runs fn directly; a returned error counts as a rollback.
type fakeTx struct {
	calls     int
	rollbacks int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	f.calls++
	err := fn(ctx, nil)
	if err != nil {
		f.rollbacks++
	}
	return err
}

func page(total int, p repositories.ListParams) dto.PaginationInfo {
	return helpers.NewPaginationInfo(int64(total), p.Page, p.PerPage)
}

func missing(ids []int64, known func(int64) bool) []int64 {
	var out []int64
	for _, id := range ids {
		if !known(id) {
			out = append(out, id)
		}
	}
	return out
}

type fakeDepartments struct {
	rows   map[int64]models.Department
	nextID int64
}

func newFakeDepartments(rows ...models.Department) *fakeDepartments {
	f := &fakeDepartments{rows: map[int64]models.Department{}}
	for _, d := range rows {
		f.rows[d.ID] = d
		f.nextID = max(f.nextID, d.ID)
	}
	return f
}

func (f *fakeDepartments) List(_ context.Context, p repositories.DepartmentFilter) ([]models.Department, dto.PaginationInfo, error) {
	items, _ := f.All(context.Background())
	return items, page(len(items), p.ListParams), nil
}

func (f *fakeDepartments) All(context.Context) ([]models.Department, error) {
	out := make([]models.Department, 0, len(f.rows))
	for _, d := range f.rows {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDepartments) GetByID(_ context.Context, id int64) (*models.Department, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrDepartmentNotFound
	}
	return &d, nil
}

func (f *fakeDepartments) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeDepartments) CodeTaken(_ context.Context, code string, exceptID int64) (bool, error) {
	for _, d := range f.rows {
		if d.Code == code && d.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartments) Create(_ context.Context, d *models.Department) error {
	f.nextID++
	d.ID = f.nextID
	f.rows[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Update(_ context.Context, d *models.Department) error {
	f.rows[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeSubjects struct {
	rows        map[int64]models.Subject
	assignments map[int64][]int64 // user id => subject ids
}

func newFakeSubjects(rows ...models.Subject) *fakeSubjects {
	f := &fakeSubjects{rows: map[int64]models.Subject{}, assignments: map[int64][]int64{}}
	for _, s := range rows {
		f.rows[s.ID] = s
	}
	return f
}

func (f *fakeSubjects) byIDs(ids []int64) []models.Subject {
	var out []models.Subject
	for _, id := range ids {
		if s, ok := f.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSubjects) List(_ context.Context, p repositories.SubjectFilter) ([]models.Subject, dto.PaginationInfo, error) {
	items, _ := f.All(context.Background())
	return items, page(len(items), p.ListParams), nil
}

func (f *fakeSubjects) All(context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubjects) ForTeacher(_ context.Context, userID int64) ([]models.Subject, error) {
	return f.byIDs(f.assignments[userID]), nil
}

func (f *fakeSubjects) ForStudent(context.Context, int64) ([]models.Subject, error) {
	return nil, nil
}

func (f *fakeSubjects) GetByID(_ context.Context, id int64) (*models.Subject, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrSubjectNotFound
	}
	return &s, nil
}

func (f *fakeSubjects) Teachers(context.Context, int64) ([]models.User, error) { return nil, nil }

func (f *fakeSubjects) Students(context.Context, int64) ([]models.Student, error) { return nil, nil }

func (f *fakeSubjects) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeSubjects) MissingIDs(_ context.Context, ids []int64) ([]int64, error) {
	return missing(ids, func(id int64) bool { _, ok := f.rows[id]; return ok }), nil
}

func (f *fakeSubjects) CodeTaken(_ context.Context, code string, exceptID int64) (bool, error) {
	for _, s := range f.rows {
		if s.Code == code && s.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubjects) IsTeacherAssigned(_ context.Context, userID, subjectID int64) (bool, error) {
	for _, id := range f.assignments[userID] {
		if id == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubjects) Create(_ context.Context, s *models.Subject) error {
	s.ID = int64(len(f.rows) + 1)
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSubjects) Update(_ context.Context, s *models.Subject) error {
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSubjects) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

type fakeGroups struct {
	rows map[int64]models.StudentGroup
}

func newFakeGroups(rows ...models.StudentGroup) *fakeGroups {
	f := &fakeGroups{rows: map[int64]models.StudentGroup{}}
	for _, g := range rows {
		f.rows[g.ID] = g
	}
	return f
}

func (f *fakeGroups) List(_ context.Context, p repositories.StudentGroupFilter) ([]models.StudentGroup, dto.PaginationInfo, error) {
	items, _ := f.All(context.Background())
	return items, page(len(items), p.ListParams), nil
}

func (f *fakeGroups) All(context.Context) ([]models.StudentGroup, error) {
	out := make([]models.StudentGroup, 0, len(f.rows))
	for _, g := range f.rows {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGroups) GetByID(_ context.Context, id int64) (*models.StudentGroup, error) {
	g, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrStudentGroupNotFound
	}
	return &g, nil
}

func (f *fakeGroups) Students(context.Context, int64) ([]models.Student, error) { return nil, nil }

func (f *fakeGroups) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeGroups) Create(_ context.Context, g *models.StudentGroup) error {
	g.ID = int64(len(f.rows) + 1)
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGroups) Update(_ context.Context, g *models.StudentGroup) error {
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGroups) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

type fakeStudents struct {
	rows     map[int64]models.Student
	subjects map[int64][]int64
	nextID   int64
}

func newFakeStudents(rows ...models.Student) *fakeStudents {
	f := &fakeStudents{rows: map[int64]models.Student{}, subjects: map[int64][]int64{}}
	for _, s := range rows {
		f.rows[s.ID] = s
		f.nextID = max(f.nextID, s.ID)
	}
	return f
}

func (f *fakeStudents) List(_ context.Context, p repositories.StudentFilter) ([]models.Student, dto.PaginationInfo, error) {
	var out []models.Student
	for _, s := range f.rows {
		out = append(out, s)
	}
	return out, page(len(out), p.ListParams), nil
}

func (f *fakeStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return &s, nil
}

func (f *fakeStudents) MissingIDs(_ context.Context, ids []int64) ([]int64, error) {
	return missing(ids, func(id int64) bool { _, ok := f.rows[id]; return ok }), nil
}

func (f *fakeStudents) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, s := range f.rows {
		if s.Email == email && s.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudents) RegistrationNumberTaken(_ context.Context, number string, exceptID int64) (bool, error) {
	for _, s := range f.rows {
		if s.RegistrationNumber == number && s.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudents) Create(_ context.Context, s *models.Student) error {
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeStudents) Update(_ context.Context, s *models.Student) error {
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeStudents) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStudents) SyncSubjects(_ context.Context, studentID int64, subjectIDs []int64, _ time.Time) error {
	f.subjects[studentID] = subjectIDs
	return nil
}

type fakeUsers struct {
	rows     map[int64]models.User
	subjects map[int64][]int64
	nextID   int64
}

func newFakeUsers(rows ...models.User) *fakeUsers {
	f := &fakeUsers{rows: map[int64]models.User{}, subjects: map[int64][]int64{}}
	for _, u := range rows {
		f.rows[u.ID] = u
		f.nextID = max(f.nextID, u.ID)
	}
	return f
}

func (f *fakeUsers) List(_ context.Context, p repositories.UserFilter) ([]models.User, dto.PaginationInfo, error) {
	var out []models.User
	for _, u := range f.rows {
		if p.Role == nil || u.Role == *p.Role {
			out = append(out, u)
		}
	}
	return out, page(len(out), p.ListParams), nil
}

func (f *fakeUsers) Teachers(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.rows {
		if u.IsTeacher() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeUsers) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, u := range f.rows {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.nextID++
	u.ID = f.nextID
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	current := f.rows[u.ID]
	if u.PasswordHash == "" {
		u.PasswordHash = current.PasswordHash
	}
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeUsers) SyncSubjects(_ context.Context, userID int64, subjectIDs []int64) error {
	f.subjects[userID] = subjectIDs
	return nil
}

// fakeAttendances keeps one row per key, like the unique index does.
type fakeAttendances struct {
	rows    map[models.AttendanceKey]models.Attendance
	nextID  int64
	failOn  int64 // student id whose write fails
	filters []repositories.AttendanceFilter
}

func newFakeAttendances() *fakeAttendances {
	return &fakeAttendances{rows: map[models.AttendanceKey]models.Attendance{}}
}

func (f *fakeAttendances) FindOrInsert(_ context.Context, key models.AttendanceKey, mark repositories.AttendanceMark) (*models.Attendance, error) {
	if f.failOn != 0 && key.StudentID == f.failOn {
		return nil, apperrors.NewConflictError("write failed")
	}
	row, ok := f.rows[key]
	if !ok {
		f.nextID++
		row = models.Attendance{ID: f.nextID, StudentID: key.StudentID, SubjectID: key.SubjectID, Date: key.Date}
	}
	row.IsPresent = mark.IsPresent
	row.MarkedBy = mark.MarkedBy
	row.Remarks = mark.Remarks
	f.rows[key] = row
	return &row, nil
}

func (f *fakeAttendances) Roster(context.Context, int64, time.Time) ([]models.RosterEntry, error) {
	return nil, nil
}

func (f *fakeAttendances) List(_ context.Context, p repositories.AttendanceFilter) ([]models.Attendance, dto.PaginationInfo, error) {
	f.filters = append(f.filters, p)
	return nil, page(0, p.ListParams), nil
}

func (f *fakeAttendances) LatestForStudent(context.Context, int64, uint64) ([]models.Attendance, error) {
	return nil, nil
}

func (f *fakeAttendances) TotalsForStudent(context.Context, int64) (models.AttendanceTotals, error) {
	return models.AttendanceTotals{}, nil
}

func (f *fakeAttendances) countFor(subjectID int64, date time.Time) int {
	n := 0
	for k := range f.rows {
		if k.SubjectID == subjectID && k.Date.Equal(date) {
			n++
		}
	}
	return n
}

var (
	_ Transactor        = (*fakeTx)(nil)
	_ DepartmentStore   = (*fakeDepartments)(nil)
	_ SubjectStore      = (*fakeSubjects)(nil)
	_ StudentGroupStore = (*fakeGroups)(nil)
	_ StudentStore      = (*fakeStudents)(nil)
	_ UserStore         = (*fakeUsers)(nil)
	_ AttendanceStore   = (*fakeAttendances)(nil)
)
