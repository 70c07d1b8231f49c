package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
	"github.com/yigit/schoolroll/internal/pkg/validation"
)

func strPtr(s string) *string { return &s }

func newUserFixture() (UserService, *fakeUsers, *fakeTx) {
	users := newFakeUsers(models.User{ID: 1, Name: "Admin", Email: "admin@school.test", Role: models.RoleAdmin, PasswordHash: "old"})
	subjects := newFakeSubjects(
		models.Subject{ID: 1, Code: "S1"}, models.Subject{ID: 2, Code: "S2"},
		models.Subject{ID: 3, Code: "S3"}, models.Subject{ID: 4, Code: "S4"},
	)
	departments := newFakeDepartments(models.Department{ID: 1, Name: "Science", Code: "SCI"})
	tx := &fakeTx{}
	svc := NewUserService(tx, users, departments, subjects)
	svc.(*userServiceImpl).hash = func(p string) (string, error) { return "hashed:" + p, nil }
	return svc, users, tx
}

func teacherRequest(subjectIDs ...int64) dto.UserRequest {
	return dto.UserRequest{
		Name:                 "Ada Lovelace",
		Email:                "ada@school.test",
		Password:             strPtr("secret123"),
		PasswordConfirmation: strPtr("secret123"),
		Role:                 string(models.RoleTeacher),
		SubjectIDs:           subjectIDs,
	}
}

func TestTeacherSubjects(t *testing.T) {
	assert.Equal(t, []int64{4, 2, 3}, TeacherSubjects([]int64{4, 2, 4, 3, 1}))
	assert.Empty(t, TeacherSubjects(nil))
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Teacher_SubjectsTruncatedToThree", func(t *testing.T) {
		svc, users, tx := newUserFixture()
		resp, err := svc.Create(ctx, teacherRequest(1, 2, 2, 3, 4))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, users.subjects[resp.ID])
		assert.Equal(t, "hashed:secret123", users.rows[resp.ID].PasswordHash)
		assert.Equal(t, 1, tx.calls)
	})

	t.Run("Teacher_WithoutSubjects", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.Create(ctx, teacherRequest())
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, validation.MsgTeacherSubjects, verr.Fields["subject_ids"])
	})

	t.Run("Teacher_UnknownSubject", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.Create(ctx, teacherRequest(1, 42))
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "The selected subject_ids is invalid.", verr.Fields["subject_ids"])
	})

	t.Run("Teacher_UnknownSubjectPastCap", func(t *testing.T) {
		svc, users, tx := newUserFixture()
		_, err := svc.Create(ctx, teacherRequest(1, 2, 3, 999))
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "The selected subject_ids is invalid.", verr.Fields["subject_ids"])
		assert.Len(t, users.rows, 1)
		assert.Equal(t, 0, tx.calls)
	})

	t.Run("Admin_UnknownSubject", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		req := teacherRequest(999)
		req.Role = string(models.RoleAdmin)
		_, err := svc.Create(ctx, req)
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "subject_ids")
	})

	t.Run("PasswordRequired", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		req := teacherRequest(1)
		req.Password, req.PasswordConfirmation = nil, nil
		_, err := svc.Create(ctx, req)
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "password")
	})

	t.Run("PasswordConfirmationMismatch", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		req := teacherRequest(1)
		req.PasswordConfirmation = strPtr("different1")
		_, err := svc.Create(ctx, req)
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, validation.MsgPasswordConfirmation, verr.Fields["password"])
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		req := teacherRequest(1)
		req.Email = "admin@school.test"
		_, err := svc.Create(ctx, req)
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "The email has already been taken.", verr.Fields["email"])
	})

	t.Run("UnknownDepartment", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		req := teacherRequest(1)
		dept := int64(9)
		req.DepartmentID = &dept
		_, err := svc.Create(ctx, req)
		verr, ok := apperrors.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "department_id")
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("KeepsPasswordWhenOmitted", func(t *testing.T) {
		svc, users, _ := newUserFixture()
		_, err := svc.Update(ctx, 1, dto.UserRequest{Name: "Root", Email: "admin@school.test", Role: string(models.RoleAdmin)})
		require.NoError(t, err)
		assert.Equal(t, "old", users.rows[1].PasswordHash)
		assert.Equal(t, "Root", users.rows[1].Name)
	})

	t.Run("BecomingAdmin_ClearsAssignments", func(t *testing.T) {
		svc, users, _ := newUserFixture()
		created, err := svc.Create(ctx, teacherRequest(1, 2))
		require.NoError(t, err)

		req := teacherRequest(1, 2)
		req.Role = string(models.RoleAdmin)
		req.Password, req.PasswordConfirmation = nil, nil
		_, err = svc.Update(ctx, created.ID, req)
		require.NoError(t, err)
		assert.Empty(t, users.subjects[created.ID])
	})

	t.Run("Missing_NotFound", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.Update(ctx, 404, teacherRequest(1))
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})
}

func TestUserService_List(t *testing.T) {
	svc, _, _ := newUserFixture()
	role := models.RoleAdmin
	resp, err := svc.List(context.Background(), repositoriesUserFilter(&role))
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, []string{"teacher", "admin"}, resp.Lookups.Roles)
	assert.Equal(t, &role, resp.Params.(UserListParams).Role)
}
