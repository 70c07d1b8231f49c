package auth

import (
	"context"
	"fmt"

	"github.com/yigit/schoolroll/internal/app/models"
	"github.com/yigit/schoolroll/internal/pkg/apperrors"
)

// Authorization failure messages surfaced to clients.
const (
	MsgSubjectNotAssigned = "You are not authorized to mark attendance for this subject."
	MsgMarkAsSelfOnly     = "As a teacher, you can only mark attendance as yourself."
)

// RequestContext identifies the authenticated caller of a service operation.
type RequestContext struct {
	UserID int64
	Role   models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (rc RequestContext) IsAdmin() bool {
	return rc.Role == models.RoleAdmin
}

// IsTeacher reports whether the caller holds the teacher role.
func (rc RequestContext) IsTeacher() bool {
	return rc.Role == models.RoleTeacher
}

type requestContextKey struct{}

// WithRequestContext stores rc on ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the RequestContext stored on ctx, if any.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return rc, ok
}

// SubjectAssignments answers whether a user teaches a subject.
type SubjectAssignments interface {
	IsTeacherAssigned(ctx context.Context, userID, subjectID int64) (bool, error)
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	assignments SubjectAssignments
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(assignments SubjectAssignments) *AuthorizationService {
	return &AuthorizationService{assignments: assignments}
}

// CanRecordAttendance checks that rc may record marks for subjectID on
// behalf of markedBy. Admins may always; teachers only for their own
// subjects and only as themselves.
func (s *AuthorizationService) CanRecordAttendance(ctx context.Context, rc RequestContext, subjectID, markedBy int64) error {
	if rc.IsAdmin() {
		return nil
	}
	if !rc.IsTeacher() {
		return apperrors.NewForbiddenError(MsgSubjectNotAssigned)
	}

	assigned, err := s.assignments.IsTeacherAssigned(ctx, rc.UserID, subjectID)
	if err != nil {
		return fmt.Errorf("failed to check subject assignment: %w", err)
	}
	if !assigned {
		return apperrors.NewForbiddenError(MsgSubjectNotAssigned)
	}
	if markedBy != rc.UserID {
		return apperrors.NewForbiddenError(MsgMarkAsSelfOnly)
	}
	return nil
}
