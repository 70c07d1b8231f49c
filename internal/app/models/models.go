package models

// Role is the authorization role of a staff user.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Roles lists every role, in display order.
func Roles() []Role {
	return []Role{RoleTeacher, RoleAdmin}
}
