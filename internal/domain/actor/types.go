package actor

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role is the actor category resolved by the external identity provider.
type Role string

const (
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleParent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Actor is the caller identity attached to every lifecycle operation.
// IDs are opaque references owned by the surrounding identity system.
type Actor struct {
	ID            string
	InstitutionID string
	Role          Role
}
