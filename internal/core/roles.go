// AngelaMos | 2026
// roles.go

package core

import "fmt"

// Role is the closed set of subject roles. Every persisted subject carries
// exactly one of these; there is no unset state.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("parse role %q: %w", s, ErrInvalidInput)
	}
	return role, nil
}
