package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of account types. It is validated once at the
// gateway boundary and carried as a typed claim inside signed tokens.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

// ParseRole normalizes and validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.TrimSpace(strings.ToLower(raw))); r {
	case RoleStudent, RoleTutor:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}

func (r Role) String() string { return string(r) }
