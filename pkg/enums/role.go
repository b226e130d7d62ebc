package enums

import (
	"fmt"
	"strings"
)

// Role is the access level stored alongside an identity in the users table.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

var validRoles = []Role{
	RoleAdmin,
	RoleManager,
	RoleUser,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// NormalizeRole maps absent or unknown values to the lowest privilege.
func NormalizeRole(value string) Role {
	role, err := ParseRole(value)
	if err != nil {
		return RoleUser
	}
	return role
}
