package enums

import "fmt"

// UserRole is the single role carried by every principal.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleSpecialist UserRole = "specialist"
	UserRoleCreator    UserRole = "creator"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleSpecialist,
	UserRoleCreator,
}

// String returns the literal string for the role.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
