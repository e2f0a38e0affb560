package enums

import "fmt"

// VisibilityLevel governs which non-owner viewers may see an approved asset.
type VisibilityLevel string

const (
	// VisibilityUnset is the model default before review assigns a level.
	// It grants nothing to non-owners.
	VisibilityUnset         VisibilityLevel = "unset"
	VisibilityOwnerOnly     VisibilityLevel = "private_owner_only"
	VisibilityAdminOnly     VisibilityLevel = "admin_only"
	VisibilityPublic        VisibilityLevel = "public"
	VisibilityCompanyScoped VisibilityLevel = "company_scoped"
	VisibilityRoleScoped    VisibilityLevel = "role_scoped"
	VisibilitySelectedUsers VisibilityLevel = "selected_users"
)

var validVisibilityLevels = []VisibilityLevel{
	VisibilityUnset,
	VisibilityOwnerOnly,
	VisibilityAdminOnly,
	VisibilityPublic,
	VisibilityCompanyScoped,
	VisibilityRoleScoped,
	VisibilitySelectedUsers,
}

// String returns the literal string for the level.
func (v VisibilityLevel) String() string {
	return string(v)
}

// IsValid reports whether the level is known.
func (v VisibilityLevel) IsValid() bool {
	for _, candidate := range validVisibilityLevels {
		if candidate == v {
			return true
		}
	}
	return false
}

// RequiresRole reports whether the level needs an allowed-role qualifier.
func (v VisibilityLevel) RequiresRole() bool {
	return v == VisibilityRoleScoped
}

// ParseVisibilityLevel converts raw input into a VisibilityLevel.
func ParseVisibilityLevel(value string) (VisibilityLevel, error) {
	for _, candidate := range validVisibilityLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visibility level %q", value)
}
