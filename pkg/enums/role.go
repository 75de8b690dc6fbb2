package enums

import "fmt"

// Role is the closed set of application-level roles carried on a profile.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleKitchenOwner Role = "kitchen_owner"
	RoleManager      Role = "manager"
	RoleStaff        Role = "staff"
)

var validRoles = []Role{
	RoleSuperAdmin,
	RoleKitchenOwner,
	RoleManager,
	RoleStaff,
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
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// LandingPath returns the dashboard entry route for the role.
func (r Role) LandingPath() string {
	if r == RoleSuperAdmin {
		return "/admin"
	}
	return "/dashboard"
}
