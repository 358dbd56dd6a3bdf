package domain

import "strings"

// Role enumerates console operator roles issued by the TripFlow backend.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleVendor Role = "VENDOR"
	RoleDriver Role = "DRIVER"
	RoleRider  Role = "RIDER"
)

// ParseRole normalises a raw role claim. Unknown non-empty roles are kept as-is.
func ParseRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Known reports whether r is one of the console roles.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleDriver, RoleRider:
		return true
	default:
		return false
	}
}

// Capabilities are the role booleans exposed to views.
type Capabilities struct {
	IsAdmin  bool `json:"isAdmin"`
	IsVendor bool `json:"isVendor"`
	IsDriver bool `json:"isDriver"`
	IsRider  bool `json:"isRider"`
}

// CapabilitiesFor derives the capability booleans for a role.
// At most one flag is ever set.
func CapabilitiesFor(r Role) Capabilities {
	switch r {
	case RoleAdmin:
		return Capabilities{IsAdmin: true}
	case RoleVendor:
		return Capabilities{IsVendor: true}
	case RoleDriver:
		return Capabilities{IsDriver: true}
	case RoleRider:
		return Capabilities{IsRider: true}
	default:
		return Capabilities{}
	}
}

// Has reports whether the capability matching role r is set.
func (c Capabilities) Has(r Role) bool {
	switch r {
	case RoleAdmin:
		return c.IsAdmin
	case RoleVendor:
		return c.IsVendor
	case RoleDriver:
		return c.IsDriver
	case RoleRider:
		return c.IsRider
	default:
		return false
	}
}
