package auth

import (
	"github.com/tripflow/console/internal/domain"
	"github.com/tripflow/console/internal/session"
)

// Decision is the outcome of evaluating a route requirement against a session.
type Decision int

const (
	// Defer means restore has not finished; nothing may be rendered yet.
	Defer Decision = iota
	Allow
	DenyAnonymous
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Defer:
		return "defer"
	case Allow:
		return "allow"
	case DenyAnonymous:
		return "deny_anonymous"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Requirement describes who may see a route. No roles means any signed-in user.
type Requirement struct {
	Roles []domain.Role
}

// Authenticated requires any signed-in user.
func Authenticated() Requirement {
	return Requirement{}
}

// AnyRole requires a signed-in user holding one of roles.
func AnyRole(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles}
}

// Evaluate decides access for one route. It reads only the snapshot it is given.
func Evaluate(snap session.Snapshot, req Requirement) Decision {
	if snap.Status == domain.SessionInitializing {
		return Defer
	}
	if !snap.Authenticated() {
		return DenyAnonymous
	}
	if len(req.Roles) == 0 {
		return Allow
	}
	for _, role := range req.Roles {
		if snap.Has(role) {
			return Allow
		}
	}
	return DenyForbidden
}
