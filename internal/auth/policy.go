// Package auth carries the caller identity, role-based policy evaluation and
// bearer token validation.
package auth

import (
	"fmt"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Role is the account type issued by the auth provider.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
	RoleVendor    Role = "vendor"
)

// ParseRole converts a raw claim into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleOrganizer, RoleAttendee, RoleVendor:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the authenticated caller. It is passed explicitly into every
// service operation that needs it.
type Identity struct {
	UserID string
	Role   Role
}

// Authenticated reports whether the identity names a user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Action is an operation subject to policy checks.
type Action int

const (
	// ActionUnspecified is never allowed.
	ActionUnspecified Action = iota
	// ActionCreateEvent publishes a new event.
	ActionCreateEvent
	// ActionManageEvent edits an existing event.
	ActionManageEvent
	// ActionViewRegistration reads a single registration.
	ActionViewRegistration
	// ActionMutateRegistration cancels or pays for a registration.
	ActionMutateRegistration
	// ActionManageRegistrations lists, inspects or overrides registrations
	// of an event as its organizer.
	ActionManageRegistrations
)

// Resource names the ownership facts a policy decision depends on.
type Resource struct {
	// OwnerID is the user holding a registration.
	OwnerID string
	// CreatorID is the user who created the event.
	CreatorID string
}

// Authorize decides whether id may perform action on res. It returns
// model.ErrUnauthenticated for anonymous callers and model.ErrUnauthorized
// for every refusal.
func Authorize(id Identity, action Action, res Resource) error {
	if !id.Authenticated() {
		return model.ErrUnauthenticated
	}

	allowed := false
	switch action {
	case ActionCreateEvent:
		allowed = id.HasRole(RoleOrganizer, RoleAdmin)
	case ActionManageEvent:
		allowed = id.Role == RoleAdmin || id.UserID == res.CreatorID
	case ActionViewRegistration:
		allowed = id.Role == RoleAdmin || id.UserID == res.OwnerID || id.UserID == res.CreatorID
	case ActionMutateRegistration:
		allowed = id.UserID == res.OwnerID
	case ActionManageRegistrations:
		allowed = id.Role == RoleAdmin || (id.Role == RoleOrganizer && id.UserID == res.CreatorID)
	}

	if !allowed {
		return model.ErrUnauthorized
	}
	return nil
}
