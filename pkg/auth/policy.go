package auth

import (
	"errors"

	"github.com/google/uuid"
)

var errMissingToken = errors.New("missing bearer token")

// Action classifies what a request wants to do with a resource.
type Action string

const (
	// ActionView reads a resource.
	ActionView Action = "view"
	// ActionEdit creates, updates or deletes a resource.
	ActionEdit Action = "edit"
	// ActionAdminister manages accounts and roles.
	ActionAdminister Action = "administer"
)

// CanAccess is the central authorization decision: administration requires
// the admin role, everything else is owner-or-admin. ownerID is uuid.Nil
// for resources that have no single owner, such as the user directory.
// Ownership-scoped reads additionally narrow by user_id at the query level,
// so a denied actor sees 404 rather than 403.
func CanAccess(claims *Claims, ownerID uuid.UUID, action Action) bool {
	if claims == nil {
		return false
	}
	if action == ActionAdminister {
		return claims.IsAdmin()
	}
	if claims.IsAdmin() {
		return true
	}
	return claims.Subject == ownerID.String()
}
