package auth

import (
	"errors"
	"strings"
)

// ErrAuthRequired is returned when a guest attempts an operation that needs a signed-in user.
var ErrAuthRequired = errors.New("authentication required")

const guestPrefix = "guest:"

// Caller is the identity every service operation receives explicitly.
type Caller struct {
	UserID string
	Email  string
	Name   string
	Guest  bool
}

// GuestCaller builds the identity for an anonymous browser session.
func GuestCaller(guestID string) Caller {
	return Caller{UserID: guestPrefix + strings.TrimSpace(guestID), Guest: true}
}

// RequireUser fails for guests and empty identities.
func (c Caller) RequireUser() error {
	if c.Guest || strings.TrimSpace(c.UserID) == "" {
		return ErrAuthRequired
	}
	return nil
}

// Owns reports whether ownerID is this caller.
func (c Caller) Owns(ownerID string) bool {
	return c.UserID != "" && c.UserID == ownerID
}
