package authdomain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// GuestUserPrefix marks user IDs that belong to guest sessions.
const GuestUserPrefix = "guest:"

// Session is the caller identity attached to every impact request.
type Session struct {
	UserID      string
	DisplayName string
	Guest       bool
}

// SessionFromClaims builds an authenticated session.
func SessionFromClaims(c *Claims) Session {
	return Session{UserID: c.UserID, DisplayName: c.DisplayName}
}

// NewGuestSession mints a fresh guest session.
func NewGuestSession() Session {
	return GuestSession(uuid.New())
}

// GuestSession returns the guest session for an existing guest id.
func GuestSession(id uuid.UUID) Session {
	return Session{UserID: GuestUserPrefix + id.String(), Guest: true}
}

// GuestID returns the bare guest id, or "" for authenticated sessions.
func (s Session) GuestID() string {
	if !s.Guest {
		return ""
	}
	return strings.TrimPrefix(s.UserID, GuestUserPrefix)
}

type sessionKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
