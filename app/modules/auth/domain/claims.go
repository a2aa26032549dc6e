package authdomain

import (
	"strings"
	"time"
)

// Claims is what a bearer token asserts about its holder.
type Claims struct {
	UserID      string
	DisplayName string
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// NewClaims builds claims for userID valid for ttl from now.
func NewClaims(userID, displayName string, now time.Time, ttl time.Duration) *Claims {
	return &Claims{
		UserID:      strings.TrimSpace(userID),
		DisplayName: strings.TrimSpace(displayName),
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

// ExpiredAt reports whether the claims are no longer valid at now. Claims
// without an expiry never expire.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
