package authservice

import (
	"context"
	"time"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)

	// ResolveSession turns the request credentials into a session. A bearer
	// token wins; without one the guest id is reused or a new guest is minted.
	ResolveSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)

	// IssueToken signs a token for a user. Used by operator tooling and tests;
	// production tokens come from the identity service.
	IssueToken(ctx context.Context, userID, displayName string, ttl time.Duration) (*TokenResponse, error)
}

// SessionRequest carries the credentials found on an incoming request.
type SessionRequest struct {
	BearerToken string
	GuestID     string
}

// SessionResponse is the resolved caller.
type SessionResponse struct {
	Session authdomain.Session
	// NewGuest is true when a guest id was minted for this request.
	NewGuest bool
}

// TokenResponse holds a signed token and its expiry.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
