package authhandlers

import (
	"context"
	"time"

	authservice "github.com/terrapulse/impact-service/app/modules/auth/application"
	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	trace []string

	ValidateTokenFunc  func(ctx context.Context, tokenString string) (*authdomain.Claims, error)
	ResolveSessionFunc func(ctx context.Context, req authservice.SessionRequest) (*authservice.SessionResponse, error)
	IssueTokenFunc     func(ctx context.Context, userID, displayName string, ttl time.Duration) (*authservice.TokenResponse, error)
}

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	f.record("ValidateToken")
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(ctx, tokenString)
	}
	return &authdomain.Claims{}, nil
}

func (f *FakeService) ResolveSession(ctx context.Context, req authservice.SessionRequest) (*authservice.SessionResponse, error) {
	f.record("ResolveSession")
	if f.ResolveSessionFunc != nil {
		return f.ResolveSessionFunc(ctx, req)
	}
	return &authservice.SessionResponse{Session: authdomain.Session{UserID: "user-1", DisplayName: "Ada"}}, nil
}

func (f *FakeService) IssueToken(ctx context.Context, userID, displayName string, ttl time.Duration) (*authservice.TokenResponse, error) {
	f.record("IssueToken")
	if f.IssueTokenFunc != nil {
		return f.IssueTokenFunc(ctx, userID, displayName, ttl)
	}
	return &authservice.TokenResponse{Token: "fake-token"}, nil
}
