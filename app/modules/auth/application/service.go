package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	authjwt "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/jwt"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTokenTTL applies when IssueToken is called without a ttl.
const DefaultTokenTTL = 24 * time.Hour

// service implements the Service interface.
type service struct {
	jwtProvider authjwt.Provider
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service. A nil provider runs the service in
// guest-only mode.
func NewService(jwtProvider authjwt.Provider, logger *slog.Logger, tracer trace.Tracer) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		jwtProvider: jwtProvider,
		logger:      logger,
		tracer:      tracer,
	}
}

// ValidateToken validates a JWT token and returns the claims if valid.
func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if s.jwtProvider == nil {
		return nil, ErrAuthDisabled
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		s.logger.WarnContext(ctx, "Token validation failed",
			attr.Error(err),
		)
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	// Providers are pluggable; expiry is enforced here regardless.
	if claims.ExpiredAt(time.Now()) {
		return nil, fmt.Errorf("%w: token expired at %s", ErrExpiredToken, claims.ExpiresAt.Format(time.RFC3339))
	}

	s.logger.DebugContext(ctx, "Token validated successfully",
		attr.UserID(claims.UserID),
	)

	return claims, nil
}

// ResolveSession resolves the caller for an impact request.
func (s *service) ResolveSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ResolveSession")
	defer span.End()

	if token := strings.TrimSpace(req.BearerToken); token != "" {
		claims, err := s.ValidateToken(ctx, token)
		if err != nil {
			return nil, err
		}
		return &SessionResponse{Session: authdomain.SessionFromClaims(claims)}, nil
	}

	if id, err := uuid.Parse(strings.TrimSpace(req.GuestID)); err == nil {
		return &SessionResponse{Session: authdomain.GuestSession(id)}, nil
	} else if req.GuestID != "" {
		s.logger.DebugContext(ctx, "Ignoring malformed guest id", attr.String("guest_id", req.GuestID))
	}

	session := authdomain.NewGuestSession()
	s.logger.InfoContext(ctx, "Started guest session", attr.UserID(session.UserID))
	return &SessionResponse{Session: session, NewGuest: true}, nil
}

// IssueToken signs a token for userID.
func (s *service) IssueToken(ctx context.Context, userID, displayName string, ttl time.Duration) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.IssueToken")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if s.jwtProvider == nil {
		return nil, ErrAuthDisabled
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	claims := authdomain.NewClaims(userID, displayName, time.Now(), ttl)
	token, err := s.jwtProvider.GenerateToken(claims, ttl)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token",
			attr.Error(err),
			attr.UserID(userID),
		)
		return nil, fmt.Errorf("%w: %w", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Issued token", attr.UserID(userID), attr.Duration("ttl", ttl))
	return &TokenResponse{Token: token, ExpiresAt: claims.ExpiresAt}, nil
}
