package authservice

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrAuthDisabled is returned when a token is presented but no signing
	// secret is configured.
	ErrAuthDisabled = errors.New("token authentication is not configured")

	// ErrGenerateToken is returned when token generation fails.
	ErrGenerateToken = errors.New("failed to generate token")

	// ErrMissingUserID is returned when a token is requested without a user.
	ErrMissingUserID = errors.New("user id is required")
)
