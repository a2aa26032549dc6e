package impactdb

import "errors"

var (
	// ErrNotFound is returned when a stats or profile row does not exist.
	ErrNotFound = errors.New("impact record not found")

	// ErrDuplicateBadge is returned when a (user, badge) unlock already exists.
	// Callers treat it as a successful no-op.
	ErrDuplicateBadge = errors.New("badge already unlocked")
)
