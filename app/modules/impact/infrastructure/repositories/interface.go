package impactdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// ActivityFilter narrows ListActivities. Zero values mean "no bound".
type ActivityFilter struct {
	Since *time.Time
	Limit int
}

// Repository defines the contract for impact persistence. Every method accepts
// an optional transaction handle; nil means the repository's own connection.
type Repository interface {
	// InsertActivity appends a ledger row.
	InsertActivity(ctx context.Context, db bun.IDB, activity *Activity) error

	// ListActivities returns a user's ledger, newest first.
	ListActivities(ctx context.Context, db bun.IDB, userID string, filter ActivityFilter) ([]Activity, error)

	// GetStats returns the cached stats row or ErrNotFound.
	GetStats(ctx context.Context, db bun.IDB, userID string) (*UserStats, error)

	// UpsertStats creates or replaces the cached stats row.
	UpsertStats(ctx context.Context, db bun.IDB, stats *UserStats) error

	// InsertBadge records an unlock, or returns ErrDuplicateBadge.
	InsertBadge(ctx context.Context, db bun.IDB, badge *UserBadge) error

	// ListBadges returns a user's unlocks, newest first.
	ListBadges(ctx context.Context, db bun.IDB, userID string) ([]UserBadge, error)

	// GetProfile returns the user's profile or ErrNotFound.
	GetProfile(ctx context.Context, db bun.IDB, userID string) (*Profile, error)

	// UpsertProfile creates or updates the user's profile.
	UpsertProfile(ctx context.Context, db bun.IDB, profile *Profile) error
}
