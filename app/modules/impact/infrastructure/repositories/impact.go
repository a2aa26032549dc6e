package impactdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new impact repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// InsertActivity appends a ledger row.
func (r *Impl) InsertActivity(ctx context.Context, db bun.IDB, activity *Activity) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(activity).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a user's ledger, newest first.
func (r *Impl) ListActivities(ctx context.Context, db bun.IDB, userID string, filter ActivityFilter) ([]Activity, error) {
	db = r.resolveDB(db)
	var activities []Activity
	q := db.NewSelect().
		Model(&activities).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC")
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// GetStats returns the cached stats row or ErrNotFound.
func (r *Impl) GetStats(ctx context.Context, db bun.IDB, userID string) (*UserStats, error) {
	db = r.resolveDB(db)
	stats := new(UserStats)
	err := db.NewSelect().
		Model(stats).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// UpsertStats creates or replaces the cached stats row.
func (r *Impl) UpsertStats(ctx context.Context, db bun.IDB, stats *UserStats) error {
	db = r.resolveDB(db)
	stats.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO UPDATE").
		Set("total_points = EXCLUDED.total_points").
		Set("current_streak = EXCLUDED.current_streak").
		Set("longest_streak = GREATEST(us.longest_streak, EXCLUDED.longest_streak)").
		Set("last_activity_date = EXCLUDED.last_activity_date").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}
	return nil
}

// InsertBadge records an unlock. The unique (user_id, badge_id) constraint is
// resolved with DO NOTHING so a duplicate never aborts the surrounding
// transaction; it is reported as ErrDuplicateBadge instead.
func (r *Impl) InsertBadge(ctx context.Context, db bun.IDB, badge *UserBadge) error {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(badge).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert badge: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDuplicateBadge
	}
	return nil
}

// ListBadges returns a user's unlocks, newest first.
func (r *Impl) ListBadges(ctx context.Context, db bun.IDB, userID string) ([]UserBadge, error) {
	db = r.resolveDB(db)
	var badges []UserBadge
	err := db.NewSelect().
		Model(&badges).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// GetProfile returns the user's profile or ErrNotFound.
func (r *Impl) GetProfile(ctx context.Context, db bun.IDB, userID string) (*Profile, error) {
	db = r.resolveDB(db)
	profile := new(Profile)
	err := db.NewSelect().
		Model(profile).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or updates the user's profile.
func (r *Impl) UpsertProfile(ctx context.Context, db bun.IDB, profile *Profile) error {
	db = r.resolveDB(db)
	profile.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
