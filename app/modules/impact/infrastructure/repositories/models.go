package impactdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Activity is one immutable ledger row.
type Activity struct {
	bun.BaseModel `bun:"table:activities,alias:a"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	UserID       string    `bun:"user_id,notnull"`
	ActivityType string    `bun:"activity_type,notnull"`
	Quantity     int       `bun:"quantity,notnull"`
	Location     *string   `bun:"location"`
	PointsEarned int       `bun:"points_earned,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// UserStats caches the derived summary of a user's ledger.
type UserStats struct {
	bun.BaseModel `bun:"table:user_stats,alias:us"`

	UserID           string     `bun:"user_id,pk"`
	TotalPoints      int        `bun:"total_points,notnull,default:0"`
	CurrentStreak    int        `bun:"current_streak,notnull,default:0"`
	LongestStreak    int        `bun:"longest_streak,notnull,default:0"`
	LastActivityDate *time.Time `bun:"last_activity_date,type:date"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// UserBadge records a badge unlock; (user_id, badge_id) is unique.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     string    `bun:"user_id,notnull,unique:user_badges_user_badge_key"`
	BadgeID    string    `bun:"badge_id,notnull,unique:user_badges_user_badge_key"`
	UnlockedAt time.Time `bun:"unlocked_at,nullzero,notnull,default:current_timestamp"`
}

// Profile holds the public name shown on the leaderboard.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID      string    `bun:"user_id,pk"`
	DisplayName string    `bun:"display_name,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
