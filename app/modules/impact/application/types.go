package impactservice

import (
	"time"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

// SubmissionStatus says whether every write of a submission was stored.
type SubmissionStatus string

const (
	// StatusConfirmed means the activity, stats and badges were all stored.
	StatusConfirmed SubmissionStatus = "confirmed"
	// StatusUnconfirmed means the activity was stored but a follow-up write
	// failed; a reconcile has been requested.
	StatusUnconfirmed SubmissionStatus = "unconfirmed"
)

// SubmissionResult is the outcome of SubmitActivity.
type SubmissionResult struct {
	Status       SubmissionStatus
	Activity     impactdomain.Activity
	PointsEarned int
	Stats        impactdomain.UserStats
	Level        impactdomain.LevelInfo
	Ranking      impactdomain.Ranking
	// Celebrations is nil unless Status is StatusConfirmed.
	Celebrations *Celebrations
	// ReconcileScheduled is set when an unconfirmed result queued a repair.
	ReconcileScheduled bool

	storedBadges []impactdomain.BadgeID
}

// Confirmed reports whether every write succeeded.
func (r *SubmissionResult) Confirmed() bool {
	return r.Status == StatusConfirmed
}

// Celebrations are the user-facing signals of a confirmed submission.
type Celebrations struct {
	UnlockedBadges []impactdomain.BadgeRule
	RankImproved   bool
	RankDelta      int
	LeveledUp      bool
}

// ProgressView is the dashboard snapshot for one user.
type ProgressView struct {
	UserID           string
	DisplayName      string
	Guest            bool
	Stats            impactdomain.UserStats
	Level            impactdomain.LevelInfo
	Totals           map[impactdomain.ActivityType]int
	Rank             int
	UnlockedCount    int
	RecentActivities []impactdomain.Activity
}

// AchievementsView splits the badge table into unlocked (newest first) and
// locked entries.
type AchievementsView struct {
	Unlocked []impactdomain.BadgeStatus
	Locked   []impactdomain.BadgeStatus
}

// HistoryQuery filters ListActivities. Filter is "week", "month", "all", ""
// or a natural-language expression such as "2 weeks ago".
type HistoryQuery struct {
	Filter string
	Limit  int
}

// ExportFormat selects an export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ActivityLoggedEvent is published for every confirmed submission.
type ActivityLoggedEvent struct {
	UserID       string    `json:"user_id"`
	ActivityID   string    `json:"activity_id"`
	ActivityType string    `json:"activity_type"`
	Quantity     int       `json:"quantity"`
	PointsEarned int       `json:"points_earned"`
	TotalPoints  int       `json:"total_points"`
	Streak       int       `json:"current_streak"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// BadgeUnlockedEvent is published once per newly stored badge.
type BadgeUnlockedEvent struct {
	UserID     string    `json:"user_id"`
	BadgeID    string    `json:"badge_id"`
	BadgeName  string    `json:"badge_name"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// RankImprovedEvent is published when a submission moves the user up.
type RankImprovedEvent struct {
	UserID       string    `json:"user_id"`
	PreviousRank int       `json:"previous_rank"`
	Rank         int       `json:"rank"`
	Delta        int       `json:"delta"`
	OccurredAt   time.Time `json:"occurred_at"`
}
