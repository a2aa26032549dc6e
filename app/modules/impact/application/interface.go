package impactservice

import (
	"context"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

// Service defines the contract for impact scoring operations.
type Service interface {
	// SubmitActivity records one activity and runs it through scoring.
	SubmitActivity(ctx context.Context, session authdomain.Session, input impactdomain.ActivityInput) (*SubmissionResult, error)

	// LoadProgress rebuilds the caller's progress from the ledger.
	LoadProgress(ctx context.Context, session authdomain.Session) (*ProgressView, error)

	// ListActivities returns the caller's ledger, newest first.
	ListActivities(ctx context.Context, session authdomain.Session, query HistoryQuery) ([]impactdomain.Activity, error)

	// Achievements returns every badge with its unlock state and progress.
	Achievements(ctx context.Context, session authdomain.Session) (*AchievementsView, error)

	// Leaderboard ranks the caller against the roster.
	Leaderboard(ctx context.Context, session authdomain.Session) (*impactdomain.Ranking, error)

	// ExportActivities renders the caller's ledger as CSV or XLSX.
	ExportActivities(ctx context.Context, session authdomain.Session, format ExportFormat) (*Export, error)

	// RenderPointsChart draws cumulative points per day as a PNG.
	RenderPointsChart(ctx context.Context, session authdomain.Session) ([]byte, error)

	// UpdateProfile sets the caller's leaderboard name.
	UpdateProfile(ctx context.Context, session authdomain.Session, displayName string) error

	// ReconcileUser rewrites cached stats and missing badges from the ledger.
	ReconcileUser(ctx context.Context, userID string) error
}

// ReconcileScheduler enqueues a background reconcile for a user.
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context, userID string) error
}
