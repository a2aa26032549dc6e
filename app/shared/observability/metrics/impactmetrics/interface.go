package impactmetrics

import (
	"context"
	"time"
)

// ImpactMetrics records telemetry for the impact scoring service.
type ImpactMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	// RecordPointsAwarded counts points granted per activity type.
	RecordPointsAwarded(ctx context.Context, activityType string, points int)
	// RecordBadgeUnlocked counts first-time badge unlocks.
	RecordBadgeUnlocked(ctx context.Context, badgeID string)
	// RecordSubmissionUnconfirmed counts submissions whose follow-up writes failed.
	RecordSubmissionUnconfirmed(ctx context.Context)
	// RecordReconcileScheduled counts reconcile jobs handed to the queue.
	RecordReconcileScheduled(ctx context.Context)
}
