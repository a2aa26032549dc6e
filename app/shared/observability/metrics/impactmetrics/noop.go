package impactmetrics

import (
	"context"
	"time"
)

type noop struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() ImpactMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordPointsAwarded(context.Context, string, int)                       {}
func (noop) RecordBadgeUnlocked(context.Context, string)                            {}
func (noop) RecordSubmissionUnconfirmed(context.Context)                            {}
func (noop) RecordReconcileScheduled(context.Context)                               {}
