package impactqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/riverqueue/river"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

// ErrNoReconciler is returned by the worker before a reconciler is bound.
// River retries the job.
var ErrNoReconciler = errors.New("no reconciler bound to worker")

// StatsReconciler rebuilds a user's cached state from the ledger.
type StatsReconciler interface {
	ReconcileUser(ctx context.Context, userID string) error
}

// ReconcileWorker executes ReconcileStatsJob.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileStatsJob]

	logger *slog.Logger

	mu         sync.RWMutex
	reconciler StatsReconciler
}

// NewReconcileWorker creates a worker. The reconciler is bound later with
// SetReconciler because the service that implements it also schedules jobs.
func NewReconcileWorker(logger *slog.Logger) *ReconcileWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileWorker{logger: logger}
}

// SetReconciler binds the component that performs the rebuild.
func (w *ReconcileWorker) SetReconciler(r StatsReconciler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reconciler = r
}

// Timeout bounds one reconcile attempt.
func (w *ReconcileWorker) Timeout(*river.Job[ReconcileStatsJob]) time.Duration {
	return 30 * time.Second
}

// Work runs the reconcile for job.Args.UserID.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileStatsJob]) error {
	w.mu.RLock()
	reconciler := w.reconciler
	w.mu.RUnlock()

	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
		attr.UserID(job.Args.UserID),
	)

	if reconciler == nil {
		logger.WarnContext(ctx, "Reconcile job received before reconciler was bound")
		return ErrNoReconciler
	}
	if job.Args.UserID == "" {
		logger.ErrorContext(ctx, "Reconcile job without user id")
		return river.JobCancel(errors.New("reconcile job has no user id"))
	}

	if err := reconciler.ReconcileUser(ctx, job.Args.UserID); err != nil {
		logger.ErrorContext(ctx, "Reconcile failed", attr.Error(err))
		return fmt.Errorf("reconcile user %s: %w", job.Args.UserID, err)
	}

	logger.InfoContext(ctx, "Reconciled user stats")
	return nil
}
