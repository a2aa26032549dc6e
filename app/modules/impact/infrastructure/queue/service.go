package impactqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

// QueueName is the dedicated River queue for impact jobs.
const QueueName = "impact"

// Metrics is the subset of service metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService interface defines the contract for reconcile job operations
type QueueService interface {
	// ScheduleReconcile enqueues a reconcile for userID; an identical pending job is reused
	ScheduleReconcile(ctx context.Context, userID string) error
	// PendingJobs returns the reconcile jobs recorded for a user (for debugging)
	PendingJobs(ctx context.Context, userID string) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// uniqueStates are the job states that make a new insert a duplicate. Finished
// jobs are left out so a later failure can be repaired again.
var uniqueStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// Service handles reconcile jobs for the impact module using River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	worker  *ReconcileWorker
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics
}

// NewService creates a new River-based queue service
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_impact_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing impact queue service")

	// River requires pgx, not database/sql
	pool, err := newPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to connect River pool", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, err
	}

	workers := river.NewWorkers()
	worker := NewReconcileWorker(ctxLogger)
	river.AddWorker(workers, worker)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: 25},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		worker:  worker,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Impact queue service initialized successfully")
	return service, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies River's schema migrations to the database behind dsn.
func Migrate(ctx context.Context, dsn string) (int, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return 0, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return len(res.Versions), nil
}

// SetReconciler binds the component that performs reconciles.
func (s *Service) SetReconciler(r StatsReconciler) {
	s.worker.SetReconciler(r)
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.logger.Info("Starting impact queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))

	s.logger.Info("Impact queue service started successfully")
	return nil
}

// Stop stops the River queue service and releases its pool
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping impact queue service")

	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", time.Since(start))

	s.logger.Info("Impact queue service stopped successfully")
	return nil
}

// ScheduleReconcile enqueues a reconcile job for userID
func (s *Service) ScheduleReconcile(ctx context.Context, userID string) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_reconcile", "river")

	ctxLogger := s.logger.With(
		attr.UserID(userID),
		attr.String("operation", "schedule_reconcile"),
	)

	jobResult, err := s.client.Insert(ctx, ReconcileStatsJob{UserID: userID}, &river.InsertOpts{
		Queue: QueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: uniqueStates,
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule reconcile job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_reconcile", "river")
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_reconcile", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_reconcile", "river", time.Since(start))

	ctxLogger.Info("Reconcile job scheduled",
		attr.Int64("job_id", jobResult.Job.ID),
		attr.Bool("deduplicated", jobResult.UniqueSkippedAsDuplicate))
	return nil
}

// PendingJobs returns the reconcile jobs recorded for a user (for debugging)
func (s *Service) PendingJobs(ctx context.Context, userID string) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64     `bun:"id"`
		Kind        string    `bun:"kind"`
		State       string    `bun:"state"`
		CreatedAt   time.Time `bun:"created_at"`
		Attempt     int16     `bun:"attempt"`
		MaxAttempts int16     `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "created_at", "attempt", "max_attempts").
		Where("kind = ?", ReconcileStatsJob{}.Kind()).
		Where("args->>'user_id' = ?", userID).
		Order("created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			UserID:      userID,
			State:       job.State,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return result, nil
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
