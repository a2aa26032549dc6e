package impactservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"github.com/terrapulse/impact-service/app/shared/clock"
	impactmetrics "github.com/terrapulse/impact-service/app/shared/observability/metrics/impactmetrics"
	"github.com/terrapulse/impact-service/app/shared/results"
)

const (
	serviceName = "ImpactService"

	// DefaultPersistenceTimeout bounds each storage step of a call.
	DefaultPersistenceTimeout = 5 * time.Second
	// DefaultPageSize is the history limit when none is requested.
	DefaultPageSize = 20
)

// Config holds the tunables of the impact service.
type Config struct {
	Evaluator          impactdomain.Evaluator
	Clock              clock.Clock
	PersistenceTimeout time.Duration
	PageSize           int
}

// ImpactService implements the Service interface.
type ImpactService struct {
	repo      impactdb.Repository
	guestRepo impactdb.Repository
	publisher message.Publisher
	scheduler ReconcileScheduler
	config    Config
	logger    *slog.Logger
	metrics   impactmetrics.ImpactMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

// NewImpactService creates a new ImpactService. guestRepo holds guest
// sessions; when nil an in-memory store is created. publisher and scheduler
// are optional.
func NewImpactService(
	repo impactdb.Repository,
	guestRepo impactdb.Repository,
	publisher message.Publisher,
	scheduler ReconcileScheduler,
	config Config,
	logger *slog.Logger,
	metrics impactmetrics.ImpactMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ImpactService {
	if logger == nil {
		logger = slog.Default()
	}
	if guestRepo == nil {
		guestRepo = impactdb.NewMemoryRepository()
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Evaluator.Roster == nil {
		config.Evaluator = impactdomain.NewEvaluator(config.Evaluator.Location, nil)
	}
	if config.PersistenceTimeout <= 0 {
		config.PersistenceTimeout = DefaultPersistenceTimeout
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	return &ImpactService{
		repo:      repo,
		guestRepo: guestRepo,
		publisher: publisher,
		scheduler: scheduler,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
	}
}

var _ Service = (*ImpactService)(nil)

// repoFor routes guests to the in-memory store.
func (s *ImpactService) repoFor(session authdomain.Session) impactdb.Repository {
	if session.Guest {
		return s.guestRepo
	}
	return s.repo
}

func (s *ImpactService) now() time.Time {
	return s.config.Clock.Now().UTC()
}

// snapshot is a user's state as rebuilt from storage.
type snapshot struct {
	progress impactdomain.UserProgress
	missing  []impactdomain.BadgeID
	stored   *impactdb.UserStats
}

// load reads the ledger, badges, cached stats and profile, then rebuilds
// progress from the ledger.
func (s *ImpactService) load(ctx context.Context, repo impactdb.Repository, db bun.IDB, session authdomain.Session, now time.Time) (snapshot, error) {
	rows, err := repo.ListActivities(ctx, db, session.UserID, impactdb.ActivityFilter{})
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to list activities: %w", err)
	}

	stored, err := repo.GetStats(ctx, db, session.UserID)
	if err != nil {
		if !errors.Is(err, impactdb.ErrNotFound) {
			return snapshot{}, fmt.Errorf("failed to get stats: %w", err)
		}
		stored = nil
	}

	badges, err := repo.ListBadges(ctx, db, session.UserID)
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to list badges: %w", err)
	}

	displayName := session.DisplayName
	profile, err := repo.GetProfile(ctx, db, session.UserID)
	switch {
	case err == nil:
		displayName = profile.DisplayName
	case !errors.Is(err, impactdb.ErrNotFound):
		return snapshot{}, fmt.Errorf("failed to get profile: %w", err)
	}

	storedLongest := 0
	if stored != nil {
		storedLongest = stored.LongestStreak
	}

	progress, missing := s.config.Evaluator.Rebuild(session.UserID, toLedger(rows), storedLongest, toUnlocked(badges), now)
	progress.DisplayName = displayName
	return snapshot{progress: progress, missing: missing, stored: stored}, nil
}

// reconcile writes rebuilt stats when the cached row is stale and stores any
// badge the ledger earned but storage lacks. It returns the badges that were
// actually inserted.
func (s *ImpactService) reconcile(ctx context.Context, repo impactdb.Repository, db bun.IDB, snap snapshot) ([]impactdomain.BadgeID, error) {
	p := snap.progress
	if statsStale(snap.stored, p.Stats, len(p.Ledger)) {
		if err := repo.UpsertStats(ctx, db, toStatsModel(p.UserID, p.Stats)); err != nil {
			return nil, fmt.Errorf("failed to upsert stats: %w", err)
		}
	}
	return s.insertBadges(ctx, repo, db, p.UserID, snap.missing, p.Unlocked)
}

// insertBadges stores each badge once. A duplicate means another writer got
// there first and is skipped.
func (s *ImpactService) insertBadges(ctx context.Context, repo impactdb.Repository, db bun.IDB, userID string, ids []impactdomain.BadgeID, unlocked map[impactdomain.BadgeID]time.Time) ([]impactdomain.BadgeID, error) {
	inserted := make([]impactdomain.BadgeID, 0, len(ids))
	for _, id := range ids {
		err := repo.InsertBadge(ctx, db, &impactdb.UserBadge{
			UserID:     userID,
			BadgeID:    string(id),
			UnlockedAt: unlocked[id],
		})
		if errors.Is(err, impactdb.ErrDuplicateBadge) {
			s.logger.DebugContext(ctx, "Badge already stored", attr.UserID(userID), attr.String("badge_id", string(id)))
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to insert badge %s: %w", id, err)
		}
		inserted = append(inserted, id)
	}
	return inserted, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics and panic
// recovery.
func withTelemetry[S any, F any](
	s *ImpactService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	// Start span
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	// Record attempt
	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	// Track duration
	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Handle Infrastructure Error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Handle Domain Failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	// Handle Success
	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// persist runs one storage step under the persistence deadline.
func persist[T any](s *ImpactService, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.PersistenceTimeout)
	defer cancel()
	return fn(ctx)
}

// runInTx runs fn inside a transaction bounded by the persistence deadline.
// Guest sessions and database-less services run fn directly against their
// repository.
func runInTx[S any, F any](
	s *ImpactService,
	ctx context.Context,
	session authdomain.Session,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	return persist(s, ctx, func(ctx context.Context) (results.OperationResult[S, F], error) {
		if s.db == nil || session.Guest {
			return fn(ctx, nil)
		}

		var result results.OperationResult[S, F]
		err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			var txErr error
			result, txErr = fn(ctx, tx)
			return txErr
		})
		return result, err
	})
}

// unwrap converts an instrumented result into the public (value, error) pair.
// Infrastructure errors become a PersistenceError.
func unwrap[S any](operationName string, result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, &PersistenceError{Op: operationName, Err: err}
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
