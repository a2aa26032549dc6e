package impact

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	authhandlers "github.com/terrapulse/impact-service/app/modules/auth/infrastructure/handlers"
	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	impacthandlers "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/handlers"
	impactqueue "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/queue"
	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
	impactrouter "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/router"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"github.com/terrapulse/impact-service/app/shared/observability"
	"github.com/terrapulse/impact-service/config"
)

// minSweepInterval keeps the guest sweeper from spinning on tiny TTLs.
const minSweepInterval = time.Minute

// Module represents the impact module.
type Module struct {
	ImpactService impactservice.Service

	config    *config.Config
	guestRepo *impactdb.MemoryRepository
	queue     *impactqueue.Service
	router    *impactrouter.Router
	logger    *slog.Logger

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// NewImpactModule creates and initializes the impact module. With a nil db
// every user is kept in memory and no reconcile queue runs.
func NewImpactModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	publisher message.Publisher,
	sessionMiddleware func(http.Handler) http.Handler,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "impact.NewImpactModule initializing")

	loc, err := cfg.Impact.Location()
	if err != nil {
		return nil, err
	}

	// 1. Initialize repositories and the reconcile queue
	guestRepo := impactdb.NewMemoryRepository()
	var (
		repo      impactdb.Repository
		queue     *impactqueue.Service
		scheduler impactservice.ReconcileScheduler
	)
	if db != nil {
		repo = impactdb.NewRepository(db)
		queue, err = impactqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, obs.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create impact queue: %w", err)
		}
		scheduler = queue
	} else {
		logger.WarnContext(ctx, "No database configured, impact data lives in memory")
		repo = impactdb.NewMemoryRepository()
	}

	// 2. Initialize Service
	service := impactservice.NewImpactService(
		repo,
		guestRepo,
		publisher,
		scheduler,
		impactservice.Config{
			Evaluator:          impactdomain.NewEvaluator(loc, RosterEntries(cfg.Impact.Roster)),
			PersistenceTimeout: cfg.Impact.PersistenceTimeout,
			PageSize:           cfg.Impact.ActivityPageSize,
		},
		logger,
		obs.Metrics,
		tracer,
		db,
	)
	if queue != nil {
		queue.SetReconciler(service)
	}

	// 3. Initialize Handlers and Router
	handlers := impacthandlers.NewImpactHandlers(service, logger, tracer)
	limiter := authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst)
	router := impactrouter.NewRouter(handlers, impactrouter.Config{
		CORS:       authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins),
		Session:    sessionMiddleware,
		WriteLimit: authhandlers.RateLimitMiddleware(limiter),
	})

	return &Module{
		ImpactService: service,
		config:        cfg,
		guestRepo:     guestRepo,
		queue:         queue,
		router:        router,
		logger:        logger,
	}, nil
}

// RosterEntries maps configured participants onto leaderboard rows.
func RosterEntries(roster []config.RosterEntry) []impactdomain.LeaderboardEntry {
	if len(roster) == 0 {
		return nil
	}
	entries := make([]impactdomain.LeaderboardEntry, 0, len(roster))
	for _, r := range roster {
		entries = append(entries, impactdomain.LeaderboardEntry{
			UserID:      "roster-" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(r.Name)), " ", "-"),
			DisplayName: r.Name,
			Points:      r.Points,
		})
	}
	return entries
}

// RegisterRoutes mounts the impact HTTP routes.
func (m *Module) RegisterRoutes(mux chi.Router) {
	m.router.Register(mux)
}

// Run starts the reconcile queue and sweeps idle guest sessions until ctx is
// cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting impact module")

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancelFunc = cancel
	m.mu.Unlock()
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		// The queue outlives ctx so Close can drain it gracefully.
		if err := m.queue.Start(context.WithoutCancel(ctx)); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start impact queue", attr.Error(err))
		}
	}

	ttl := m.config.Impact.GuestTTL
	interval := max(ttl/4, minSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "Impact module goroutine stopped")
			return
		case <-ticker.C:
			if n := m.guestRepo.Sweep(ttl); n > 0 {
				m.logger.InfoContext(ctx, "Dropped idle guest sessions", attr.Int("count", n))
			}
		}
	}
}

// HealthCheck reports whether the reconcile queue can reach Postgres.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.HealthCheck(ctx)
}

// Close shuts down the impact module.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping impact module")

	m.mu.Lock()
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.mu.Unlock()

	if m.queue != nil {
		if err := m.queue.Stop(ctx); err != nil {
			m.logger.Error("Error stopping impact queue", attr.Error(err))
			return fmt.Errorf("error stopping impact queue: %w", err)
		}
	}

	m.logger.Info("Impact module stopped")
	return nil
}
