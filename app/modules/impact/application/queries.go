package impactservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/uptrace/bun"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
	"github.com/terrapulse/impact-service/app/shared/attr"
	"github.com/terrapulse/impact-service/app/shared/results"
)

// MaxPageSize caps ListActivities.
const MaxPageSize = 500

// loadAndReconcile rebuilds progress and writes back anything storage is
// missing.
func (s *ImpactService) loadAndReconcile(ctx context.Context, repo impactdb.Repository, db bun.IDB, session authdomain.Session, now time.Time) (impactdomain.UserProgress, error) {
	snap, err := s.load(ctx, repo, db, session, now)
	if err != nil {
		return impactdomain.UserProgress{}, err
	}
	inserted, err := s.reconcile(ctx, repo, db, snap)
	if err != nil {
		return impactdomain.UserProgress{}, err
	}
	if len(inserted) > 0 {
		s.logger.InfoContext(ctx, "Recovered missing badges",
			attr.UserID(session.UserID),
			attr.Any("badges", inserted),
		)
		if s.metrics != nil {
			for _, id := range inserted {
				s.metrics.RecordBadgeUnlocked(ctx, string(id))
			}
		}
	}
	return snap.progress, nil
}

// LoadProgress rebuilds the caller's progress from the ledger.
func (s *ImpactService) LoadProgress(ctx context.Context, session authdomain.Session) (*ProgressView, error) {
	now := s.now()
	repo := s.repoFor(session)

	loadTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*ProgressView, error], error) {
		p, err := s.loadAndReconcile(ctx, repo, db, session, now)
		if err != nil {
			return results.OperationResult[*ProgressView, error]{}, err
		}
		return results.SuccessResult[*ProgressView, error](s.progressView(session, p)), nil
	}

	result, err := withTelemetry(s, ctx, "LoadProgress", session.UserID, func(ctx context.Context) (results.OperationResult[*ProgressView, error], error) {
		return runInTx(s, ctx, session, loadTx)
	})
	return unwrap("LoadProgress", result, err)
}

func (s *ImpactService) progressView(session authdomain.Session, p impactdomain.UserProgress) *ProgressView {
	recent := slices.Clone(p.Ledger)
	slices.Reverse(recent)
	if len(recent) > s.config.PageSize {
		recent = recent[:s.config.PageSize]
	}
	ranking := s.config.Evaluator.Ranking(p, p.Stats.TotalPoints)
	return &ProgressView{
		UserID:           p.UserID,
		DisplayName:      ranking.Entries[ranking.SelfRank-1].DisplayName,
		Guest:            session.Guest,
		Stats:            p.Stats,
		Level:            p.Level(),
		Totals:           p.Totals,
		Rank:             ranking.SelfRank,
		UnlockedCount:    len(p.Unlocked),
		RecentActivities: recent,
	}
}

// ListActivities returns the caller's ledger, newest first.
func (s *ImpactService) ListActivities(ctx context.Context, session authdomain.Session, query HistoryQuery) ([]impactdomain.Activity, error) {
	now := s.now()
	repo := s.repoFor(session)

	listOp := func(ctx context.Context) (results.OperationResult[[]impactdomain.Activity, error], error) {
		since, err := ParseSince(query.Filter, now)
		if err != nil {
			return results.FailureResult[[]impactdomain.Activity, error](err), nil
		}
		limit := query.Limit
		if limit <= 0 {
			limit = s.config.PageSize
		}
		rows, err := persist(s, ctx, func(ctx context.Context) ([]impactdb.Activity, error) {
			return repo.ListActivities(ctx, nil, session.UserID, impactdb.ActivityFilter{Since: since, Limit: min(limit, MaxPageSize)})
		})
		if err != nil {
			return results.OperationResult[[]impactdomain.Activity, error]{}, fmt.Errorf("failed to list activities: %w", err)
		}
		return results.SuccessResult[[]impactdomain.Activity, error](toActivities(rows)), nil
	}

	result, err := withTelemetry(s, ctx, "ListActivities", session.UserID, listOp)
	return unwrap("ListActivities", result, err)
}

// Achievements returns every badge with its unlock state and progress.
func (s *ImpactService) Achievements(ctx context.Context, session authdomain.Session) (*AchievementsView, error) {
	now := s.now()
	repo := s.repoFor(session)

	achievementsTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*AchievementsView, error], error) {
		p, err := s.loadAndReconcile(ctx, repo, db, session, now)
		if err != nil {
			return results.OperationResult[*AchievementsView, error]{}, err
		}

		view := &AchievementsView{}
		for _, status := range impactdomain.BadgeStatuses(p.Totals, p.Streak(), p.Unlocked) {
			if status.Unlocked {
				view.Unlocked = append(view.Unlocked, status)
			} else {
				view.Locked = append(view.Locked, status)
			}
		}
		slices.SortStableFunc(view.Unlocked, func(a, b impactdomain.BadgeStatus) int {
			return b.UnlockedAt.Compare(a.UnlockedAt)
		})
		return results.SuccessResult[*AchievementsView, error](view), nil
	}

	result, err := withTelemetry(s, ctx, "Achievements", session.UserID, func(ctx context.Context) (results.OperationResult[*AchievementsView, error], error) {
		return runInTx(s, ctx, session, achievementsTx)
	})
	return unwrap("Achievements", result, err)
}

// Leaderboard ranks the caller against the roster.
func (s *ImpactService) Leaderboard(ctx context.Context, session authdomain.Session) (*impactdomain.Ranking, error) {
	now := s.now()
	repo := s.repoFor(session)

	leaderboardTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*impactdomain.Ranking, error], error) {
		p, err := s.loadAndReconcile(ctx, repo, db, session, now)
		if err != nil {
			return results.OperationResult[*impactdomain.Ranking, error]{}, err
		}
		ranking := s.config.Evaluator.Ranking(p, p.Stats.TotalPoints)
		return results.SuccessResult[*impactdomain.Ranking, error](&ranking), nil
	}

	result, err := withTelemetry(s, ctx, "Leaderboard", session.UserID, func(ctx context.Context) (results.OperationResult[*impactdomain.Ranking, error], error) {
		return runInTx(s, ctx, session, leaderboardTx)
	})
	return unwrap("Leaderboard", result, err)
}

// ExportActivities renders the caller's full ledger as CSV or XLSX.
func (s *ImpactService) ExportActivities(ctx context.Context, session authdomain.Session, format ExportFormat) (*Export, error) {
	now := s.now()
	repo := s.repoFor(session)

	exportOp := func(ctx context.Context) (results.OperationResult[*Export, error], error) {
		if format != ExportCSV && format != ExportXLSX {
			return results.FailureResult[*Export, error](fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)), nil
		}
		rows, err := s.ledgerRows(ctx, repo, session.UserID)
		if err != nil {
			return results.OperationResult[*Export, error]{}, fmt.Errorf("failed to list activities: %w", err)
		}
		export, err := encodeExport(format, toActivities(rows), now)
		if err != nil {
			return results.OperationResult[*Export, error]{}, fmt.Errorf("failed to encode export: %w", err)
		}
		return results.SuccessResult[*Export, error](export), nil
	}

	result, err := withTelemetry(s, ctx, "ExportActivities", session.UserID, exportOp)
	return unwrap("ExportActivities", result, err)
}

// ledgerRows reads a user's full ledger. Only the read is bounded by the
// persistence deadline; encoding and rendering run after it.
func (s *ImpactService) ledgerRows(ctx context.Context, repo impactdb.Repository, userID string) ([]impactdb.Activity, error) {
	return persist(s, ctx, func(ctx context.Context) ([]impactdb.Activity, error) {
		return repo.ListActivities(ctx, nil, userID, impactdb.ActivityFilter{})
	})
}

// RenderPointsChart draws cumulative points per day as a PNG.
func (s *ImpactService) RenderPointsChart(ctx context.Context, session authdomain.Session) ([]byte, error) {
	now := s.now()
	repo := s.repoFor(session)

	chartOp := func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		rows, err := s.ledgerRows(ctx, repo, session.UserID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to list activities: %w", err)
		}
		png, err := RenderPointsHistoryChart(toLedger(rows), s.config.Evaluator.Location, now)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	}

	result, err := withTelemetry(s, ctx, "RenderPointsChart", session.UserID, chartOp)
	return unwrap("RenderPointsChart", result, err)
}

// UpdateProfile sets the caller's leaderboard name.
func (s *ImpactService) UpdateProfile(ctx context.Context, session authdomain.Session, displayName string) error {
	repo := s.repoFor(session)

	updateOp := func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		name, err := impactdomain.NormalizeDisplayName(displayName)
		if err != nil {
			return results.FailureResult[struct{}, error](err), nil
		}
		_, err = persist(s, ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, repo.UpsertProfile(ctx, nil, &impactdb.Profile{UserID: session.UserID, DisplayName: name})
		})
		if err != nil {
			return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to upsert profile: %w", err)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}

	result, err := withTelemetry(s, ctx, "UpdateProfile", session.UserID, updateOp)
	_, err = unwrap("UpdateProfile", result, err)
	return err
}

// ReconcileUser rewrites cached stats and missing badges from the ledger. It
// is the repair path for unconfirmed submissions.
func (s *ImpactService) ReconcileUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("reconcile requires a user id")
	}
	now := s.now()
	session := authdomain.Session{UserID: userID}

	reconcileTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
		if _, err := s.loadAndReconcile(ctx, s.repo, db, session, now); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}

	result, err := withTelemetry(s, ctx, "ReconcileUser", userID, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		return runInTx(s, ctx, session, reconcileTx)
	})
	_, err = unwrap("ReconcileUser", result, err)
	return err
}
