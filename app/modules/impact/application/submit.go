package impactservice

import (
	"context"
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

// SubmitActivity validates input, appends it to the caller's ledger and
// evaluates it exactly once against the rebuilt ledger. The activity commits
// on its own; stats and badges follow in a second transaction, and a failure
// there leaves an unconfirmed result with a reconcile scheduled.
func (s *ImpactService) SubmitActivity(ctx context.Context, session authdomain.Session, input impactdomain.ActivityInput) (*SubmissionResult, error) {
	now := s.now()
	repo := s.repoFor(session)

	result, err := withTelemetry(s, ctx, "SubmitActivity", session.UserID, func(ctx context.Context) (results.OperationResult[*SubmissionResult, error], error) {
		staged, err := runInTx(s, ctx, session, func(ctx context.Context, db bun.IDB) (results.OperationResult[*stagedSubmission, error], error) {
			return s.recordActivity(ctx, repo, db, session, input, now)
		})
		if err != nil {
			return results.OperationResult[*SubmissionResult, error]{}, err
		}
		if staged.IsFailure() {
			return results.FailureResult[*SubmissionResult, error](*staged.Failure), nil
		}
		return results.SuccessResult[*SubmissionResult, error](s.completeSubmission(ctx, repo, session, *staged.Success)), nil
	})
	res, err := unwrap("SubmitActivity", result, err)
	if err != nil {
		return nil, err
	}

	if res.Confirmed() {
		s.recordConfirmed(ctx, res)
		if !session.Guest {
			s.publishSubmission(ctx, session.UserID, res, now)
		}
	} else {
		s.handleUnconfirmed(ctx, session, res)
	}
	return res, nil
}

// stagedSubmission is a stored activity whose stats and badges are not yet
// written.
type stagedSubmission struct {
	result  *SubmissionResult
	next    impactdomain.UserProgress
	pending []impactdomain.BadgeID
	outcome impactdomain.Outcome
}

// recordActivity validates, evaluates and appends the activity to the ledger.
func (s *ImpactService) recordActivity(ctx context.Context, repo impactdb.Repository, db bun.IDB, session authdomain.Session, input impactdomain.ActivityInput, now time.Time) (results.OperationResult[*stagedSubmission, error], error) {
	if err := input.Validate(); err != nil {
		return results.FailureResult[*stagedSubmission, error](err), nil
	}

	snap, err := s.load(ctx, repo, db, session, now)
	if err != nil {
		return results.OperationResult[*stagedSubmission, error]{}, err
	}

	next, outcome, err := s.config.Evaluator.Apply(snap.progress, input, now)
	if err != nil {
		return results.FailureResult[*stagedSubmission, error](err), nil
	}

	if err := repo.InsertActivity(ctx, db, toActivityModel(session.UserID, outcome.Activity)); err != nil {
		return results.OperationResult[*stagedSubmission, error]{}, fmt.Errorf("failed to insert activity: %w", err)
	}

	return results.SuccessResult[*stagedSubmission, error](&stagedSubmission{
		result: &SubmissionResult{
			Status:       StatusConfirmed,
			Activity:     outcome.Activity,
			PointsEarned: outcome.PointsEarned,
			Stats:        outcome.Stats,
			Level:        outcome.Level,
			Ranking:      outcome.Ranking,
		},
		next:    next,
		pending: slices.Concat(snap.missing, outcome.NewlyUnlocked),
		outcome: outcome,
	}), nil
}

// completeSubmission writes stats and badges for a stored activity. A failure
// downgrades the result to unconfirmed; the activity itself stays committed.
func (s *ImpactService) completeSubmission(ctx context.Context, repo impactdb.Repository, session authdomain.Session, staged *stagedSubmission) *SubmissionResult {
	res := staged.result

	followUp, err := runInTx(s, ctx, session, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]impactdomain.BadgeID, error], error) {
		inserted, err := s.persistFollowUp(ctx, repo, db, staged.next, staged.pending)
		if err != nil {
			return results.OperationResult[[]impactdomain.BadgeID, error]{}, err
		}
		return results.SuccessResult[[]impactdomain.BadgeID, error](inserted), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Activity stored but follow-up writes failed",
			attr.ExtractCorrelationID(ctx),
			attr.UserID(session.UserID),
			attr.String("activity_id", res.Activity.ID.String()),
			attr.Error(err),
		)
		res.Status = StatusUnconfirmed
		return res
	}

	inserted := *followUp.Success
	res.storedBadges = inserted
	res.Celebrations = &Celebrations{
		UnlockedBadges: badgeRules(slices.DeleteFunc(slices.Clone(staged.outcome.NewlyUnlocked), func(id impactdomain.BadgeID) bool {
			return !slices.Contains(inserted, id)
		})),
		RankImproved: staged.outcome.Ranking.RankImproved,
		RankDelta:    staged.outcome.Ranking.RankDelta,
		LeveledUp:    staged.outcome.LeveledUp,
	}
	return res
}

// persistFollowUp writes the stats row and badge unlocks after the activity.
func (s *ImpactService) persistFollowUp(ctx context.Context, repo impactdb.Repository, db bun.IDB, next impactdomain.UserProgress, badges []impactdomain.BadgeID) ([]impactdomain.BadgeID, error) {
	if err := repo.UpsertStats(ctx, db, toStatsModel(next.UserID, next.Stats)); err != nil {
		return nil, fmt.Errorf("failed to upsert stats: %w", err)
	}
	return s.insertBadges(ctx, repo, db, next.UserID, badges, next.Unlocked)
}

func (s *ImpactService) recordConfirmed(ctx context.Context, res *SubmissionResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordPointsAwarded(ctx, string(res.Activity.Type), res.PointsEarned)
	for _, id := range res.storedBadges {
		s.metrics.RecordBadgeUnlocked(ctx, string(id))
	}
}

// handleUnconfirmed asks the queue to repair the user's cached state.
func (s *ImpactService) handleUnconfirmed(ctx context.Context, session authdomain.Session, res *SubmissionResult) {
	if s.metrics != nil {
		s.metrics.RecordSubmissionUnconfirmed(ctx)
	}
	if session.Guest || s.scheduler == nil {
		return
	}
	if err := s.scheduler.ScheduleReconcile(ctx, session.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to schedule reconcile",
			attr.ExtractCorrelationID(ctx),
			attr.UserID(session.UserID),
			attr.Error(err),
		)
		return
	}
	res.ReconcileScheduled = true
	if s.metrics != nil {
		s.metrics.RecordReconcileScheduled(ctx)
	}
}
