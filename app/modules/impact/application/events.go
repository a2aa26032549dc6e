package impactservice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

const (
	// ActivityLoggedTopic carries ActivityLoggedEvent.
	ActivityLoggedTopic = "impact.activity.logged.v1"
	// BadgeUnlockedTopic carries BadgeUnlockedEvent.
	BadgeUnlockedTopic = "impact.badge.unlocked.v1"
	// RankImprovedTopic carries RankImprovedEvent.
	RankImprovedTopic = "impact.rank.improved.v1"
)

// publishSubmission announces a confirmed submission. Publish failures are
// logged; the submission itself is already stored.
func (s *ImpactService) publishSubmission(ctx context.Context, userID string, res *SubmissionResult, now time.Time) {
	if s.publisher == nil {
		return
	}

	s.publish(ctx, ActivityLoggedTopic, ActivityLoggedEvent{
		UserID:       userID,
		ActivityID:   res.Activity.ID.String(),
		ActivityType: string(res.Activity.Type),
		Quantity:     res.Activity.Quantity,
		PointsEarned: res.PointsEarned,
		TotalPoints:  res.Stats.TotalPoints,
		Streak:       res.Stats.CurrentStreak,
		OccurredAt:   now,
	})

	for _, rule := range badgeRules(res.storedBadges) {
		s.publish(ctx, BadgeUnlockedTopic, BadgeUnlockedEvent{
			UserID:     userID,
			BadgeID:    string(rule.ID),
			BadgeName:  rule.Name,
			UnlockedAt: now,
		})
	}

	if res.Celebrations != nil && res.Celebrations.RankImproved {
		s.publish(ctx, RankImprovedTopic, RankImprovedEvent{
			UserID:       userID,
			PreviousRank: res.Ranking.PreviousRank,
			Rank:         res.Ranking.SelfRank,
			Delta:        res.Ranking.RankDelta,
			OccurredAt:   now,
		})
	}
}

func (s *ImpactService) publish(ctx context.Context, topic string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event", attr.String("topic", topic), attr.Error(err))
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("topic", topic)
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		msg.Metadata.Set("correlation_id", reqID)
	}

	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}
