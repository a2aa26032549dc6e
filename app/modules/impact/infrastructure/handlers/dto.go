package impacthandlers

import (
	"time"

	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

const dateLayout = "2006-01-02"

type submitActivityRequest struct {
	ActivityType string `json:"activity_type"`
	Quantity     int    `json:"quantity"`
	Location     string `json:"location,omitempty"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type activityResponse struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	DisplayName  string    `json:"display_name"`
	Quantity     int       `json:"quantity"`
	Unit         string    `json:"unit"`
	Location     string    `json:"location,omitempty"`
	PointsEarned int       `json:"points_earned"`
	CreatedAt    time.Time `json:"created_at"`
}

type statsResponse struct {
	TotalPoints      int    `json:"total_points"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

type levelResponse struct {
	Level        int     `json:"level"`
	Progress     float64 `json:"progress"`
	PointsToNext int     `json:"points_to_next"`
}

type badgeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Threshold   int        `json:"threshold"`
	Current     int        `json:"current"`
	Progress    int        `json:"progress"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

type celebrationsResponse struct {
	UnlockedBadges []badgeResponse `json:"unlocked_badges"`
	RankImproved   bool            `json:"rank_improved"`
	RankDelta      int             `json:"rank_delta"`
	LeveledUp      bool            `json:"leveled_up"`
}

type leaderboardEntryResponse struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
	IsSelf      bool   `json:"is_self"`
}

type leaderboardResponse struct {
	Entries      []leaderboardEntryResponse `json:"entries"`
	SelfRank     int                        `json:"self_rank"`
	PreviousRank int                        `json:"previous_rank"`
}

type submissionResponse struct {
	Status             impactservice.SubmissionStatus `json:"status"`
	Activity           activityResponse               `json:"activity"`
	PointsEarned       int                            `json:"points_earned"`
	Stats              statsResponse                  `json:"stats"`
	Level              levelResponse                  `json:"level"`
	Rank               int                            `json:"rank"`
	Celebrations       *celebrationsResponse          `json:"celebrations"`
	ReconcileScheduled bool                           `json:"reconcile_scheduled"`
}

type progressResponse struct {
	UserID           string             `json:"user_id"`
	DisplayName      string             `json:"display_name"`
	Guest            bool               `json:"guest"`
	Stats            statsResponse      `json:"stats"`
	Level            levelResponse      `json:"level"`
	Totals           map[string]int     `json:"totals"`
	Rank             int                `json:"rank"`
	UnlockedBadges   int                `json:"unlocked_badges"`
	RecentActivities []activityResponse `json:"recent_activities"`
}

type achievementsResponse struct {
	Unlocked []badgeResponse `json:"unlocked"`
	Locked   []badgeResponse `json:"locked"`
}

func toActivityResponse(a impactdomain.Activity) activityResponse {
	return activityResponse{
		ID:           a.ID.String(),
		ActivityType: string(a.Type),
		DisplayName:  a.Type.DisplayName(),
		Quantity:     a.Quantity,
		Unit:         a.Type.Unit(),
		Location:     a.Location,
		PointsEarned: a.PointsEarned,
		CreatedAt:    a.Timestamp,
	}
}

func toActivityResponses(activities []impactdomain.Activity) []activityResponse {
	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityResponse(a))
	}
	return out
}

func toStatsResponse(s impactdomain.UserStats) statsResponse {
	out := statsResponse{
		TotalPoints:   s.TotalPoints,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
	}
	if !s.LastActivityDate.IsZero() {
		out.LastActivityDate = s.LastActivityDate.Format(dateLayout)
	}
	return out
}

func toLevelResponse(l impactdomain.LevelInfo) levelResponse {
	return levelResponse{Level: l.Level, Progress: l.Progress, PointsToNext: l.PointsToNext}
}

func toRuleResponse(rule impactdomain.BadgeRule) badgeResponse {
	return badgeResponse{
		ID:          string(rule.ID),
		Name:        rule.Name,
		Description: rule.Description,
		Threshold:   rule.Threshold,
	}
}

func toBadgeResponses(statuses []impactdomain.BadgeStatus) []badgeResponse {
	out := make([]badgeResponse, 0, len(statuses))
	for _, s := range statuses {
		b := toRuleResponse(s.Rule)
		b.Current = s.Current
		b.Progress = s.Progress
		if s.Unlocked {
			unlockedAt := s.UnlockedAt
			b.UnlockedAt = &unlockedAt
		}
		out = append(out, b)
	}
	return out
}

func toLeaderboardResponse(r impactdomain.Ranking) leaderboardResponse {
	entries := make([]leaderboardEntryResponse, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, leaderboardEntryResponse{
			Rank:        e.Rank,
			DisplayName: e.DisplayName,
			Points:      e.Points,
			IsSelf:      e.IsSelf,
		})
	}
	return leaderboardResponse{Entries: entries, SelfRank: r.SelfRank, PreviousRank: r.PreviousRank}
}

func toSubmissionResponse(res *impactservice.SubmissionResult) submissionResponse {
	out := submissionResponse{
		Status:             res.Status,
		Activity:           toActivityResponse(res.Activity),
		PointsEarned:       res.PointsEarned,
		Stats:              toStatsResponse(res.Stats),
		Level:              toLevelResponse(res.Level),
		Rank:               res.Ranking.SelfRank,
		ReconcileScheduled: res.ReconcileScheduled,
	}
	if c := res.Celebrations; c != nil {
		badges := make([]badgeResponse, 0, len(c.UnlockedBadges))
		for _, rule := range c.UnlockedBadges {
			badges = append(badges, toRuleResponse(rule))
		}
		out.Celebrations = &celebrationsResponse{
			UnlockedBadges: badges,
			RankImproved:   c.RankImproved,
			RankDelta:      c.RankDelta,
			LeveledUp:      c.LeveledUp,
		}
	}
	return out
}

func toProgressResponse(v *impactservice.ProgressView) progressResponse {
	totals := make(map[string]int, len(impactdomain.ActivityTypes))
	for _, at := range impactdomain.ActivityTypes {
		totals[string(at)] = v.Totals[at]
	}
	return progressResponse{
		UserID:           v.UserID,
		DisplayName:      v.DisplayName,
		Guest:            v.Guest,
		Stats:            toStatsResponse(v.Stats),
		Level:            toLevelResponse(v.Level),
		Totals:           totals,
		Rank:             v.Rank,
		UnlockedBadges:   v.UnlockedCount,
		RecentActivities: toActivityResponses(v.RecentActivities),
	}
}
