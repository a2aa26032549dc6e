package impactservice

import (
	"time"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
)

// toLedger converts newest-first rows into an oldest-first ledger.
func toLedger(rows []impactdb.Activity) impactdomain.Ledger {
	ledger := make(impactdomain.Ledger, len(rows))
	for i, row := range rows {
		ledger[len(rows)-1-i] = toActivity(row)
	}
	return ledger
}

func toActivity(row impactdb.Activity) impactdomain.Activity {
	a := impactdomain.Activity{
		ID:           row.ID,
		Type:         impactdomain.ActivityType(row.ActivityType),
		Quantity:     row.Quantity,
		PointsEarned: row.PointsEarned,
		Timestamp:    row.CreatedAt,
	}
	if row.Location != nil {
		a.Location = *row.Location
	}
	return a
}

func toActivities(rows []impactdb.Activity) []impactdomain.Activity {
	out := make([]impactdomain.Activity, len(rows))
	for i, row := range rows {
		out[i] = toActivity(row)
	}
	return out
}

func toActivityModel(userID string, a impactdomain.Activity) *impactdb.Activity {
	row := &impactdb.Activity{
		ID:           a.ID,
		UserID:       userID,
		ActivityType: string(a.Type),
		Quantity:     a.Quantity,
		PointsEarned: a.PointsEarned,
		CreatedAt:    a.Timestamp,
	}
	if a.Location != "" {
		location := a.Location
		row.Location = &location
	}
	return row
}

func toUnlocked(rows []impactdb.UserBadge) map[impactdomain.BadgeID]time.Time {
	unlocked := make(map[impactdomain.BadgeID]time.Time, len(rows))
	for _, row := range rows {
		unlocked[impactdomain.BadgeID(row.BadgeID)] = row.UnlockedAt
	}
	return unlocked
}

// toStatsModel stores the last activity day as a bare date.
func toStatsModel(userID string, stats impactdomain.UserStats) *impactdb.UserStats {
	row := &impactdb.UserStats{
		UserID:        userID,
		TotalPoints:   stats.TotalPoints,
		CurrentStreak: stats.CurrentStreak,
		LongestStreak: stats.LongestStreak,
	}
	if !stats.LastActivityDate.IsZero() {
		day := dateOnly(stats.LastActivityDate)
		row.LastActivityDate = &day
	}
	return row
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// statsStale reports whether the cached row disagrees with the rebuilt stats.
func statsStale(stored *impactdb.UserStats, rebuilt impactdomain.UserStats, ledgerLen int) bool {
	if stored == nil {
		return ledgerLen > 0
	}
	if stored.TotalPoints != rebuilt.TotalPoints ||
		stored.CurrentStreak != rebuilt.CurrentStreak ||
		stored.LongestStreak != rebuilt.LongestStreak {
		return true
	}
	switch {
	case stored.LastActivityDate == nil:
		return !rebuilt.LastActivityDate.IsZero()
	case rebuilt.LastActivityDate.IsZero():
		return true
	default:
		return !dateOnly(*stored.LastActivityDate).Equal(dateOnly(rebuilt.LastActivityDate))
	}
}

func badgeRules(ids []impactdomain.BadgeID) []impactdomain.BadgeRule {
	rules := make([]impactdomain.BadgeRule, 0, len(ids))
	for _, id := range ids {
		if rule, ok := impactdomain.LookupBadge(id); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}
