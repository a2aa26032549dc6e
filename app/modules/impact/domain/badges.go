package impactdomain

import "time"

// BadgeID identifies a permanent achievement.
type BadgeID string

const (
	BadgeForestBuilder   BadgeID = "forest_builder"
	BadgeSoilGuardian    BadgeID = "soil_guardian"
	BadgeWaterWarrior    BadgeID = "water_warrior"
	BadgeGreenRecycler   BadgeID = "green_recycler"
	BadgeDataChampion    BadgeID = "data_champion"
	BadgeConsistencyKing BadgeID = "consistency_king"
	BadgeMonthlyMaster   BadgeID = "monthly_master"
)

// BadgeMetric selects what a rule measures.
type BadgeMetric int

const (
	// MetricActivityTotal is the cumulative quantity of one activity type.
	MetricActivityTotal BadgeMetric = iota + 1
	// MetricStreakDays is the consecutive-day streak.
	MetricStreakDays
)

// BadgeRule is one row of the static unlock table.
type BadgeRule struct {
	ID           BadgeID
	Name         string
	Description  string
	Metric       BadgeMetric
	ActivityType ActivityType // only for MetricActivityTotal
	Threshold    int
}

// BadgeTable is evaluated in order; newly unlocked badges are reported in
// this order too.
var BadgeTable = []BadgeRule{
	{ID: BadgeForestBuilder, Name: "Forest Builder", Description: "Planted 50 trees", Metric: MetricActivityTotal, ActivityType: ActivityTreePlanting, Threshold: 50},
	{ID: BadgeSoilGuardian, Name: "Soil Guardian", Description: "Completed 10 soil tests", Metric: MetricActivityTotal, ActivityType: ActivitySoilTesting, Threshold: 10},
	{ID: BadgeWaterWarrior, Name: "Water Warrior", Description: "Saved 1000L water", Metric: MetricActivityTotal, ActivityType: ActivityWaterConservation, Threshold: 1000},
	{ID: BadgeGreenRecycler, Name: "Green Recycler", Description: "Completed 20 composting sessions", Metric: MetricActivityTotal, ActivityType: ActivityComposting, Threshold: 20},
	{ID: BadgeDataChampion, Name: "Data Champion", Description: "Uploaded 10 datasets", Metric: MetricActivityTotal, ActivityType: ActivityDataUpload, Threshold: 10},
	{ID: BadgeConsistencyKing, Name: "Consistency King", Description: "7-day activity streak", Metric: MetricStreakDays, Threshold: 7},
	{ID: BadgeMonthlyMaster, Name: "Monthly Master", Description: "30-day activity streak", Metric: MetricStreakDays, Threshold: 30},
}

// LookupBadge finds a rule by id.
func LookupBadge(id BadgeID) (BadgeRule, bool) {
	for _, rule := range BadgeTable {
		if rule.ID == id {
			return rule, true
		}
	}
	return BadgeRule{}, false
}

// Valid reports whether id is in the static table.
func (id BadgeID) Valid() bool {
	_, ok := LookupBadge(id)
	return ok
}

func (r BadgeRule) value(totals map[ActivityType]int, streakDays int) int {
	switch r.Metric {
	case MetricActivityTotal:
		return totals[r.ActivityType]
	case MetricStreakDays:
		return streakDays
	default:
		return 0
	}
}

// EvaluateBadges returns the badges whose threshold is met by the totals and
// the current streak and that are not already unlocked.
func EvaluateBadges(totals map[ActivityType]int, streak Streak, alreadyUnlocked map[BadgeID]time.Time) []BadgeID {
	return evaluate(totals, streak.Current, alreadyUnlocked)
}

// EarnedButMissing is the reconciliation variant of EvaluateBadges. A streak
// badge counts as earned once the longest streak reached it, since the current
// streak necessarily passed that value on the way.
func EarnedButMissing(totals map[ActivityType]int, streak Streak, alreadyUnlocked map[BadgeID]time.Time) []BadgeID {
	return evaluate(totals, streak.Longest, alreadyUnlocked)
}

func evaluate(totals map[ActivityType]int, streakDays int, alreadyUnlocked map[BadgeID]time.Time) []BadgeID {
	var unlocked []BadgeID
	for _, rule := range BadgeTable {
		if _, ok := alreadyUnlocked[rule.ID]; ok {
			continue
		}
		if rule.value(totals, streakDays) >= rule.Threshold {
			unlocked = append(unlocked, rule.ID)
		}
	}
	return unlocked
}

// Progress is min(100, 100*value/threshold) for display.
func Progress(value, threshold int) int {
	if threshold <= 0 || value >= threshold {
		return 100
	}
	if value <= 0 {
		return 0
	}
	return 100 * value / threshold
}

// BadgeStatus describes one badge for an achievements view.
type BadgeStatus struct {
	Rule       BadgeRule
	Unlocked   bool
	UnlockedAt time.Time
	Current    int
	Progress   int
}

// BadgeStatuses renders the whole table against a user's state.
func BadgeStatuses(totals map[ActivityType]int, streak Streak, unlocked map[BadgeID]time.Time) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(BadgeTable))
	for _, rule := range BadgeTable {
		current := rule.value(totals, streak.Current)
		status := BadgeStatus{Rule: rule, Current: current, Progress: Progress(current, rule.Threshold)}
		if at, ok := unlocked[rule.ID]; ok {
			status.Unlocked = true
			status.UnlockedAt = at
			status.Progress = 100
		}
		out = append(out, status)
	}
	return out
}
