package impactdomain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluateBadges_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		totals map[ActivityType]int
		streak Streak
		want   []BadgeID
	}{
		{name: "nothing yet", totals: map[ActivityType]int{}, want: nil},
		{name: "49 trees is not enough", totals: map[ActivityType]int{ActivityTreePlanting: 49}, want: nil},
		{name: "exactly 50 trees", totals: map[ActivityType]int{ActivityTreePlanting: 50}, want: []BadgeID{BadgeForestBuilder}},
		{name: "soil tests", totals: map[ActivityType]int{ActivitySoilTesting: 10}, want: []BadgeID{BadgeSoilGuardian}},
		{name: "water", totals: map[ActivityType]int{ActivityWaterConservation: 999}, want: nil},
		{name: "water at threshold", totals: map[ActivityType]int{ActivityWaterConservation: 1000}, want: []BadgeID{BadgeWaterWarrior}},
		{name: "composting", totals: map[ActivityType]int{ActivityComposting: 20}, want: []BadgeID{BadgeGreenRecycler}},
		{name: "data", totals: map[ActivityType]int{ActivityDataUpload: 11}, want: []BadgeID{BadgeDataChampion}},
		{name: "week streak", streak: Streak{Current: 7, Longest: 7}, want: []BadgeID{BadgeConsistencyKing}},
		{name: "month streak", streak: Streak{Current: 30, Longest: 30}, want: []BadgeID{BadgeConsistencyKing, BadgeMonthlyMaster}},
		{name: "broken streak does not count", streak: Streak{Current: 0, Longest: 40}, want: nil},
		{
			name:   "table order",
			totals: map[ActivityType]int{ActivityDataUpload: 10, ActivityTreePlanting: 50},
			streak: Streak{Current: 7, Longest: 7},
			want:   []BadgeID{BadgeForestBuilder, BadgeDataChampion, BadgeConsistencyKing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBadges(tt.totals, tt.streak, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("EvaluateBadges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateBadges_Idempotent(t *testing.T) {
	totals := map[ActivityType]int{ActivityTreePlanting: 60}
	streak := Streak{Current: 1, Longest: 1}

	first := EvaluateBadges(totals, streak, map[BadgeID]time.Time{})
	if len(first) != 1 || first[0] != BadgeForestBuilder {
		t.Fatalf("first evaluation = %v", first)
	}

	unlocked := map[BadgeID]time.Time{BadgeForestBuilder: time.Now()}
	if second := EvaluateBadges(totals, streak, unlocked); len(second) != 0 {
		t.Fatalf("second evaluation should unlock nothing, got %v", second)
	}
}

func TestEarnedButMissing_UsesLongestStreak(t *testing.T) {
	got := EarnedButMissing(nil, Streak{Current: 0, Longest: 8}, nil)
	if diff := cmp.Diff([]BadgeID{BadgeConsistencyKing}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct{ value, threshold, want int }{
		{0, 50, 0},
		{25, 50, 50},
		{49, 50, 98},
		{50, 50, 100},
		{500, 50, 100},
		{-1, 50, 0},
		{3, 0, 100},
	}
	for _, tt := range tests {
		if got := Progress(tt.value, tt.threshold); got != tt.want {
			t.Errorf("Progress(%d, %d) = %d, want %d", tt.value, tt.threshold, got, tt.want)
		}
	}
}

func TestBadgeStatuses(t *testing.T) {
	unlockedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	statuses := BadgeStatuses(
		map[ActivityType]int{ActivityTreePlanting: 50, ActivitySoilTesting: 4},
		Streak{Current: 3, Longest: 3},
		map[BadgeID]time.Time{BadgeForestBuilder: unlockedAt},
	)
	if len(statuses) != len(BadgeTable) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(BadgeTable))
	}

	byID := map[BadgeID]BadgeStatus{}
	for _, s := range statuses {
		byID[s.Rule.ID] = s
	}
	if s := byID[BadgeForestBuilder]; !s.Unlocked || !s.UnlockedAt.Equal(unlockedAt) || s.Progress != 100 {
		t.Errorf("forest_builder status = %+v", s)
	}
	if s := byID[BadgeSoilGuardian]; s.Unlocked || s.Progress != 40 || s.Current != 4 {
		t.Errorf("soil_guardian status = %+v", s)
	}
	if s := byID[BadgeMonthlyMaster]; s.Progress != 10 {
		t.Errorf("monthly_master progress = %d, want 10", s.Progress)
	}
}

func TestBadgeTableIsComplete(t *testing.T) {
	seen := map[BadgeID]bool{}
	for _, rule := range BadgeTable {
		if seen[rule.ID] {
			t.Fatalf("duplicate badge %s", rule.ID)
		}
		seen[rule.ID] = true
		if rule.Threshold <= 0 {
			t.Fatalf("%s has no threshold", rule.ID)
		}
		switch rule.Metric {
		case MetricActivityTotal:
			if !rule.ActivityType.Valid() {
				t.Fatalf("%s references unknown activity type %q", rule.ID, rule.ActivityType)
			}
		case MetricStreakDays:
		default:
			t.Fatalf("%s has unknown metric %d", rule.ID, rule.Metric)
		}
	}
	if !BadgeWaterWarrior.Valid() || BadgeID("nope").Valid() {
		t.Fatal("Valid() disagrees with the table")
	}
}
