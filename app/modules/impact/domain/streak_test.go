package impactdomain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var dayD = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return dayD.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name          string
		timestamps    []time.Time
		today         time.Time
		storedLongest int
		want          Streak
	}{
		{
			name:  "empty ledger",
			today: at(0, 12),
			want:  Streak{Current: 0, Longest: 0},
		},
		{
			name:          "empty ledger keeps stored longest",
			today:         at(0, 12),
			storedLongest: 9,
			want:          Streak{Current: 0, Longest: 9},
		},
		{
			name:       "same day counts once",
			timestamps: []time.Time{at(0, 8), at(0, 20)},
			today:      at(0, 21),
			want:       Streak{Current: 1, Longest: 1},
		},
		{
			name:       "gap of two days breaks the chain",
			timestamps: []time.Time{at(0, 10), at(3, 10)},
			today:      at(3, 12),
			want:       Streak{Current: 1, Longest: 1},
		},
		{
			name:       "three consecutive days",
			timestamps: []time.Time{at(0, 10), at(1, 10), at(2, 10)},
			today:      at(2, 23),
			want:       Streak{Current: 3, Longest: 3},
		},
		{
			name:       "yesterday still counts",
			timestamps: []time.Time{at(0, 10), at(1, 10)},
			today:      at(2, 9),
			want:       Streak{Current: 2, Longest: 2},
		},
		{
			name:       "two idle days reset current",
			timestamps: []time.Time{at(0, 10), at(1, 10)},
			today:      at(3, 9),
			want:       Streak{Current: 0, Longest: 2},
		},
		{
			name:       "older longer run is remembered",
			timestamps: []time.Time{at(0, 1), at(1, 1), at(2, 1), at(3, 1), at(6, 1), at(7, 1)},
			today:      at(7, 2),
			want:       Streak{Current: 2, Longest: 4},
		},
		{
			name:          "stored longest dominates",
			timestamps:    []time.Time{at(0, 1)},
			today:         at(0, 2),
			storedLongest: 12,
			want:          Streak{Current: 1, Longest: 12},
		},
		{
			name:       "input order does not matter",
			timestamps: []time.Time{at(2, 1), at(0, 1), at(1, 1), at(1, 5)},
			today:      at(2, 3),
			want:       Streak{Current: 3, Longest: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.timestamps, tt.today, time.UTC, tt.storedLongest)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ComputeStreak mismatch (-want +got):\n%s", diff)
			}
			if got.Longest < got.Current {
				t.Fatalf("longest %d < current %d", got.Longest, got.Current)
			}
		})
	}
}

func TestComputeStreak_TimezoneDefinesDays(t *testing.T) {
	// 23:30 and 00:30 UTC are different UTC days but the same day in UTC-5.
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	early := time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)
	today := early.Add(time.Hour)

	if got := ComputeStreak([]time.Time{late, early}, today, time.UTC, 0); got.Current != 2 {
		t.Fatalf("UTC: current = %d, want 2", got.Current)
	}
	est := time.FixedZone("UTC-5", -5*60*60)
	if got := ComputeStreak([]time.Time{late, early}, today, est, 0); got.Current != 1 {
		t.Fatalf("UTC-5: current = %d, want 1", got.Current)
	}
}

func TestComputeStreak_AcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// US clocks spring forward on 2026-03-08.
	ts := []time.Time{
		time.Date(2026, 3, 7, 12, 0, 0, 0, loc),
		time.Date(2026, 3, 8, 12, 0, 0, 0, loc),
		time.Date(2026, 3, 9, 12, 0, 0, 0, loc),
	}
	if got := ComputeStreak(ts, ts[2], loc, 0); got.Current != 3 {
		t.Fatalf("current = %d, want 3", got.Current)
	}
}

func TestDistinctDays(t *testing.T) {
	got := DistinctDays([]time.Time{at(1, 3), at(0, 5), at(1, 22), at(0, 1)}, time.UTC)
	want := []time.Time{dayD.AddDate(0, 0, 1), dayD}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DistinctDays mismatch (-want +got):\n%s", diff)
	}
	if !LastActivityDate(nil, time.UTC).IsZero() {
		t.Fatal("LastActivityDate of empty ledger should be zero")
	}
}
