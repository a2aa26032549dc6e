package impactdomain

import (
	"slices"
	"time"
)

// Streak is the consecutive-day activity count.
type Streak struct {
	Current int
	Longest int
}

// CalendarDay truncates t to midnight of its calendar date in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DistinctDays projects timestamps onto calendar days in loc, deduplicated and
// sorted newest first.
func DistinctDays(timestamps []time.Time, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{}, len(timestamps))
	days := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		day := CalendarDay(ts, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days
}

// isPreviousDay reports whether earlier is exactly one calendar day before later.
// Both must be midnights in the same location; AddDate keeps DST days intact.
func isPreviousDay(later, earlier time.Time) bool {
	return later.AddDate(0, 0, -1).Equal(earlier)
}

// ComputeStreak derives the streak from activity timestamps as seen on today.
//
// The current streak is zero once the latest active day is more than one day
// before today. Otherwise it counts the run of consecutive days ending at the
// latest active day. Longest never decreases: it is the maximum of the stored
// value, the current run and the longest run visible in the ledger.
func ComputeStreak(timestamps []time.Time, today time.Time, loc *time.Location, storedLongest int) Streak {
	days := DistinctDays(timestamps, loc)
	longest := max(storedLongest, 0)
	if len(days) == 0 {
		return Streak{Current: 0, Longest: longest}
	}

	current := 0
	todayDay := CalendarDay(today, loc)
	if !days[0].Before(todayDay.AddDate(0, 0, -1)) {
		current = 1
		for i := 1; i < len(days) && isPreviousDay(days[i-1], days[i]); i++ {
			current++
		}
	}

	return Streak{
		Current: current,
		Longest: max(longest, current, longestRun(days)),
	}
}

// longestRun finds the longest consecutive run in newest-first distinct days.
func longestRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if isPreviousDay(days[i-1], days[i]) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

// LastActivityDate is the newest active calendar day, or the zero time.
func LastActivityDate(timestamps []time.Time, loc *time.Location) time.Time {
	days := DistinctDays(timestamps, loc)
	if len(days) == 0 {
		return time.Time{}
	}
	return days[0]
}
