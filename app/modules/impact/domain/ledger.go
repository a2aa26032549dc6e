package impactdomain

import "time"

// Ledger is the append-only list of a user's activities, in any order.
type Ledger []Activity

// AddActivity validates input, appends it to the ledger and returns the new
// running point total. An invalid input leaves the ledger untouched.
func AddActivity(ledger Ledger, input ActivityInput, now time.Time) (Ledger, int, error) {
	activity, err := NewActivity(input, now)
	if err != nil {
		return ledger, ledger.TotalPoints(), err
	}
	updated := make(Ledger, len(ledger), len(ledger)+1)
	copy(updated, ledger)
	updated = append(updated, activity)
	return updated, updated.TotalPoints(), nil
}

// TotalPoints sums the frozen points of every entry.
func (l Ledger) TotalPoints() int {
	total := 0
	for _, a := range l {
		total += a.PointsEarned
	}
	return total
}

// Totals sums quantities per activity type.
func (l Ledger) Totals() map[ActivityType]int {
	totals := make(map[ActivityType]int, len(ActivityTypes))
	for _, a := range l {
		totals[a.Type] += a.Quantity
	}
	return totals
}

// Timestamps returns the submission instants of every entry.
func (l Ledger) Timestamps() []time.Time {
	out := make([]time.Time, len(l))
	for i, a := range l {
		out[i] = a.Timestamp
	}
	return out
}
