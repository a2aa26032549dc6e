package impactdomain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestAddActivity(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	ledger, total, err := AddActivity(nil, ActivityInput{Type: ActivityTreePlanting, Quantity: 3}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 30 || len(ledger) != 1 {
		t.Fatalf("got total %d with %d entries, want 30 with 1", total, len(ledger))
	}

	ledger2, total, err := AddActivity(ledger, ActivityInput{Type: ActivityComposting, Quantity: 4}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 70 || len(ledger2) != 2 {
		t.Fatalf("got total %d with %d entries, want 70 with 2", total, len(ledger2))
	}
	if len(ledger) != 1 {
		t.Fatal("AddActivity must not grow the caller's ledger")
	}

	rejected, total, err := AddActivity(ledger2, ActivityInput{Type: ActivityComposting, Quantity: 0}, now)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if total != 70 || len(rejected) != 2 {
		t.Fatalf("rejected submission mutated state: total %d, %d entries", total, len(rejected))
	}
}

func TestLedgerTotalsAreSums(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var ledger Ledger
	want := 0
	for i, q := range []int{1, 2, 3, 5, 8, 13} {
		var err error
		ledger, _, err = AddActivity(ledger, ActivityInput{Type: ActivityTypes[i%len(ActivityTypes)], Quantity: q}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want += q * 10
	}
	if got := ledger.TotalPoints(); got != want {
		t.Fatalf("TotalPoints = %d, want %d", got, want)
	}

	wantTotals := map[ActivityType]int{
		ActivityTreePlanting:      1 + 13,
		ActivityComposting:        2,
		ActivityWaterConservation: 3,
		ActivitySoilTesting:       5,
		ActivityDataUpload:        8,
	}
	if diff := cmp.Diff(wantTotals, ledger.Totals()); diff != "" {
		t.Fatalf("Totals mismatch (-want +got):\n%s", diff)
	}
}
