package impactdomain

import (
	"cmp"
	"slices"
)

// SelfDisplayName labels the caller's row when no profile name is known.
const SelfDisplayName = "You (Earth Guardian)"

// LeaderboardEntry is one roster row. Rank is derived, never stored.
type LeaderboardEntry struct {
	UserID      string
	DisplayName string
	Points      int
	Rank        int
	IsSelf      bool
}

// DefaultRoster is the fixed set of other participants.
func DefaultRoster() []LeaderboardEntry {
	return []LeaderboardEntry{
		{UserID: "roster-sarah-green", DisplayName: "Sarah Green", Points: 5240},
		{UserID: "roster-michael-forest", DisplayName: "Michael Forest", Points: 4890},
		{UserID: "roster-emma-earth", DisplayName: "Emma Earth", Points: 3670},
		{UserID: "roster-david-plant", DisplayName: "David Plant", Points: 2110},
	}
}

// Rank sorts a copy of entries by points descending and assigns rank =
// index+1. Equal points keep their input order.
func Rank(entries []LeaderboardEntry) []LeaderboardEntry {
	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b LeaderboardEntry) int {
		return cmp.Compare(b.Points, a.Points)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankOf returns the rank of userID in ranked entries, or 0 when absent.
func RankOf(ranked []LeaderboardEntry, userID string) int {
	for _, e := range ranked {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// RankDelta is previous-current; only a positive delta is an improvement.
func RankDelta(previousRank, currentRank int) (delta int, improved bool) {
	delta = previousRank - currentRank
	return delta, delta > 0
}

// Ranking is the leaderboard as seen by one participant.
type Ranking struct {
	Entries      []LeaderboardEntry
	SelfRank     int
	PreviousRank int
	RankDelta    int
	RankImproved bool
}

// BuildRanking merges self into the roster (after the roster, so ties favour
// existing participants) and ranks it twice: once with previousPoints and once
// with self.Points.
func BuildRanking(roster []LeaderboardEntry, self LeaderboardEntry, previousPoints int) Ranking {
	self.IsSelf = true
	merged := make([]LeaderboardEntry, 0, len(roster)+1)
	for _, e := range roster {
		if e.UserID == self.UserID {
			continue
		}
		e.IsSelf = false
		merged = append(merged, e)
	}

	before := append(slices.Clone(merged), LeaderboardEntry{UserID: self.UserID, Points: previousPoints})
	previousRank := RankOf(Rank(before), self.UserID)

	entries := Rank(append(merged, self))
	currentRank := RankOf(entries, self.UserID)
	delta, improved := RankDelta(previousRank, currentRank)

	return Ranking{
		Entries:      entries,
		SelfRank:     currentRank,
		PreviousRank: previousRank,
		RankDelta:    delta,
		RankImproved: improved,
	}
}
