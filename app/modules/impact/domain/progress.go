package impactdomain

import (
	"maps"
	"slices"
	"time"
)

// UserStats is the derived per-user summary.
type UserStats struct {
	TotalPoints      int
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate time.Time // calendar day; zero when the ledger is empty
}

// UserProgress is the full scoring state of one participant. It is a value:
// Apply returns a new UserProgress and never mutates its input.
type UserProgress struct {
	UserID      string
	DisplayName string
	Ledger      Ledger
	Totals      map[ActivityType]int
	Stats       UserStats
	Unlocked    map[BadgeID]time.Time
}

// Clone returns a deep copy.
func (p UserProgress) Clone() UserProgress {
	p.Ledger = slices.Clone(p.Ledger)
	p.Totals = maps.Clone(p.Totals)
	p.Unlocked = maps.Clone(p.Unlocked)
	if p.Totals == nil {
		p.Totals = map[ActivityType]int{}
	}
	if p.Unlocked == nil {
		p.Unlocked = map[BadgeID]time.Time{}
	}
	return p
}

// Streak returns the stored streak pair.
func (p UserProgress) Streak() Streak {
	return Streak{Current: p.Stats.CurrentStreak, Longest: p.Stats.LongestStreak}
}

// Level is the level band of the current total.
func (p UserProgress) Level() LevelInfo {
	return LevelFor(p.Stats.TotalPoints)
}

// Outcome is everything one submission changed, in evaluation order.
type Outcome struct {
	Activity      Activity
	PointsEarned  int
	PreviousStats UserStats
	Stats         UserStats
	NewlyUnlocked []BadgeID
	Ranking       Ranking
	Level         LevelInfo
	LeveledUp     bool
}

// Evaluator holds the fixed inputs of the scoring rules.
type Evaluator struct {
	// Location defines calendar-day boundaries for streaks. Nil means UTC.
	Location *time.Location
	// Roster is the set of other leaderboard participants.
	Roster []LeaderboardEntry
}

// NewEvaluator creates an Evaluator; a nil roster uses DefaultRoster.
func NewEvaluator(loc *time.Location, roster []LeaderboardEntry) Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	if roster == nil {
		roster = DefaultRoster()
	}
	return Evaluator{Location: loc, Roster: roster}
}

func (e Evaluator) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// Rebuild derives progress from the ledger alone, ignoring any cached totals.
// storedLongest and unlocked are the only persisted facts carried over, since
// neither can be recovered from a truncated ledger. The second return value
// lists badges the ledger has earned that were never recorded.
func (e Evaluator) Rebuild(userID string, ledger Ledger, storedLongest int, unlocked map[BadgeID]time.Time, now time.Time) (UserProgress, []BadgeID) {
	loc := e.location()
	timestamps := ledger.Timestamps()
	streak := ComputeStreak(timestamps, now, loc, storedLongest)

	p := UserProgress{
		UserID:   userID,
		Ledger:   slices.Clone(ledger),
		Totals:   ledger.Totals(),
		Unlocked: maps.Clone(unlocked),
		Stats: UserStats{
			TotalPoints:      ledger.TotalPoints(),
			CurrentStreak:    streak.Current,
			LongestStreak:    streak.Longest,
			LastActivityDate: LastActivityDate(timestamps, loc),
		},
	}
	if p.Unlocked == nil {
		p.Unlocked = map[BadgeID]time.Time{}
	}

	missing := EarnedButMissing(p.Totals, streak, p.Unlocked)
	for _, id := range missing {
		p.Unlocked[id] = now
	}
	return p, missing
}

// Apply runs one submission through Points, Streak, Badges and Leaderboard in
// that order. A validation error leaves progress unchanged.
func (e Evaluator) Apply(p UserProgress, input ActivityInput, now time.Time) (UserProgress, Outcome, error) {
	loc := e.location()
	previous := p.Stats

	// Points
	ledger, total, err := AddActivity(p.Ledger, input, now)
	if err != nil {
		return p, Outcome{}, err
	}
	activity := ledger[len(ledger)-1]

	next := p.Clone()
	next.Ledger = ledger
	next.Totals[activity.Type] += activity.Quantity
	next.Stats.TotalPoints = total

	// Streak
	timestamps := ledger.Timestamps()
	streak := ComputeStreak(timestamps, now, loc, previous.LongestStreak)
	next.Stats.CurrentStreak = streak.Current
	next.Stats.LongestStreak = streak.Longest
	next.Stats.LastActivityDate = LastActivityDate(timestamps, loc)

	// Badges
	newly := EvaluateBadges(next.Totals, streak, next.Unlocked)
	for _, id := range newly {
		next.Unlocked[id] = now
	}

	// Leaderboard
	ranking := e.Ranking(next, previous.TotalPoints)

	level := LevelFor(total)
	return next, Outcome{
		Activity:      activity,
		PointsEarned:  activity.PointsEarned,
		PreviousStats: previous,
		Stats:         next.Stats,
		NewlyUnlocked: newly,
		Ranking:       ranking,
		Level:         level,
		LeveledUp:     level.Level > LevelFor(previous.TotalPoints).Level,
	}, nil
}

// Ranking places p on the roster. previousPoints is the total before the
// latest change; pass p.Stats.TotalPoints when nothing changed.
func (e Evaluator) Ranking(p UserProgress, previousPoints int) Ranking {
	name := p.DisplayName
	if name == "" {
		name = SelfDisplayName
	}
	return BuildRanking(e.Roster, LeaderboardEntry{
		UserID:      p.UserID,
		DisplayName: name,
		Points:      p.Stats.TotalPoints,
	}, previousPoints)
}
