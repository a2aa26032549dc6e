package clock

import "time"

// Clock abstracts "now" so day-boundary logic can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// AnchorClock always returns the provided anchor time. Useful for evaluating
// a submission against the instant it was received even when the work happens
// later (queue delay / retries).
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock creates a new AnchorClock. If t is the zero value, the current
// real UTC time is used.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

// FakeClock is a settable clock for tests that need time to move.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(t time.Time) *FakeClock { return &FakeClock{current: t} }

func (c *FakeClock) Now() time.Time          { return c.current }
func (c *FakeClock) Set(t time.Time)         { c.current = t }
func (c *FakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }
