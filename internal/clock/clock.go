package clock

import (
	"fmt"
	"time"
)

// Clock pins every time comparison to a single fixed display timezone.
// Task times are civil times of day, not absolute instants, so the reconciler
// and the scheduler must never compare raw UTC values against them directly.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the named timezone and returns a wall-clock backed Clock.
func New(tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("clock: load timezone %q: %w", tz, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed returns a Clock with an injected now func, for tests.
func NewFixed(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the display timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// ToDisplay normalizes any instant into the display timezone.
func (c *Clock) ToDisplay(t time.Time) time.Time {
	return t.In(c.loc)
}

// At returns the given date's day at hour:minute in the display timezone.
func (c *Clock) At(date time.Time, hour, minute int) time.Time {
	d := date.In(c.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, c.loc)
}

// SameDay reports whether two instants fall on the same calendar day in the
// display timezone.
func (c *Clock) SameDay(a, b time.Time) bool {
	ay, ad := a.In(c.loc).Year(), a.In(c.loc).YearDay()
	by, bd := b.In(c.loc).Year(), b.In(c.loc).YearDay()
	return ay == by && ad == bd
}
