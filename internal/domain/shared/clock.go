package shared

import "time"

// Clock supplies the current time. Services take a Clock so "today" anchored
// rules can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC. Business days are UTC days, the same
// as wire dates and the daily snapshot key.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return c.At }

// DateOf returns UTC midnight of the UTC calendar day containing t
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
