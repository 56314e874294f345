package schedule

import "time"

// Clock supplies the current time. Injectable so admission rules can be
// tested against fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ValidationError is a rejected admission input; the reason is safe to show
// to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateTiming enforces the scheduling rules on a candidate interval,
// first failure wins:
//
//  1. start must be strictly in the future
//  2. start must fall on a calendar day after today, in start's own zone
//     (same-day scheduling is rejected even when the clock time is ahead)
//  3. end must be strictly after start
//  4. start and end must share a calendar day (no crossing midnight)
func ValidateTiming(start, end, now time.Time) error {
	now = now.In(start.Location())

	if !start.After(now) {
		return &ValidationError{Reason: "event start time must be in the future"}
	}
	if !dateAfter(start, now) {
		return &ValidationError{Reason: "events cannot be scheduled for the current day; they must be scheduled at least one day in advance"}
	}
	if !end.After(start) {
		return &ValidationError{Reason: "event end time must be after start time"}
	}
	if !sameDate(start, end) {
		return &ValidationError{Reason: "events must start and end on the same day"}
	}
	return nil
}

// dateAfter reports whether a's calendar date is strictly after b's, each in
// its own zone.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
