// Package schedule implements the temporal core of the booking backend:
// the TimeRange value, the admission-time validation rules, and the
// advisory overlap detector that scans space and user occupancy.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a range's end does not come after its start.
var ErrInvalidRange = errors.New("time range end must be after start")

// TimeRange is an immutable closed interval [Start, End] of timezone-aware
// instants. Inclusive bounds match the storage layer's '[]' range convention:
// two bookings that merely touch at an endpoint still collide.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange constructs a TimeRange, failing with ErrInvalidRange unless
// end is strictly after start.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, ErrInvalidRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange is the single canonical parser for range input at the HTTP
// boundary: two RFC3339 instants.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid end: %w", err)
	}
	return NewTimeRange(s, e)
}

// Intersects reports whether two closed intervals share at least one instant.
func (r TimeRange) Intersects(o TimeRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
