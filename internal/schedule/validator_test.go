package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidateTiming_Accepts(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	err := ValidateTiming(ts("2024-01-11T09:00:00Z"), ts("2024-01-11T11:00:00Z"), now)
	assert.NoError(t, err)

	// Late evening slot, still within one calendar day.
	err = ValidateTiming(ts("2024-01-15T20:00:00Z"), ts("2024-01-15T23:59:00Z"), now)
	assert.NoError(t, err)
}

func TestValidateTiming_StartInPast(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	err := ValidateTiming(ts("2024-01-09T10:00:00Z"), ts("2024-01-09T12:00:00Z"), now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "in the future")

	// start == now is rejected too; the bound is strict.
	err = ValidateTiming(now, now.Add(2*time.Hour), now)
	assert.ErrorAs(t, err, &vErr)
}

func TestValidateTiming_SameDayRejected(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	// Later today, clock time in the future, still same calendar day.
	err := ValidateTiming(ts("2024-01-10T18:00:00Z"), ts("2024-01-10T20:00:00Z"), now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "one day in advance")
}

func TestValidateTiming_SameDayUsesStartZone(t *testing.T) {
	// 23:30 UTC on Jan 10 is already Jan 11 in UTC+2, so a start on Jan 11
	// in that zone is same-day from the caller's perspective and rejected.
	now := ts("2024-01-10T23:30:00Z")
	loc := time.FixedZone("UTC+2", 2*3600)
	start := time.Date(2024, 1, 11, 9, 0, 0, 0, loc)
	end := time.Date(2024, 1, 11, 11, 0, 0, 0, loc)

	err := ValidateTiming(start, end, now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "one day in advance")
}

func TestValidateTiming_EndBeforeStart(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	err := ValidateTiming(ts("2024-01-12T12:00:00Z"), ts("2024-01-12T10:00:00Z"), now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "after start time")

	err = ValidateTiming(ts("2024-01-12T12:00:00Z"), ts("2024-01-12T12:00:00Z"), now)
	assert.ErrorAs(t, err, &vErr)
}

func TestValidateTiming_CrossMidnightRejected(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	err := ValidateTiming(ts("2024-01-11T23:00:00Z"), ts("2024-01-12T01:00:00Z"), now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "same day")
}

func TestValidateTiming_RuleOrder(t *testing.T) {
	now := ts("2024-01-10T10:00:00Z")

	// A past interval that also crosses midnight must fail on the first rule.
	err := ValidateTiming(ts("2024-01-05T23:00:00Z"), ts("2024-01-06T01:00:00Z"), now)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "in the future")
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	assert.False(t, got.Before(before))
}
