package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venuepilot/backend/internal/models"
)

func TestAdmitRegistration(t *testing.T) {
	tests := []struct {
		name       string
		status     models.EventStatus
		registered bool
		capacity   *int
		count      int
		want       error
	}{
		{
			name:   "published with free seats admits",
			status: models.StatusPublished, capacity: ptr(10), count: 3,
		},
		{
			name:   "unlimited capacity admits at any count",
			status: models.StatusPublished, capacity: nil, count: 100000,
		},
		{
			name:   "last seat admits",
			status: models.StatusPublished, capacity: ptr(10), count: 9,
		},
		{
			name:   "full event rejects",
			status: models.StatusPublished, capacity: ptr(10), count: 10,
			want: models.ErrCapacityExceeded,
		},
		{
			name:   "overfull event rejects",
			status: models.StatusPublished, capacity: ptr(10), count: 11,
			want: models.ErrCapacityExceeded,
		},
		{
			name:   "draft event rejects",
			status: models.StatusDraft, capacity: ptr(10), count: 0,
			want: models.ErrInvalidState,
		},
		{
			name:   "cancelled event rejects",
			status: models.StatusCancelled, capacity: nil, count: 0,
			want: models.ErrInvalidState,
		},
		{
			name:   "duplicate rejects before capacity",
			status: models.StatusPublished, registered: true, capacity: ptr(10), count: 10,
			want: models.ErrAlreadyRegistered,
		},
		{
			name:   "state check wins over duplicate and capacity",
			status: models.StatusDraft, registered: true, capacity: ptr(10), count: 10,
			want: models.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := admitRegistration(tt.status, tt.registered, tt.capacity, tt.count)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
