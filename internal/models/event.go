package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/venuepilot/backend/internal/schedule"
)

// EventStatus is the lifecycle status shared by events and sessions.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

// ValidEventStatus reports whether s is a known lifecycle status.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Event is an organizer-created happening. A draft may be undated and
// unplaced; SpaceID and TimeRange are always both nil or both set.
// Cancelled events keep their row but stop occupying their space.
type Event struct {
	ID          uuid.UUID           `json:"id"`
	OrganizerID uuid.UUID           `json:"organizer_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Status      EventStatus         `json:"status"`
	SpaceID     *uuid.UUID          `json:"space_id,omitempty"`
	TimeRange   *schedule.TimeRange `json:"time_range,omitempty"`
	Capacity    *int                `json:"capacity,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Session is a scheduled slot inside a space, optionally under a parent
// event. Unlike Event it can never be placeless.
type Session struct {
	ID          uuid.UUID          `json:"id"`
	EventID     *uuid.UUID         `json:"event_id,omitempty"`
	OrganizerID uuid.UUID          `json:"organizer_id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Status      EventStatus        `json:"status"`
	SpaceID     uuid.UUID          `json:"space_id"`
	TimeRange   schedule.TimeRange `json:"time_range"`
	Capacity    *int               `json:"capacity,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
