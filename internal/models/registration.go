package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the lifecycle status of a registration.
// Waitlist is reserved in the schema but never produced by admission;
// promotion semantics are unspecified.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationWaitlist  RegistrationStatus = "waitlist"
)

// Registration is a user's admission to exactly one event or session,
// never both. Unique per (user, event) and per (user, session).
type Registration struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	EventID   *uuid.UUID         `json:"event_id,omitempty"`
	SessionID *uuid.UUID         `json:"session_id,omitempty"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
