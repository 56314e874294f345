package sessions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
)

// Store is the session persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Create(ctx context.Context, s *models.Session) error
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error)
}

// EventStore resolves parent events for ownership checks.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// ConflictChecker is the advisory space-occupancy scan.
type ConflictChecker interface {
	SpaceConflict(ctx context.Context, spaceID uuid.UUID, r schedule.TimeRange, excludeEventID, excludeSessionID *uuid.UUID) (*schedule.ConflictError, error)
}

// Service is the admission controller for sessions. A session is always
// placed, so every create and reschedule goes through temporal validation
// and the overlap scan.
type Service struct {
	store   Store
	events  EventStore
	overlap ConflictChecker
	clock   schedule.Clock
	logger  *zap.Logger
}

// NewService creates a session service.
func NewService(store Store, events EventStore, overlap ConflictChecker, clock schedule.Clock, logger *zap.Logger) *Service {
	return &Service{store: store, events: events, overlap: overlap, clock: clock, logger: logger}
}

// CreateParams are the caller-supplied fields for a new session.
type CreateParams struct {
	EventID     *uuid.UUID
	Title       string
	Description *string
	Status      models.EventStatus
	SpaceID     uuid.UUID
	TimeRange   schedule.TimeRange
	Capacity    *int
}

// Create admits a new session. When a parent event is named, it must exist
// and the caller must be its organizer or an admin.
func (s *Service) Create(ctx context.Context, caller models.Identity, p CreateParams) (*models.Session, error) {
	if !caller.IsAdmin() && !caller.IsOrganizer() {
		return nil, models.ErrForbidden
	}

	if p.EventID != nil {
		parent, err := s.events.GetByID(ctx, *p.EventID)
		if err != nil {
			return nil, err
		}
		if !caller.IsAdmin() && parent.OrganizerID != caller.UserID {
			return nil, models.ErrForbidden
		}
	}

	status := p.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !models.ValidEventStatus(status) {
		return nil, &schedule.ValidationError{Reason: "invalid status"}
	}

	if err := schedule.ValidateTiming(p.TimeRange.Start, p.TimeRange.End, s.clock.Now()); err != nil {
		return nil, err
	}
	conflict, err := s.overlap.SpaceConflict(ctx, p.SpaceID, p.TimeRange, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("check space overlap: %w", err)
	}
	if conflict != nil {
		return nil, conflict
	}

	sess := &models.Session{
		EventID:     p.EventID,
		OrganizerID: caller.UserID,
		Title:       p.Title,
		Description: p.Description,
		Status:      status,
		SpaceID:     p.SpaceID,
		TimeRange:   p.TimeRange,
		Capacity:    p.Capacity,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID.String()),
		zap.String("organizer_id", caller.UserID.String()))
	return sess, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateParams are the caller-supplied partial fields; nil means unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Status      *models.EventStatus
	SpaceID     *uuid.UUID
	TimeRange   *schedule.TimeRange
	Capacity    *int
}

// Update re-admits a session with merged fields. Any change to the space or
// the range reruns validation and the overlap scan, excluding this session.
func (s *Service) Update(ctx context.Context, caller models.Identity, id uuid.UUID, p UpdateParams) (*models.Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && sess.OrganizerID != caller.UserID {
		return nil, models.ErrForbidden
	}

	if p.Title != nil {
		sess.Title = *p.Title
	}
	if p.Description != nil {
		sess.Description = p.Description
	}
	if p.Status != nil {
		if !models.ValidEventStatus(*p.Status) {
			return nil, &schedule.ValidationError{Reason: "invalid status"}
		}
		sess.Status = *p.Status
	}
	if p.Capacity != nil {
		sess.Capacity = p.Capacity
	}

	reschedule := false
	if p.TimeRange != nil {
		sess.TimeRange = *p.TimeRange
		reschedule = true
	}
	if p.SpaceID != nil {
		sess.SpaceID = *p.SpaceID
		reschedule = true
	}

	if reschedule {
		if p.TimeRange != nil {
			if err := schedule.ValidateTiming(sess.TimeRange.Start, sess.TimeRange.End, s.clock.Now()); err != nil {
				return nil, err
			}
		}
		conflict, err := s.overlap.SpaceConflict(ctx, sess.SpaceID, sess.TimeRange, nil, &id)
		if err != nil {
			return nil, fmt.Errorf("check space overlap: %w", err)
		}
		if conflict != nil {
			return nil, conflict
		}
	}

	if err := s.store.Update(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("session updated", zap.String("session_id", id.String()))
	return sess, nil
}

// Delete removes a session, returning the deleted row.
func (s *Service) Delete(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && sess.OrganizerID != caller.UserID {
		return nil, models.ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("session deleted", zap.String("session_id", id.String()))
	return sess, nil
}

// ListByEvent returns the sessions under an event; the event must exist.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListByEvent(ctx, eventID)
}
