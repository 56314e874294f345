package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
)

// Store is the event persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter) ([]models.Event, int, error)
}

// RegistrationStore is the registration persistence the service needs. Its
// Register implementation owns the capacity/duplicate/overlap transaction.
type RegistrationStore interface {
	Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, error)
	Unregister(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
}

// ConflictChecker is the advisory space-occupancy scan.
type ConflictChecker interface {
	SpaceConflict(ctx context.Context, spaceID uuid.UUID, r schedule.TimeRange, excludeEventID, excludeSessionID *uuid.UUID) (*schedule.ConflictError, error)
}

// Service is the admission controller for events: capability check, temporal
// validation, advisory overlap check, then atomic persist. Every check
// before the write is advisory; the storage constraints re-validate it.
type Service struct {
	store   Store
	regs    RegistrationStore
	overlap ConflictChecker
	clock   schedule.Clock
	logger  *zap.Logger
}

// NewService creates an event service.
func NewService(store Store, regs RegistrationStore, overlap ConflictChecker, clock schedule.Clock, logger *zap.Logger) *Service {
	return &Service{store: store, regs: regs, overlap: overlap, clock: clock, logger: logger}
}

// CreateParams are the caller-supplied fields for a new event.
type CreateParams struct {
	Title       string
	Description *string
	Status      models.EventStatus
	SpaceID     *uuid.UUID
	TimeRange   *schedule.TimeRange
	Capacity    *int
}

// Create admits a new event. Only organizers and admins may create; a placed
// event (space + time range) passes temporal validation and the overlap scan
// before the insert.
func (s *Service) Create(ctx context.Context, caller models.Identity, p CreateParams) (*models.Event, error) {
	if !caller.IsAdmin() && !caller.IsOrganizer() {
		return nil, models.ErrForbidden
	}

	if (p.SpaceID == nil) != (p.TimeRange == nil) {
		return nil, &schedule.ValidationError{Reason: "space_id and time_range must be provided together"}
	}

	status := p.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !models.ValidEventStatus(status) {
		return nil, &schedule.ValidationError{Reason: "invalid status"}
	}

	if p.TimeRange != nil {
		if err := schedule.ValidateTiming(p.TimeRange.Start, p.TimeRange.End, s.clock.Now()); err != nil {
			return nil, err
		}
		conflict, err := s.overlap.SpaceConflict(ctx, *p.SpaceID, *p.TimeRange, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("check space overlap: %w", err)
		}
		if conflict != nil {
			return nil, conflict
		}
	}

	e := &models.Event{
		OrganizerID: caller.UserID,
		Title:       p.Title,
		Description: p.Description,
		Status:      status,
		SpaceID:     p.SpaceID,
		TimeRange:   p.TimeRange,
		Capacity:    p.Capacity,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		zap.String("event_id", e.ID.String()),
		zap.String("organizer_id", caller.UserID.String()),
		zap.String("status", string(e.Status)))
	return e, nil
}

// Get returns an event by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
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

// Update re-admits an event with merged fields. Timing is re-validated when
// the range changes; the overlap scan (excluding this event) reruns when
// either the range or the space changes.
func (s *Service) Update(ctx context.Context, caller models.Identity, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && e.OrganizerID != caller.UserID {
		return nil, models.ErrForbidden
	}

	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.Status != nil {
		if !models.ValidEventStatus(*p.Status) {
			return nil, &schedule.ValidationError{Reason: "invalid status"}
		}
		e.Status = *p.Status
	}
	if p.Capacity != nil {
		e.Capacity = p.Capacity
	}

	reschedule := false
	if p.TimeRange != nil {
		e.TimeRange = p.TimeRange
		reschedule = true
	}
	if p.SpaceID != nil {
		e.SpaceID = p.SpaceID
		reschedule = true
	}

	if (e.SpaceID == nil) != (e.TimeRange == nil) {
		return nil, &schedule.ValidationError{Reason: "space_id and time_range must be provided together"}
	}

	if p.TimeRange != nil {
		if err := schedule.ValidateTiming(p.TimeRange.Start, p.TimeRange.End, s.clock.Now()); err != nil {
			return nil, err
		}
	}
	if reschedule && e.SpaceID != nil && e.TimeRange != nil {
		conflict, err := s.overlap.SpaceConflict(ctx, *e.SpaceID, *e.TimeRange, &id, nil)
		if err != nil {
			return nil, fmt.Errorf("check space overlap: %w", err)
		}
		if conflict != nil {
			return nil, conflict
		}
	}

	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("event updated", zap.String("event_id", id.String()))
	return e, nil
}

// Delete removes an event and everything under it, returning the deleted row.
func (s *Service) Delete(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Event, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && e.OrganizerID != caller.UserID {
		return nil, models.ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("event deleted", zap.String("event_id", id.String()))
	return e, nil
}

// ListOptions are the caller-facing listing filters.
type ListOptions struct {
	Search    string
	Status    *models.EventStatus
	StartDate *string // accepted but unused; date filtering is not applied
	EndDate   *string
	Page      int
	Size      int
}

// List returns a role-scoped page of events: admins see everything,
// organizers their own, everyone else only published.
func (s *Service) List(ctx context.Context, caller models.Identity, opts ListOptions) (models.Page[models.Event], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.Size
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	f := ListFilter{
		Search: opts.Search,
		Offset: (page - 1) * size,
		Limit:  size,
	}
	switch {
	case caller.IsAdmin():
	case caller.IsOrganizer():
		orgID := caller.UserID
		f.OrganizerID = &orgID
	default:
		f.Statuses = append(f.Statuses, models.StatusPublished)
	}
	if opts.Status != nil {
		f.Statuses = append(f.Statuses, *opts.Status)
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return models.Page[models.Event]{}, err
	}
	return models.NewPage(items, total, page, size), nil
}

// Register admits the caller to a published event. The capacity, duplicate,
// and schedule-overlap checks run inside the store transaction.
func (s *Service) Register(ctx context.Context, caller models.Identity, eventID uuid.UUID) (*models.Registration, error) {
	reg, err := s.regs.Register(ctx, caller.UserID, eventID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", caller.UserID.String()))
	return reg, nil
}

// Unregister removes the caller's registration for the event.
func (s *Service) Unregister(ctx context.Context, caller models.Identity, eventID uuid.UUID) (*models.Registration, error) {
	return s.regs.Unregister(ctx, caller.UserID, eventID)
}

// MyRegistrations returns the caller's registrations.
func (s *Service) MyRegistrations(ctx context.Context, caller models.Identity) ([]models.Registration, error) {
	return s.regs.ListByUser(ctx, caller.UserID)
}
