package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the query subset of pgx satisfied by both *pgxpool.Pool and
// pgx.Tx, so advisory checks can run inside an admission transaction and see
// its uncommitted state.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConflictError identifies the existing occupant that blocks a candidate
// time range.
type ConflictError struct {
	Kind  string // "event" or "session"
	ID    uuid.UUID
	Title string
}

func (e *ConflictError) Error() string {
	if e.Title == "" {
		// Storage-level exclusion violation: the winning row is unknown.
		return "time range overlaps an existing booking in this space"
	}
	return fmt.Sprintf("time overlaps with existing %s: %s", e.Kind, e.Title)
}

// Detector runs read-only occupancy scans. Its answers are advisory: the
// storage exclusion constraints remain the authority under concurrent writers.
type Detector struct {
	db Querier
}

// NewDetector creates a detector bound to a pool or transaction.
func NewDetector(db Querier) *Detector {
	return &Detector{db: db}
}

// WithQuerier returns a detector running against q, typically a transaction.
func (d *Detector) WithQuerier(q Querier) *Detector {
	return &Detector{db: q}
}

// SpaceConflict returns the first non-cancelled event or session occupying
// the space over an interval intersecting r, or nil when the slot is free.
// The row under update, if any, is excluded. Events and sessions consume the
// same calendar; neither takes priority.
func (d *Detector) SpaceConflict(ctx context.Context, spaceID uuid.UUID, r TimeRange, excludeEventID, excludeSessionID *uuid.UUID) (*ConflictError, error) {
	const eventQ = `SELECT id, title FROM events
		WHERE space_id = $1
		  AND status <> 'cancelled'
		  AND starts_at IS NOT NULL
		  AND tstzrange(starts_at, ends_at, '[]') && tstzrange($2, $3, '[]')
		  AND ($4::uuid IS NULL OR id <> $4)
		LIMIT 1`
	conflict, err := d.scanConflict(ctx, "event", eventQ, spaceID, r.Start, r.End, excludeEventID)
	if err != nil || conflict != nil {
		return conflict, err
	}

	const sessionQ = `SELECT id, title FROM sessions
		WHERE space_id = $1
		  AND status <> 'cancelled'
		  AND tstzrange(starts_at, ends_at, '[]') && tstzrange($2, $3, '[]')
		  AND ($4::uuid IS NULL OR id <> $4)
		LIMIT 1`
	return d.scanConflict(ctx, "session", sessionQ, spaceID, r.Start, r.End, excludeSessionID)
}

// UserConflict returns an event or session the user is already registered
// for (registration not cancelled) whose occupancy intersects r, or nil.
// Space is irrelevant here: a person cannot attend two things at once.
func (d *Detector) UserConflict(ctx context.Context, userID uuid.UUID, r TimeRange) (*ConflictError, error) {
	const eventQ = `SELECT e.id, e.title FROM registrations reg
		JOIN events e ON e.id = reg.event_id
		WHERE reg.user_id = $1
		  AND reg.status <> 'cancelled'
		  AND e.starts_at IS NOT NULL
		  AND tstzrange(e.starts_at, e.ends_at, '[]') && tstzrange($2, $3, '[]')
		LIMIT 1`
	conflict, err := d.scanConflict(ctx, "event", eventQ, userID, r.Start, r.End)
	if err != nil || conflict != nil {
		return conflict, err
	}

	const sessionQ = `SELECT s.id, s.title FROM registrations reg
		JOIN sessions s ON s.id = reg.session_id
		WHERE reg.user_id = $1
		  AND reg.status <> 'cancelled'
		  AND tstzrange(s.starts_at, s.ends_at, '[]') && tstzrange($2, $3, '[]')
		LIMIT 1`
	return d.scanConflict(ctx, "session", sessionQ, userID, r.Start, r.End)
}

func (d *Detector) scanConflict(ctx context.Context, kind, query string, args ...any) (*ConflictError, error) {
	var id uuid.UUID
	var title string
	err := d.db.QueryRow(ctx, query, args...).Scan(&id, &title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s occupancy: %w", kind, err)
	}
	return &ConflictError{Kind: kind, ID: id, Title: title}, nil
}
