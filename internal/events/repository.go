package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
	"github.com/venuepilot/backend/pkg/database"
)

// Repository handles event and registration persistence. Admission writes
// rely on the storage constraints (exclusion over space occupancy, unique
// per-target registration) as the final arbiter; constraint violations are
// translated back into domain errors here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, organizer_id, title, description, status, space_id, starts_at, ends_at, capacity, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var startsAt, endsAt *time.Time
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Status,
		&e.SpaceID, &startsAt, &endsAt, &e.Capacity, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if startsAt != nil && endsAt != nil {
		e.TimeRange = &schedule.TimeRange{Start: *startsAt, End: *endsAt}
	}
	return &e, nil
}

func rangeBounds(r *schedule.TimeRange) (startsAt, endsAt *time.Time) {
	if r != nil {
		startsAt, endsAt = &r.Start, &r.End
	}
	return startsAt, endsAt
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

// Create inserts a new event. A lost race against the exclusion constraint
// comes back as a ConflictError, same as the advisory check would report.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (organizer_id, title, description, status, space_id, starts_at, ends_at, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	startsAt, endsAt := rangeBounds(e.TimeRange)
	err := r.pool.QueryRow(ctx, q, e.OrganizerID, e.Title, e.Description, e.Status,
		e.SpaceID, startsAt, endsAt, e.Capacity).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if database.IsExclusionViolation(err) {
		return &schedule.ConflictError{Kind: "event"}
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update writes the merged event row back.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events
		SET title = $1, description = $2, status = $3, space_id = $4,
		    starts_at = $5, ends_at = $6, capacity = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`
	startsAt, endsAt := rangeBounds(e.TimeRange)
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Status, e.SpaceID,
		startsAt, endsAt, e.Capacity, e.ID).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if database.IsExclusionViolation(err) {
		return &schedule.ConflictError{Kind: "event"}
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event; sessions and registrations cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListFilter narrows the event listing. Statuses are ANDed equality filters;
// role scoping and a caller-requested status filter stack. StartDate/EndDate
// are accepted for API compatibility but not applied.
type ListFilter struct {
	OrganizerID *uuid.UUID
	Statuses    []models.EventStatus
	Search      string
	StartDate   *time.Time
	EndDate     *time.Time
	Offset      int
	Limit       int
}

// List returns a page of events plus the total match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Event, int, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OrganizerID != nil {
		conds = append(conds, "organizer_id = "+arg(*f.OrganizerID))
	}
	for _, s := range f.Statuses {
		conds = append(conds, "status = "+arg(s))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	q := "SELECT " + eventColumns + " FROM events" + where +
		" ORDER BY created_at DESC OFFSET " + arg(f.Offset) + " LIMIT " + arg(f.Limit)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}
