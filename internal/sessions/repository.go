package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
	"github.com/venuepilot/backend/pkg/database"
)

// Repository handles session persistence. Like events, the exclusion
// constraint on (space_id, time range) is the final arbiter of occupancy;
// violations come back as conflict errors.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `id, event_id, organizer_id, title, description, status, space_id, starts_at, ends_at, capacity, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.EventID, &s.OrganizerID, &s.Title, &s.Description, &s.Status,
		&s.SpaceID, &s.TimeRange.Start, &s.TimeRange.End, &s.Capacity, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

// GetByID returns a session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, q, id))
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO sessions (event_id, organizer_id, title, description, status, space_id, starts_at, ends_at, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.EventID, s.OrganizerID, s.Title, s.Description, s.Status,
		s.SpaceID, s.TimeRange.Start, s.TimeRange.End, s.Capacity).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if database.IsExclusionViolation(err) {
		return &schedule.ConflictError{Kind: "session"}
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Update writes the merged session row back.
func (r *Repository) Update(ctx context.Context, s *models.Session) error {
	const q = `UPDATE sessions
		SET title = $1, description = $2, status = $3, space_id = $4,
		    starts_at = $5, ends_at = $6, capacity = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, s.Title, s.Description, s.Status, s.SpaceID,
		s.TimeRange.Start, s.TimeRange.End, s.Capacity, s.ID).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if database.IsExclusionViolation(err) {
		return &schedule.ConflictError{Kind: "session"}
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session; its registrations cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByEvent returns all sessions under an event, earliest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions
		WHERE event_id = $1 ORDER BY starts_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var list []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}
