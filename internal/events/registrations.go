package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
	"github.com/venuepilot/backend/pkg/database"
)

// Register admits a user to a published event inside a single transaction.
//
// The event row is locked with SELECT ... FOR UPDATE before the capacity
// count, which serializes concurrent registrations per event: two bursts
// racing for the last seat cannot both observe count < capacity. Duplicate
// and overlap checks run under the same lock; the partial unique index on
// (user_id, event_id) backstops the duplicate check for races the lock does
// not cover.
func (r *Repository) Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status models.EventStatus
	var capacity *int
	var startsAt, endsAt *time.Time
	err = tx.QueryRow(ctx,
		`SELECT status, capacity, starts_at, ends_at FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&status, &capacity, &startsAt, &endsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var registered bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&registered)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	var count int
	if capacity != nil {
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count registrations: %w", err)
		}
	}

	if err := admitRegistration(status, registered, capacity, count); err != nil {
		return nil, err
	}

	if startsAt != nil && endsAt != nil {
		detector := schedule.NewDetector(tx)
		conflict, err := detector.UserConflict(ctx, userID, schedule.TimeRange{Start: *startsAt, End: *endsAt})
		if err != nil {
			return nil, fmt.Errorf("check user overlap: %w", err)
		}
		if conflict != nil {
			return nil, conflict
		}
	}

	reg := &models.Registration{
		UserID:  userID,
		EventID: &eventID,
		Status:  models.RegistrationConfirmed,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO registrations (user_id, event_id, status)
		 VALUES ($1, $2, 'confirmed')
		 RETURNING id, created_at, updated_at`,
		userID, eventID,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return nil, models.ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return reg, nil
}

// admitRegistration decides whether a locked event accepts one more
// registration. Check order is fixed: published state, then duplicate, then
// capacity (nil capacity is unlimited; a full event rejects at count ==
// capacity).
func admitRegistration(status models.EventStatus, registered bool, capacity *int, count int) error {
	if status != models.StatusPublished {
		return models.ErrInvalidState
	}
	if registered {
		return models.ErrAlreadyRegistered
	}
	if capacity != nil && count >= *capacity {
		return models.ErrCapacityExceeded
	}
	return nil
}

const registrationColumns = `id, user_id, event_id, session_id, status, created_at, updated_at`

// Unregister deletes the user's registration for the event.
func (r *Repository) Unregister(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, error) {
	const q = `DELETE FROM registrations WHERE event_id = $1 AND user_id = $2
		RETURNING ` + registrationColumns
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, eventID, userID).
		Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.SessionID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete registration: %w", err)
	}
	return &reg, nil
}

// ListByUser returns all registrations held by a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations
		WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.SessionID,
			&reg.Status, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
