package venues

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/pkg/database"
)

// ErrDuplicate is returned when a venue or space insert hits its unique
// constraint.
var ErrDuplicate = errors.New("already exists")

// Repository handles venue and space persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a venue repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const venueColumns = `id, name, address, city, country, latitude, longitude, is_active, created_at, updated_at`

func scanVenue(row pgx.Row) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.Country,
		&v.Latitude, &v.Longitude, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan venue: %w", err)
	}
	return &v, nil
}

// CreateVenue inserts a new venue. Duplicate (name, city) pairs are rejected.
func (r *Repository) CreateVenue(ctx context.Context, v *models.Venue) error {
	const q = `INSERT INTO venues (name, address, city, country, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, v.Name, v.Address, v.City, v.Country, v.Latitude, v.Longitude).
		Scan(&v.ID, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

// GetVenue returns a venue by ID.
func (r *Repository) GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	const q = `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`
	return scanVenue(r.pool.QueryRow(ctx, q, id))
}

// ListVenues returns all active venues.
func (r *Repository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	const q = `SELECT ` + venueColumns + ` FROM venues WHERE is_active ORDER BY name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var list []models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

const spaceColumns = `id, venue_id, name, capacity, is_active, created_at, updated_at`

func scanSpace(row pgx.Row) (*models.Space, error) {
	var s models.Space
	err := row.Scan(&s.ID, &s.VenueID, &s.Name, &s.Capacity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan space: %w", err)
	}
	return &s, nil
}

// CreateSpace inserts a new space under a venue.
func (r *Repository) CreateSpace(ctx context.Context, s *models.Space) error {
	const q = `INSERT INTO spaces (venue_id, name, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, is_active, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.VenueID, s.Name, s.Capacity).
		Scan(&s.ID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if database.IsForeignKeyViolation(err) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}
	return nil
}

// GetSpace returns a space by ID.
func (r *Repository) GetSpace(ctx context.Context, id uuid.UUID) (*models.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE id = $1`
	return scanSpace(r.pool.QueryRow(ctx, q, id))
}

// ListSpaces returns the active spaces under a venue.
func (r *Repository) ListSpaces(ctx context.Context, venueID uuid.UUID) ([]models.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE venue_id = $1 AND is_active ORDER BY name`
	rows, err := r.pool.Query(ctx, q, venueID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	var list []models.Space
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}
