package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuepilot/backend/internal/models"
)

// Repository handles user and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.email, u.password_hash, u.full_name, u.is_active, u.last_login_at, u.created_at, u.updated_at,
	COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')`

const userJoin = ` FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id`

// GetByID returns a user with their role names.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + userJoin + ` WHERE u.id = $1 GROUP BY u.id`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email with their role names.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + userJoin + ` WHERE u.email = $1 GROUP BY u.id`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *Repository) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.Roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a user and attaches the given roles in one transaction.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, roles []string) (*models.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var u models.User
	const insertQ = `INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, full_name, is_active, last_login_at, created_at, updated_at`
	err = tx.QueryRow(ctx, insertQ, email, passwordHash, fullName).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	for _, role := range roles {
		const roleQ = `INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2`
		tag, err := tx.Exec(ctx, roleQ, u.ID, role)
		if err != nil {
			return nil, fmt.Errorf("attach role %s: %w", role, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("unknown role %s", role)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	u.Roles = roles
	return &u, nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// List returns all users for admin views.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	q := `SELECT ` + userColumns + userJoin + ` GROUP BY u.id ORDER BY u.full_name, u.email`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.UserPublic
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u.ToPublic())
	}
	return list, rows.Err()
}
