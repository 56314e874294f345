package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore tracks issued token IDs in Redis so that logout revokes the
// token before its JWT expiry. A token is valid only while its jti key lives.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(jti string) string { return "token:" + jti }

// Save records a jti with the token's TTL.
func (s *SessionStore) Save(ctx context.Context, jti string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Valid reports whether a jti is still active.
func (s *SessionStore) Valid(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Revoke deletes a jti; subsequent requests with that token are rejected.
func (s *SessionStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
