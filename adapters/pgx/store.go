package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/medassist/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// TokenStore keeps the token as one row of the client_state table.
type TokenStore struct {
	pool *pgxpool.Pool
	key  string
}

var _ core.TokenStore = (*TokenStore)(nil)

// New stores under key; empty means core.TokenStorageKey.
func New(pool *pgxpool.Pool, key string) *TokenStore {
	if key == "" {
		key = core.TokenStorageKey
	}
	return &TokenStore{pool: pool, key: key}
}

// EnsureSchema creates the client_state table when missing.
func (s *TokenStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create client_state table: %w", err)
	}
	return nil
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx, `SELECT value FROM client_state WHERE key = $1`, s.key).Scan(&token)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.key, token)
	return err
}

func (s *TokenStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM client_state WHERE key = $1`, s.key)
	return err
}
