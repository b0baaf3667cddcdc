// Package postgres stores state documents in a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/directus-governance/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS directus_documents (
    key TEXT PRIMARY KEY,
    body BYTEA NOT NULL,
    digest TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a PostgreSQL backed persistence.DocumentStore.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and creates the document table when missing.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: bootstrap schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Get returns the body stored under key after checking its digest.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		body   []byte
		digest string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT body, digest FROM directus_documents WHERE key = $1`, key,
	).Scan(&body, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", key, err)
	}
	if err := persistence.VerifyDigest(body, digest); err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", key, err)
	}
	return body, nil
}

// Put upserts body under key.
func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO directus_documents (key, body, digest, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, digest = EXCLUDED.digest, updated_at = now()`,
		key, body, persistence.Digest(body),
	)
	if err != nil {
		return fmt.Errorf("postgres: put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM directus_documents WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
