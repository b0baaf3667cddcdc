// Package sqlite stores state documents in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/directus-governance/internal/persistence"
	"github.com/example/directus-governance/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite backed persistence.DocumentStore. Each body is stored
// with its BLAKE3 digest, which is verified on every read.
type Store struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// Open connects to the database described by config and applies pending migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	manager := migration.NewManager(migrations, "migrations", migration.NewSQLiteExecutor(pool.DB()), logger)
	if _, err := manager.Run(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &Store{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}, nil
}

// Get returns the body stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		body   []byte
		digest string
	)
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.DB().QueryRowContext(ctx, `SELECT body, digest FROM documents WHERE key = ?`, key).Scan(&body, &digest)
	})
	if err != nil {
		return nil, err
	}
	if err := persistence.VerifyDigest(body, digest); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", key, err)
	}
	return body, nil
}

// Put upserts body under key in a single transaction.
func (s *Store) Put(ctx context.Context, key string, body []byte) error {
	const upsert = `
		INSERT INTO documents (key, body, digest, updated_at, revision)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			digest = excluded.digest,
			updated_at = excluded.updated_at,
			revision = documents.revision + 1`

	digest := persistence.Digest(body)
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, upsert, key, body, digest, updatedAt)
			return err
		})
	})
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.retry.WithRetry(ctx, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
		return err
	})
}

// Revision reports how many times key has been written.
func (s *Store) Revision(ctx context.Context, key string) (int, error) {
	var revision int
	err := s.pool.DB().QueryRowContext(ctx, `SELECT revision FROM documents WHERE key = ?`, key).Scan(&revision)
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return revision, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
