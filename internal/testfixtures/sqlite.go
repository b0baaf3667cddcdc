package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/directus-governance/internal/logging"
	"github.com/example/directus-governance/internal/persistence"
	"github.com/example/directus-governance/internal/persistence/sqlite"
	"github.com/example/directus-governance/internal/persistence/sqlite/migration"
)

// SQLiteHarness couples a migrated SQLite document store in a temporary
// directory with a mirror writing to it.
type SQLiteHarness struct {
	Path   string
	Store  *sqlite.Store
	Mirror *persistence.Mirror
}

// NewSQLiteHarness opens the harness and registers its cleanup with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "directus.db")
	store, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(path), logging.Discard())
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})

	return &SQLiteHarness{
		Path:   path,
		Store:  store,
		Mirror: persistence.NewMirror(store, logging.Discard()),
	}
}
