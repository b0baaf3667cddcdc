package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/example/directus-governance/internal/persistence"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DIRECTUS_TEST_POSTGRES_URL")
	if dbURL == "" {
		t.Skip("DIRECTUS_TEST_POSTGRES_URL not set")
	}
	store, err := Open(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("test-%s", uuid.NewString()[:8])
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	if _, err := store.Get(ctx, key); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Put(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, key, []byte(`[{"id":"t1"}]`)); err != nil {
		t.Fatalf("second put: %v", err)
	}
	body, err := store.Get(ctx, key)
	if err != nil || string(body) != `[{"id":"t1"}]` {
		t.Fatalf("get = %q, %v", body, err)
	}
}

func TestStore_DetectsTamperedBody(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("test-%s", uuid.NewString()[:8])
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	if err := store.Put(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.pool.Exec(ctx, `UPDATE directus_documents SET body = $1 WHERE key = $2`, []byte(`[1]`), key); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, persistence.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
