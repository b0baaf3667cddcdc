package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/directus-governance/internal/persistence"
)

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := s.Get(ctx, "directus_v1_tasks"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "directus_v1_tasks", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "directus_v1_tasks", []byte(`[{"id":"t1"}]`)); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, err := s.Get(ctx, "directus_v1_tasks")
	if err != nil || string(got) != `[{"id":"t1"}]` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "directus_v1_tasks.json" {
		t.Fatalf("expected a single document file, got %v", entries)
	}

	if err := s.Delete(ctx, "directus_v1_tasks"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "directus_v1_tasks"); err != nil {
		t.Fatalf("deleting an absent key must succeed: %v", err)
	}
}

func TestStoreRejectsPathKeys(t *testing.T) {
	t.Parallel()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		if err := s.Put(context.Background(), key, []byte("{}")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
	if _, err := Open(" "); err == nil {
		t.Fatalf("expected error for blank directory")
	}
}
