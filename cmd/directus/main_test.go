package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/config"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/logging"
)

func testConfig(storage string) config.Config {
	cfg := config.Defaults()
	cfg.Storage = storage
	cfg.SessionSecret = "cli-test-secret"
	return cfg
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		command string
		rest    int
	}{
		{nil, "serve", 0},
		{[]string{"--port", "9000"}, "serve", 2},
		{[]string{"Export", "-c", "zstd"}, "export", 2},
		{[]string{"reset"}, "reset", 0},
	}
	for _, tc := range tests {
		command, rest := splitCommand(tc.args)
		if command != tc.command || len(rest) != tc.rest {
			t.Fatalf("splitCommand(%v) = %q, %v", tc.args, command, rest)
		}
	}
}

func TestExportImportCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(config.StorageMemory)
	a, err := openApp(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	defer a.Close()

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	if err := runExport(ctx, a, cfg, []string{"--out", dir, "--compression", "zstd"}, &stdout, &stderr); err != nil {
		t.Fatalf("runExport: %v (%s)", err, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], ".json.zst") || !strings.HasPrefix(lines[1], "blake3=") {
		t.Fatalf("unexpected export output %q", stdout.String())
	}
	if filepath.Dir(lines[0]) != dir {
		t.Fatalf("expected export inside %s, got %s", dir, lines[0])
	}

	stdout.Reset()
	if err := runImport(ctx, a, cfg, []string{"--file", lines[0]}, &stdout, &stderr); err != nil {
		t.Fatalf("runImport: %v", err)
	}
	if !strings.Contains(stdout.String(), string(governance.KeyMeetings)) {
		t.Fatalf("expected meetings among imported keys, got %q", stdout.String())
	}

	if err := runImport(ctx, a, cfg, nil, &stdout, &stderr); err == nil {
		t.Fatal("expected missing --file to fail")
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := runImport(ctx, a, cfg, []string{"-f", garbage}, &stdout, &stderr); !errors.Is(err, application.ErrImportParse) {
		t.Fatalf("expected ErrImportParse, got %v", err)
	}
}

func TestResetCommandPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(config.StorageFile)
	cfg.DataDir = t.TempDir()

	a, err := openApp(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := runReset(ctx, a, nil, &stdout, &stderr); !errors.Is(err, application.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if err := runReset(ctx, a, []string{"--yes"}, &stdout, &stderr); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := openApp(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	state := reopened.services.Store.Snapshot()
	if len(state.Meetings) != 0 || len(state.Tasks) != 0 {
		t.Fatalf("expected reset state to survive a restart, got %d meetings and %d tasks", len(state.Meetings), len(state.Tasks))
	}
	if len(state.AuditLogs) != 1 || state.AuditLogs[0].Action != governance.ActionDatabaseReset {
		t.Fatalf("expected the reset audit entry, got %+v", state.AuditLogs)
	}
}

func TestMaintenancePrincipal(t *testing.T) {
	t.Parallel()

	principal, err := maintenancePrincipal(governance.State{Users: governance.SeedRoster()})
	if err != nil || principal.Role != governance.RoleChairman {
		t.Fatalf("expected the Chairman, got %+v, %v", principal, err)
	}
	if _, err := maintenancePrincipal(governance.State{}); err == nil {
		t.Fatal("expected an error for an empty roster")
	}
}

func TestOpenStorageRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := openStorage(context.Background(), testConfig("floppy"), logging.Discard()); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}
