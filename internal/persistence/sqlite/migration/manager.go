package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
)

// Manager orchestrates the migration process.
type Manager struct {
	fsys     fs.FS
	dir      string
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager that reads migrations from dir inside fsys.
func NewManager(fsys fs.FS, dir string, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fsys: fsys, dir: dir, executor: executor, logger: logger}
}

// Run executes all pending migrations in sequential order and returns the final status.
func (m *Manager) Run(ctx context.Context) (Status, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	if len(status.Pending) == 0 {
		m.logger.Debug("schema up to date", slog.String("version", status.CurrentVersion))
		return status, nil
	}

	for i, migration := range status.Pending {
		elapsed, err := m.executor.ExecuteMigration(ctx, migration)
		if err != nil {
			m.logger.Error("migration failed",
				slog.String("version", migration.Version),
				slog.String("file", migration.FilePath),
				slog.Any("error", err),
			)
			return Status{}, err
		}
		m.logger.Info("migration applied",
			slog.String("version", migration.Version),
			slog.String("description", migration.Description),
			slog.Int("position", i+1),
			slog.Int("pending", len(status.Pending)),
			slog.Duration("elapsed", elapsed),
		)
	}

	return m.Status(ctx)
}

// Status compares the migration files with the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		v, _ := strconv.Atoi(migration.Version)
		byVersion[v] = migration
	}

	appliedSet := make(map[int]struct{}, len(applied))
	current := ""
	for _, a := range applied {
		v, err := strconv.Atoi(a.Version)
		if err != nil {
			return Status{}, fmt.Errorf("%w: applied version %q is not numeric", ErrVersionConflict, a.Version)
		}
		file, ok := byVersion[v]
		if !ok {
			return Status{}, fmt.Errorf("%w: applied migration %s has no file", ErrVersionConflict, a.Version)
		}
		if a.Checksum != file.Checksum {
			return Status{}, NewMigrationError(a.Version, file.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		appliedSet[v] = struct{}{}
		current = a.Version
	}

	var pending []Migration
	for _, migration := range available {
		v, _ := strconv.Atoi(migration.Version)
		if _, done := appliedSet[v]; !done {
			pending = append(pending, migration)
		}
	}

	return Status{CurrentVersion: current, Applied: applied, Pending: pending}, nil
}
