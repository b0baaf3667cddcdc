// Package migration applies versioned schema changes to the SQLite document store.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_documents.sql") and are read from an fs.FS, usually an embedded
// directory. Applied versions and their checksums are tracked in the
// schema_migrations table so each file runs exactly once and later edits to an
// applied file are detected.
//
// Example usage:
//
//	manager := NewManager(migrations, "migrations", NewSQLiteExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
