package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/directus-governance/internal/archive"
	"github.com/example/directus-governance/internal/governance"
)

// SystemService covers branding and the whole-dataset maintenance operations.
type SystemService struct {
	store       *Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSystemService wires dependencies for system operations.
func NewSystemService(store *Store, idGenerator func() string, now func() time.Time) *SystemService {
	return NewSystemServiceWithLogger(store, idGenerator, now, nil)
}

// NewSystemServiceWithLogger wires dependencies for system operations with a specified logger.
func NewSystemServiceWithLogger(store *Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SystemService {
	if now == nil {
		now = time.Now
	}
	return &SystemService{
		store:       store,
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SystemService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SystemService", operation, attrs...)
}

// Branding returns the white-label configuration. It is readable without a session.
func (s *SystemService) Branding(ctx context.Context) governance.Branding {
	if s == nil {
		return governance.DefaultBranding()
	}
	return s.store.Snapshot().Branding
}

// UpdateBranding replaces the white-label configuration.
func (s *SystemService) UpdateBranding(ctx context.Context, principal Principal, branding governance.Branding) (updated governance.Branding, err error) {
	if s == nil {
		err = fmt.Errorf("SystemService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBranding", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update branding", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("company_name", updated.CompanyName).InfoContext(ctx, "branding updated")
	}()

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyBranding}, func(st *governance.State) error {
		if err := s.authorize(*st, principal); err != nil {
			return err
		}
		st.Branding = branding
		updated = branding
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		updated = governance.Branding{}
	}
	return
}

// Export seals the exportable collections. The document reflects the state
// before the export itself is recorded in the audit trail.
func (s *SystemService) Export(ctx context.Context, params ExportParams) (result ExportResult, err error) {
	if s == nil {
		err = fmt.Errorf("SystemService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Export", "user_id", params.Principal.UserID, "compression", params.Options.Compression)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export database", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"file_name", result.File.FileName,
			"digest", result.File.Digest,
			"encrypted", len(params.Options.Recipients) > 0,
		).InfoContext(ctx, "database exported")
	}()

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyAuditLogs}, func(st *governance.State) error {
		if err := s.authorize(*st, params.Principal); err != nil {
			return err
		}
		actor, _ := actorFor(*st, params.Principal)

		now := s.now()
		doc := governance.NewExportDocument(*st)
		body, mErr := doc.Marshal()
		if mErr != nil {
			return fmt.Errorf("marshal export: %w", mErr)
		}
		sealed, sErr := archive.Seal(body, governance.ExportFileName(now), params.Options)
		if sErr != nil {
			return fmt.Errorf("seal export: %w", sErr)
		}

		appendAudit(st, s.idGenerator(), now, actor, governance.ActionDatabaseExported, "Full system database exported.")
		result = ExportResult{File: sealed, Document: doc}
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		result = ExportResult{}
	}
	return
}

// Import overwrites every collection present in the document. Unreadable
// input leaves the state untouched.
func (s *SystemService) Import(ctx context.Context, params ImportParams) (result ImportResult, err error) {
	if s == nil {
		err = fmt.Errorf("SystemService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Import", "user_id", params.Principal.UserID, "size", len(params.Data))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to import database", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("keys", result.Keys).InfoContext(ctx, "database imported")
	}()

	if err = s.authorize(s.store.Snapshot(), params.Principal); err != nil {
		return
	}

	plain, err := archive.Open(params.Data, params.Identities)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrImportParse, err)
		return
	}
	patch, err := governance.ParseImport(plain)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrImportParse, err)
		return
	}

	keys := patch.Keys()
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		if err := s.authorize(*st, params.Principal); err != nil {
			return err
		}
		patch.Apply(st)
		return nil
	})
	if err == nil || errors.Is(err, ErrPersistence) {
		result = ImportResult{Keys: keys}
	}
	return
}

// Reset returns the system to its factory state. Designations, calendars and
// notifications are kept.
func (s *SystemService) Reset(ctx context.Context, params ResetParams) (err error) {
	if s == nil {
		return fmt.Errorf("SystemService is nil")
	}

	logger := s.loggerWith(ctx, "Reset", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reset database", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.WarnContext(ctx, "database reset to factory state")
	}()

	keys := []governance.Key{
		governance.KeyMeetings,
		governance.KeyTasks,
		governance.KeyAuditLogs,
		governance.KeyUsers,
		governance.KeyBranding,
	}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		if err := s.authorize(*st, params.Principal); err != nil {
			return err
		}
		if !params.Confirm {
			return ErrConfirmationRequired
		}
		actor, _ := actorFor(*st, params.Principal)

		st.Meetings = []governance.Meeting{}
		st.Tasks = []governance.Task{}
		st.AuditLogs = []governance.AuditLog{}
		st.Users = governance.SeedRoster()
		st.Branding = governance.DefaultBranding()
		appendAudit(st, s.idGenerator(), s.now(), actor, governance.ActionDatabaseReset, "System returned to factory state.")
		return nil
	})
	return
}

func (s *SystemService) authorize(st governance.State, principal Principal) error {
	actor, err := actorFor(st, principal)
	if err != nil {
		return err
	}
	if !governance.CanPerform(governance.ActManageSystem, actor, nil) {
		return ErrUnauthorized
	}
	return nil
}
