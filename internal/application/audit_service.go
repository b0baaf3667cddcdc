package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/directus-governance/internal/governance"
)

// appendAudit prepends an entry attributed to actor. Nothing is recorded without an actor.
func appendAudit(s *governance.State, id string, now time.Time, actor governance.Actor, action governance.ActionType, details string) {
	if actor.ID == "" {
		return
	}
	entry := governance.AuditLog{
		ID:         id,
		Timestamp:  governance.FormatTimestamp(now),
		UserID:     actor.ID,
		Action:     action,
		Details:    details,
		Department: actor.Department,
	}
	s.AuditLogs = append([]governance.AuditLog{entry}, s.AuditLogs...)
}

// actorFor resolves the principal against the roster so role changes take
// effect without a new session. Principals missing from the roster keep the
// role they were issued with.
func actorFor(s governance.State, p Principal) (governance.Actor, error) {
	if p.UserID == "" {
		return governance.Actor{}, ErrUnauthorized
	}
	if u, ok := s.FindUser(p.UserID); ok {
		return governance.ActorFor(u), nil
	}
	return p.Actor(), nil
}

func defaultIDGenerator(gen func() string) func() string {
	if gen != nil {
		return gen
	}
	return uuid.NewString
}

// AuditService exposes the audit trail.
type AuditService struct {
	store  *Store
	logger *slog.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(store *Store) *AuditService {
	return NewAuditServiceWithLogger(store, nil)
}

// NewAuditServiceWithLogger constructs an AuditService with a specified logger.
func NewAuditServiceWithLogger(store *Store, logger *slog.Logger) *AuditService {
	return &AuditService{store: store, logger: defaultLogger(logger)}
}

func (s *AuditService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuditService", operation, attrs...)
}

// List returns audit entries newest first. Only the Chairman and CEO may read them.
func (s *AuditService) List(ctx context.Context, principal Principal, filter AuditFilter) (logs []governance.AuditLog, err error) {
	if s == nil {
		err = fmt.Errorf("AuditService is nil")
		return
	}

	logger := s.loggerWith(ctx, "List", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list audit logs", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	state := s.store.Snapshot()
	actor, err := actorFor(state, principal)
	if err != nil {
		return
	}
	if !governance.CanPerform(governance.ActViewAudit, actor, nil) {
		err = ErrUnauthorized
		return
	}

	logs = make([]governance.AuditLog, 0, len(state.AuditLogs))
	for _, entry := range state.AuditLogs {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		logs = append(logs, entry)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp > logs[j].Timestamp
	})
	return
}
