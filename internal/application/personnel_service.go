package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// PersonnelService exposes the personnel roster and the Chairman's edits to it.
type PersonnelService struct {
	store       *Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPersonnelService wires dependencies for the personnel service.
func NewPersonnelService(store *Store, idGenerator func() string, now func() time.Time) *PersonnelService {
	return NewPersonnelServiceWithLogger(store, idGenerator, now, nil)
}

// NewPersonnelServiceWithLogger wires dependencies for the personnel service with a specified logger.
func NewPersonnelServiceWithLogger(store *Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PersonnelService {
	if now == nil {
		now = time.Now
	}
	return &PersonnelService{
		store:       store,
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PersonnelService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PersonnelService", operation, attrs...)
}

// Directory returns roster entries whose name contains the query, ignoring
// case, optionally narrowed to one department. Results are sorted by name.
func (s *PersonnelService) Directory(ctx context.Context, principal Principal, params DirectoryParams) ([]governance.User, error) {
	if s == nil {
		return nil, fmt.Errorf("PersonnelService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	query := strings.ToLower(strings.TrimSpace(params.Query))
	state := s.store.Snapshot()
	out := make([]governance.User, 0, len(state.Users))
	for _, u := range state.Users {
		if params.Department != "" && u.Department != params.Department {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Name), query) {
			continue
		}
		out = append(out, u)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Get returns one roster entry.
func (s *PersonnelService) Get(ctx context.Context, principal Principal, userID string) (governance.User, error) {
	if s == nil {
		return governance.User{}, fmt.Errorf("PersonnelService is nil")
	}
	if principal.UserID == "" {
		return governance.User{}, ErrUnauthorized
	}
	u, ok := s.store.Snapshot().FindUser(userID)
	if !ok {
		return governance.User{}, ErrNotFound
	}
	return u, nil
}

// Upsert replaces a roster entry in place or prepends a new one. Chairman only.
func (s *PersonnelService) Upsert(ctx context.Context, params UpsertUserParams) (user governance.User, err error) {
	if s == nil {
		err = fmt.Errorf("PersonnelService is nil")
		return
	}

	normalized := normalizeUser(params.User)
	logger := s.loggerWith(ctx, "Upsert", "user_id", params.Principal.UserID, "target_id", normalized.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update personnel record", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "personnel record updated")
	}()

	if vErr := validateUser(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	keys := []governance.Key{governance.KeyUsers, governance.KeyAuditLogs}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		if !governance.CanPerform(governance.ActManageSystem, actor, nil) {
			return ErrUnauthorized
		}

		replaced := false
		for i := range st.Users {
			if st.Users[i].ID == normalized.ID {
				st.Users[i] = normalized
				replaced = true
				break
			}
		}
		if !replaced {
			st.Users = append([]governance.User{normalized}, st.Users...)
		}
		appendAudit(st, s.idGenerator(), s.now(), actor, governance.ActionPersonnelUpdate,
			"Master Admin updated employee: "+normalized.Name)
		user = normalized
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		user = governance.User{}
	}
	return
}

// Designations returns the configured designation labels.
func (s *PersonnelService) Designations(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("PersonnelService is nil")
	}
	designations := s.store.Snapshot().Designations
	if designations == nil {
		designations = []string{}
	}
	return designations, nil
}

func normalizeUser(u governance.User) governance.User {
	u.ID = strings.TrimSpace(u.ID)
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Team == "" {
		u.Team = governance.TeamNone
	}
	if u.Region == "" {
		u.Region = governance.RegionNone
	}
	return u
}

func validateUser(u governance.User) *ValidationError {
	vErr := &ValidationError{}
	vErr.required("id", u.ID)
	vErr.required("name", u.Name)
	vErr.required("email", u.Email)
	vErr.required("role", string(u.Role))
	vErr.required("department", string(u.Department))
	return vErr
}
