package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// CalendarService manages custom calendars grouping a set of people.
type CalendarService struct {
	store       *Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCalendarService wires dependencies for calendar operations.
func NewCalendarService(store *Store, idGenerator func() string, now func() time.Time) *CalendarService {
	return NewCalendarServiceWithLogger(store, idGenerator, now, nil)
}

// NewCalendarServiceWithLogger wires dependencies for calendar operations with a specified logger.
func NewCalendarServiceWithLogger(store *Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{
		store:       store,
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// Create stores a calendar owned by the caller.
func (s *CalendarService) Create(ctx context.Context, params CreateCalendarParams) (calendar governance.CustomCalendar, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("calendar_id", calendar.ID, "member_count", len(calendar.UserIDs)).InfoContext(ctx, "calendar created")
	}()

	name := strings.TrimSpace(params.Name)
	members := governance.UniqueAttendees(params.UserIDs)
	vErr := &ValidationError{}
	vErr.required("name", name)
	if len(members) == 0 {
		vErr.add("userIds", "at least one member is required")
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	keys := []governance.Key{governance.KeyCustomCalendars, governance.KeyAuditLogs}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		if !governance.CanPerform(governance.ActCreateCalendar, actor, nil) {
			return ErrUnauthorized
		}
		created := governance.CustomCalendar{
			ID:        "custom-" + s.idGenerator(),
			Name:      name,
			UserIDs:   members,
			CreatedBy: actor.ID,
		}
		st.CustomCalendars = append(st.CustomCalendars, created)
		appendAudit(st, s.idGenerator(), s.now(), actor, governance.ActionCustomCalendarCreated,
			fmt.Sprintf("Created strategic calendar: %q", name))
		calendar = governance.CloneCalendar(created)
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		calendar = governance.CustomCalendar{}
	}
	return
}

// List returns the calendars the caller created or belongs to.
func (s *CalendarService) List(ctx context.Context, principal Principal) ([]governance.CustomCalendar, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return governance.VisibleCalendars(s.store.Snapshot().CustomCalendars, principal.UserID), nil
}

// Meetings returns every meeting attended by at least one calendar member.
func (s *CalendarService) Meetings(ctx context.Context, principal Principal, calendarID string) ([]governance.Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	state := s.store.Snapshot()
	var (
		calendar governance.CustomCalendar
		found    bool
	)
	for _, c := range state.CustomCalendars {
		if c.ID == calendarID {
			calendar, found = c, true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}
	if !governance.CalendarVisibleTo(calendar, principal.UserID) {
		return nil, ErrUnauthorized
	}

	members := make(map[string]struct{}, len(calendar.UserIDs))
	for _, id := range calendar.UserIDs {
		members[id] = struct{}{}
	}
	out := make([]governance.Meeting, 0)
	for _, m := range state.Meetings {
		for _, attendee := range m.Attendees {
			if _, ok := members[attendee]; ok {
				out = append(out, m)
				break
			}
		}
	}
	sortMeetingsByStart(out, false)
	return out, nil
}
