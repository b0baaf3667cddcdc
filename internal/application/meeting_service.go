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
	"github.com/example/directus-governance/internal/recurrence"
	"github.com/example/directus-governance/internal/scheduler"
)

// MeetingService orchestrates validation and lifecycle rules for meetings.
type MeetingService struct {
	store       *Store
	engine      *recurrence.Engine
	warnings    *warningCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(store *Store, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(store, idGenerator, now, nil)
}

// NewMeetingServiceWithLogger wires dependencies for meeting operations with a specified logger.
func NewMeetingServiceWithLogger(store *Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		store:       store,
		engine:      recurrence.NewEngine(time.UTC),
		warnings:    newWarningCache(time.Minute, 256, now),
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// Schedule validates and stores a new meeting, records the audit entry and
// invites every attendee other than the organizer.
func (s *MeetingService) Schedule(ctx context.Context, params ScheduleMeetingParams) (result MeetingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Schedule", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to schedule meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", result.Meeting.ID,
			"attendee_count", len(result.Meeting.Attendees),
			"warning_count", len(result.Warnings),
		).InfoContext(ctx, "meeting scheduled")
	}()

	input := normalizeMeetingInput(params.Input)
	if vErr := validateMeetingInput(input); vErr != nil {
		err = vErr
		return
	}

	keys := []governance.Key{governance.KeyMeetings, governance.KeyAuditLogs, governance.KeyNotifications}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		if !governance.CanPerform(governance.ActScheduleMeeting, actor, nil) {
			return ErrUnauthorized
		}

		now := s.now()
		meeting := buildMeeting(input, s.idGenerator(), actor.ID)
		meeting.FinalizedBy = []string{}
		meeting.RejectedBy = map[string]string{}
		meeting.IsFinalized = governance.IsFinalized(meeting)

		result.Warnings = detectConflicts(st.Meetings, meeting)
		st.Meetings = append(st.Meetings, meeting)

		appendAudit(st, s.idGenerator(), now, actor, governance.ActionMeetingScheduled, fmt.Sprintf("Scheduled: %q", meeting.Title))
		for _, attendee := range meeting.Attendees {
			if attendee == actor.ID {
				continue
			}
			notify(st, s.idGenerator(), now, attendee, governance.NotificationMeeting,
				"Meeting scheduled", fmt.Sprintf("You were invited to %q.", meeting.Title))
		}

		result.Meeting = governance.CloneMeeting(meeting)
		return nil
	})
	s.settle(&result.Meeting, err)
	if result.Meeting.ID == "" {
		result.Warnings = nil
	}
	return
}

// Update replaces an existing meeting with the edited fields. Signatures and
// the organizer are always carried over from the stored record.
func (s *MeetingService) Update(ctx context.Context, params UpdateMeetingParams) (result MeetingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("warning_count", len(result.Warnings)).InfoContext(ctx, "meeting updated")
	}()

	input := normalizeMeetingInput(params.Input)
	if vErr := validateMeetingInput(input); vErr != nil {
		err = vErr
		return
	}

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyMeetings}, func(st *governance.State) error {
		existing, idx, eErr := s.editableMeeting(*st, params.Principal, params.MeetingID)
		if eErr != nil {
			return eErr
		}

		edited := buildMeeting(input, existing.ID, existing.OrganizerID)
		if input.Minutes.Kind == "" {
			edited.Minutes = existing.Minutes
		}
		merged, mErr := governance.ApplyEdit(existing, edited, params.Principal.UserID)
		if mErr != nil {
			return mErr
		}

		st.Meetings[idx] = merged
		result.Meeting = governance.CloneMeeting(merged)
		result.Warnings = detectConflicts(st.Meetings, merged)
		return nil
	})
	s.settle(&result.Meeting, err)
	if result.Meeting.ID == "" {
		result.Warnings = nil
	}
	return
}

// RecordMinutes replaces the minutes of a meeting under the same lock rules as Update.
func (s *MeetingService) RecordMinutes(ctx context.Context, params RecordMinutesParams) (meeting governance.Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RecordMinutes", "user_id", params.Principal.UserID, "meeting_id", params.MeetingID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record minutes", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("minutes_kind", meeting.Minutes.Kind).InfoContext(ctx, "minutes recorded")
	}()

	minutes := params.Minutes
	if minutes.Kind == "" {
		minutes.Kind = governance.MinutesFreeform
	}

	err = s.store.Mutate(ctx, []governance.Key{governance.KeyMeetings}, func(st *governance.State) error {
		existing, idx, eErr := s.editableMeeting(*st, params.Principal, params.MeetingID)
		if eErr != nil {
			return eErr
		}
		edited := governance.CloneMeeting(existing)
		edited.Minutes = minutes
		merged, mErr := governance.ApplyEdit(existing, edited, params.Principal.UserID)
		if mErr != nil {
			return mErr
		}
		st.Meetings[idx] = merged
		meeting = governance.CloneMeeting(merged)
		return nil
	})
	s.settle(&meeting, err)
	return
}

// Sign records the caller's signature. The organizer is notified once the
// last attendee signs and the meeting becomes finalized.
func (s *MeetingService) Sign(ctx context.Context, principal Principal, meetingID string) (meeting governance.Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Sign", "user_id", principal.UserID, "meeting_id", meetingID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to sign meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("finalized", meeting.IsFinalized).InfoContext(ctx, "meeting signed")
	}()

	keys := []governance.Key{governance.KeyMeetings, governance.KeyNotifications}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		if principal.UserID == "" {
			return ErrUnauthorized
		}
		idx := st.MeetingIndex(meetingID)
		if idx < 0 {
			return ErrNotFound
		}
		signed, sErr := governance.Sign(st.Meetings[idx], principal.UserID)
		if sErr != nil {
			return sErr
		}
		st.Meetings[idx] = signed
		if signed.IsFinalized {
			notify(st, s.idGenerator(), s.now(), signed.OrganizerID, governance.NotificationMeeting,
				"Minutes finalized", fmt.Sprintf("Every attendee has signed %q.", signed.Title))
		}
		meeting = governance.CloneMeeting(signed)
		return nil
	})
	s.settle(&meeting, err)
	return
}

// Get returns one meeting.
func (s *MeetingService) Get(ctx context.Context, principal Principal, meetingID string) (governance.Meeting, error) {
	if s == nil {
		return governance.Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if principal.UserID == "" {
		return governance.Meeting{}, ErrUnauthorized
	}
	state := s.store.Snapshot()
	idx := state.MeetingIndex(meetingID)
	if idx < 0 {
		return governance.Meeting{}, ErrNotFound
	}
	return state.Meetings[idx], nil
}

// List returns one of the meeting views.
func (s *MeetingService) List(ctx context.Context, params ListMeetingsParams) (meetings []governance.Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	view := params.View
	if view == "" {
		view = ViewPersonal
	}

	logger := s.loggerWith(ctx, "List", "user_id", params.Principal.UserID, "view", view)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	state := s.store.Snapshot()
	actor, err := actorFor(state, params.Principal)
	if err != nil {
		return
	}

	keep := func(governance.Meeting) bool { return true }
	descending := false
	switch view {
	case ViewPersonal:
		keep = func(m governance.Meeting) bool { return governance.IsAttendee(m, actor.ID) }
	case ViewExecSync:
		if !governance.CanPerform(governance.ActViewExecSync, actor, nil) {
			err = ErrUnauthorized
			return
		}
		keep = func(m governance.Meeting) bool { return m.Department == governance.DepartmentExecutive }
	case ViewDepartment:
		dept := actor.Department
		if actor.Role.IsExecutive() {
			dept = params.Department
		}
		if dept != "" {
			keep = func(m governance.Meeting) bool { return m.Department == dept }
		}
	case ViewArchive:
		now := s.now().UTC()
		keep = func(m governance.Meeting) bool {
			start, pErr := governance.ParseTimestamp(m.StartTime)
			return pErr == nil && governance.IsAttendee(m, actor.ID) &&
				start.Year() == now.Year() && start.Month() == now.Month()
		}
		descending = true
	default:
		err = &ValidationError{FieldErrors: map[string]string{"view": "unknown view"}}
		return
	}

	meetings = make([]governance.Meeting, 0)
	for _, m := range state.Meetings {
		if keep(m) {
			meetings = append(meetings, m)
		}
	}
	sortMeetingsByStart(meetings, descending)
	return
}

// Upcoming returns the next meeting the caller attends that has not started, or nil.
func (s *MeetingService) Upcoming(ctx context.Context, principal Principal) (*governance.Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return nextMeeting(s.store.Snapshot().Meetings, principal.UserID, s.now()), nil
}

// Occurrences expands the recurring meetings the caller attends inside [From, To).
func (s *MeetingService) Occurrences(ctx context.Context, params OccurrencesParams) (occurrences []MeetingOccurrence, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Occurrences", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to expand occurrences", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	vErr := &ValidationError{}
	if params.To.IsZero() {
		vErr.add("to", "required")
	} else if !params.From.IsZero() && !params.To.After(params.From) {
		vErr.add("to", "must be after from")
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	window := recurrence.Window{End: &params.To}
	if !params.From.IsZero() {
		window.Start = &params.From
	}

	occurrences = make([]MeetingOccurrence, 0)
	for _, m := range s.store.Snapshot().Meetings {
		if !governance.IsAttendee(m, params.Principal.UserID) {
			continue
		}
		expanded, xErr := s.engine.ExpandMeeting(m, window)
		if xErr != nil {
			logger.WarnContext(ctx, "skipping meeting with unusable schedule", "meeting_id", m.ID, "error", xErr)
			continue
		}
		for _, occ := range expanded {
			occurrences = append(occurrences, MeetingOccurrence{MeetingID: m.ID, Title: m.Title, Start: occ.Start, End: occ.End})
		}
	}
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return
}

// Conflicts returns the overlap warnings for a stored meeting.
func (s *MeetingService) Conflicts(ctx context.Context, principal Principal, meetingID string) ([]scheduler.Conflict, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if cached, ok := s.warnings.Get(meetingID); ok {
		return cached, nil
	}

	state := s.store.Snapshot()
	idx := state.MeetingIndex(meetingID)
	if idx < 0 {
		return nil, ErrNotFound
	}
	warnings := detectConflicts(state.Meetings, state.Meetings[idx])
	s.warnings.Store(meetingID, warnings)
	if warnings == nil {
		warnings = []scheduler.Conflict{}
	}
	return warnings, nil
}

// editableMeeting finds the meeting and checks the caller may still change it.
func (s *MeetingService) editableMeeting(st governance.State, principal Principal, meetingID string) (governance.Meeting, int, error) {
	actor, err := actorFor(st, principal)
	if err != nil {
		return governance.Meeting{}, -1, err
	}
	idx := st.MeetingIndex(meetingID)
	if idx < 0 {
		return governance.Meeting{}, -1, ErrNotFound
	}
	existing := st.Meetings[idx]
	if governance.CanPerform(governance.ActEditMeeting, actor, existing) {
		return existing, idx, nil
	}
	if governance.IsParticipant(existing, actor.ID) {
		return governance.Meeting{}, -1, governance.ErrMeetingLocked
	}
	return governance.Meeting{}, -1, ErrUnauthorized
}

// settle drops the cached warnings after a committed change and clears the
// result when nothing was committed.
func (s *MeetingService) settle(meeting *governance.Meeting, err error) {
	if err != nil && !errors.Is(err, ErrPersistence) {
		*meeting = governance.Meeting{}
		return
	}
	s.warnings.Invalidate()
}

func normalizeMeetingInput(input MeetingInput) MeetingInput {
	input.Title = strings.TrimSpace(input.Title)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)
	input.Location = strings.TrimSpace(input.Location)
	input.LeaderID = strings.TrimSpace(input.LeaderID)
	input.Attendees = governance.UniqueAttendees(input.Attendees)
	return input
}

func validateMeetingInput(input MeetingInput) *ValidationError {
	vErr := &ValidationError{}
	vErr.required("title", input.Title)
	vErr.required("department", string(input.Department))
	if len(input.Attendees) == 0 {
		vErr.add("attendees", "at least one attendee is required")
	}

	start, startErr := governance.ParseTimestamp(input.StartTime)
	switch {
	case input.StartTime == "":
		vErr.add("startTime", "required")
	case startErr != nil:
		vErr.add("startTime", "invalid timestamp")
	}
	end, endErr := governance.ParseTimestamp(input.EndTime)
	switch {
	case input.EndTime == "":
		vErr.add("endTime", "required")
	case endErr != nil:
		vErr.add("endTime", "invalid timestamp")
	case startErr == nil && !end.After(start):
		vErr.add("endTime", "must be after startTime")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// buildMeeting fills the defaults a stored meeting always carries.
func buildMeeting(input MeetingInput, id, organizerID string) governance.Meeting {
	m := governance.Meeting{
		ID:                id,
		Title:             input.Title,
		Description:       input.Description,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Location:          input.Location,
		Department:        input.Department,
		Team:              input.Team,
		Region:            input.Region,
		OrganizerID:       organizerID,
		LeaderID:          input.LeaderID,
		Attendees:         input.Attendees,
		ExternalAttendees: input.ExternalAttendees,
		Attachments:       input.Attachments,
		Minutes:           input.Minutes,
		IsCustomRoom:      input.IsCustomRoom,
		Type:              input.Type,
		Recurrence:        input.Recurrence,
	}
	if m.LeaderID == "" {
		m.LeaderID = organizerID
	}
	if m.Team == "" {
		m.Team = governance.TeamNone
	}
	if m.Region == "" {
		m.Region = governance.RegionNone
	}
	if m.Type == "" {
		m.Type = governance.MeetingStandard
	}
	if m.Recurrence == "" {
		m.Recurrence = governance.RecurrenceNone
	}
	if m.Minutes.Kind == "" {
		m.Minutes = governance.FreeformMinutes(m.Minutes.Text)
	}
	if m.ExternalAttendees == nil {
		m.ExternalAttendees = []governance.ExternalAttendee{}
	}
	if m.Attachments == nil {
		m.Attachments = []governance.Attachment{}
	}
	return governance.CloneMeeting(m)
}

// detectConflicts compares candidate with every stored meeting that has a usable interval.
func detectConflicts(meetings []governance.Meeting, candidate governance.Meeting) []scheduler.Conflict {
	slot, err := scheduler.SlotFor(candidate)
	if err != nil {
		return nil
	}
	existing := make([]scheduler.Slot, 0, len(meetings))
	for _, m := range meetings {
		other, sErr := scheduler.SlotFor(m)
		if sErr != nil {
			continue
		}
		existing = append(existing, other)
	}
	return scheduler.DetectConflicts(existing, slot)
}

// nextMeeting returns the earliest meeting userID attends that starts after now.
func nextMeeting(meetings []governance.Meeting, userID string, now time.Time) *governance.Meeting {
	var (
		next      *governance.Meeting
		nextStart time.Time
	)
	for _, m := range meetings {
		if !governance.IsAttendee(m, userID) {
			continue
		}
		start, err := governance.ParseTimestamp(m.StartTime)
		if err != nil || !start.After(now) {
			continue
		}
		if next == nil || start.Before(nextStart) {
			found := governance.CloneMeeting(m)
			next, nextStart = &found, start
		}
	}
	return next
}

func sortMeetingsByStart(meetings []governance.Meeting, descending bool) {
	starts := make(map[string]time.Time, len(meetings))
	for _, m := range meetings {
		if t, err := governance.ParseTimestamp(m.StartTime); err == nil {
			starts[m.ID] = t
		}
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		a, b := starts[meetings[i].ID], starts[meetings[j].ID]
		if descending {
			return a.After(b)
		}
		return a.Before(b)
	})
}
