package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/scheduler"
	"github.com/example/directus-governance/internal/testfixtures"
)

func budgetReview() application.MeetingInput {
	return application.MeetingInput{
		Title:      "Budget",
		StartTime:  "2025-05-12T10:30",
		EndTime:    "2025-05-12T11:30",
		Location:   "executive suite - floor 12",
		Department: governance.DepartmentFinance,
		Attendees:  []string{testfixtures.FinanceHOD, testfixtures.FinanceJ1, testfixtures.MDID, testfixtures.FinanceJ1},
	}
}

func TestMeetingService_Schedule(t *testing.T) {
	t.Parallel()

	t.Run("requires the core fields", func(t *testing.T) {
		t.Parallel()
		services := testfixtures.NewServiceFactory().NewServices()

		_, err := services.Meetings.Schedule(context.Background(), application.ScheduleMeetingParams{
			Principal: testfixtures.Principal(testfixtures.FinanceHOD),
			Input:     application.MeetingInput{StartTime: "2025-05-12T11:00", EndTime: "2025-05-12T10:00"},
		})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"title", "department", "attendees", "endTime"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
		if got := len(services.Store.Snapshot().Meetings); got != 1 {
			t.Fatalf("rejected schedule changed state: %d meetings", got)
		}
	})

	t.Run("requires a principal", func(t *testing.T) {
		t.Parallel()
		services := testfixtures.NewServiceFactory().NewServices()

		_, err := services.Meetings.Schedule(context.Background(), application.ScheduleMeetingParams{Input: budgetReview()})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("stores the meeting and reports overlaps", func(t *testing.T) {
		t.Parallel()
		services := testfixtures.NewServiceFactory().NewServices()

		result, err := services.Meetings.Schedule(context.Background(), application.ScheduleMeetingParams{
			Principal: testfixtures.Principal(testfixtures.FinanceHOD),
			Input:     budgetReview(),
		})
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		m := result.Meeting
		if m.ID != "id-1" || m.OrganizerID != testfixtures.FinanceHOD || m.LeaderID != testfixtures.FinanceHOD {
			t.Fatalf("unexpected meeting identity %+v", m)
		}
		if len(m.Attendees) != 3 || m.IsFinalized || len(m.FinalizedBy) != 0 {
			t.Fatalf("unexpected attendance %+v", m)
		}
		if m.Type != governance.MeetingStandard || m.Recurrence != governance.RecurrenceNone || m.Minutes.Kind != governance.MinutesFreeform {
			t.Fatalf("defaults not applied: %+v", m)
		}

		if len(result.Warnings) != 2 {
			t.Fatalf("expected attendee and location warnings, got %+v", result.Warnings)
		}
		if w := result.Warnings[0]; w.Type != scheduler.ConflictTypeAttendee || w.Attendee != testfixtures.MDID || w.WithMeetingID != testfixtures.SeedMeetID {
			t.Fatalf("unexpected attendee warning %+v", w)
		}
		if result.Warnings[1].Type != scheduler.ConflictTypeLocation {
			t.Fatalf("unexpected location warning %+v", result.Warnings[1])
		}

		state := services.Store.Snapshot()
		if len(state.Meetings) != 2 || state.Meetings[1].ID != "id-1" {
			t.Fatalf("meeting not appended: %+v", state.Meetings)
		}
		if len(state.AuditLogs) != 1 {
			t.Fatalf("expected one audit entry, got %d", len(state.AuditLogs))
		}
		entry := state.AuditLogs[0]
		if entry.Action != governance.ActionMeetingScheduled || entry.Details != `Scheduled: "Budget"` || entry.Department != governance.DepartmentFinance {
			t.Fatalf("unexpected audit entry %+v", entry)
		}

		recipients := map[string]bool{}
		for _, n := range state.Notifications {
			recipients[n.RecipientID] = true
		}
		if len(state.Notifications) != 2 || !recipients[testfixtures.FinanceJ1] || !recipients[testfixtures.MDID] {
			t.Fatalf("unexpected notifications %+v", state.Notifications)
		}

		conflicts, err := services.Meetings.Conflicts(context.Background(), testfixtures.Principal(testfixtures.FinanceHOD), "id-1")
		if err != nil {
			t.Fatalf("Conflicts: %v", err)
		}
		if len(conflicts) != 2 {
			t.Fatalf("expected stored meeting to report the same overlaps, got %+v", conflicts)
		}
	})
}

func TestMeetingService_SignAndLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	services := testfixtures.NewServiceFactory().NewServices()
	meetings := services.Meetings

	if _, err := meetings.Sign(ctx, testfixtures.Principal(testfixtures.FinanceJ1), testfixtures.SeedMeetID); !errors.Is(err, governance.ErrNotAttendee) {
		t.Fatalf("expected ErrNotAttendee, got %v", err)
	}
	if _, err := meetings.Sign(ctx, testfixtures.Principal(testfixtures.CEOID), testfixtures.SeedMeetID); !errors.Is(err, governance.ErrAlreadySigned) {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}

	// u1 has signed, so the meeting is locked for u1 even though it is not finalized.
	_, err := meetings.RecordMinutes(ctx, application.RecordMinutesParams{
		Principal: testfixtures.Principal(testfixtures.CEOID),
		MeetingID: testfixtures.SeedMeetID,
		Minutes:   governance.FreeformMinutes("late note"),
	})
	if !errors.Is(err, governance.ErrMeetingLocked) {
		t.Fatalf("expected ErrMeetingLocked, got %v", err)
	}

	updated, err := meetings.RecordMinutes(ctx, application.RecordMinutesParams{
		Principal: testfixtures.Principal(testfixtures.ChairmanID),
		MeetingID: testfixtures.SeedMeetID,
		Minutes:   governance.RowMinutes([]governance.MinuteRow{{ID: "r1", Resolution: "Expand", OwnerID: testfixtures.MDID}}),
	})
	if err != nil {
		t.Fatalf("RecordMinutes: %v", err)
	}
	if updated.Minutes.Kind != governance.MinutesRows || len(updated.FinalizedBy) != 2 {
		t.Fatalf("unexpected minutes update %+v", updated)
	}

	signed, err := meetings.Sign(ctx, testfixtures.Principal(testfixtures.ChairmanID), testfixtures.SeedMeetID)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !signed.IsFinalized || len(signed.FinalizedBy) != 3 {
		t.Fatalf("expected finalized meeting, got %+v", signed)
	}

	state := services.Store.Snapshot()
	if len(state.Notifications) != 1 || state.Notifications[0].RecipientID != testfixtures.MDID {
		t.Fatalf("expected organizer notification, got %+v", state.Notifications)
	}

	if _, err := meetings.Sign(ctx, testfixtures.Principal(testfixtures.ChairmanID), testfixtures.SeedMeetID); !errors.Is(err, governance.ErrMeetingFinalized) {
		t.Fatalf("expected ErrMeetingFinalized, got %v", err)
	}
	_, err = meetings.Update(ctx, application.UpdateMeetingParams{
		Principal: testfixtures.Principal(testfixtures.ChairmanID),
		MeetingID: testfixtures.SeedMeetID,
		Input:     budgetReview(),
	})
	if !errors.Is(err, governance.ErrMeetingLocked) {
		t.Fatalf("expected finalized meeting to reject edits, got %v", err)
	}
}

func TestMeetingService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	services := testfixtures.NewServiceFactory().NewServices()

	t.Run("outsiders may not edit", func(t *testing.T) {
		_, err := services.Meetings.Update(ctx, application.UpdateMeetingParams{
			Principal: testfixtures.Principal(testfixtures.SalesJ1),
			MeetingID: testfixtures.SeedMeetID,
			Input:     budgetReview(),
		})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown meeting", func(t *testing.T) {
		_, err := services.Meetings.Update(ctx, application.UpdateMeetingParams{
			Principal: testfixtures.Principal(testfixtures.ChairmanID),
			MeetingID: "missing",
			Input:     budgetReview(),
		})
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("edit keeps signatures and organizer", func(t *testing.T) {
		input := budgetReview()
		input.Title = "Q4 Review (revised)"
		input.Attendees = []string{testfixtures.MDID, testfixtures.CEOID, testfixtures.ChairmanID}

		result, err := services.Meetings.Update(ctx, application.UpdateMeetingParams{
			Principal: testfixtures.Principal(testfixtures.ChairmanID),
			MeetingID: testfixtures.SeedMeetID,
			Input:     input,
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		m := result.Meeting
		if m.Title != "Q4 Review (revised)" || m.OrganizerID != testfixtures.MDID || len(m.FinalizedBy) != 2 {
			t.Fatalf("unexpected edit result %+v", m)
		}
		if m.Minutes.Text != "Session commenced at 10:00 AM." {
			t.Fatalf("expected minutes to be kept when not supplied, got %+v", m.Minutes)
		}
		state := services.Store.Snapshot()
		if len(state.AuditLogs) != 0 {
			t.Fatalf("edits are not audited, got %+v", state.AuditLogs)
		}
	})

	t.Run("signed attendees cannot be removed", func(t *testing.T) {
		input := budgetReview()
		input.Attendees = []string{testfixtures.CEOID, testfixtures.ChairmanID}

		_, err := services.Meetings.Update(ctx, application.UpdateMeetingParams{
			Principal: testfixtures.Principal(testfixtures.ChairmanID),
			MeetingID: testfixtures.SeedMeetID,
			Input:     input,
		})
		if !errors.Is(err, governance.ErrMeetingLocked) {
			t.Fatalf("expected ErrMeetingLocked, got %v", err)
		}

		m, err := services.Meetings.Sign(ctx, testfixtures.Principal(testfixtures.ChairmanID), testfixtures.SeedMeetID)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if !m.IsFinalized || len(m.Attendees) != 3 {
			t.Fatalf("expected stored attendees to finalize, got %+v", m)
		}
	})
}

func TestMeetingService_Views(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := testfixtures.SeedState()
	state.Meetings = append(state.Meetings,
		testfixtures.NewMeeting("fin-1", 48*time.Hour, []string{testfixtures.FinanceHOD, testfixtures.FinanceJ1}),
		testfixtures.NewMeeting("fin-0", 24*time.Hour, []string{testfixtures.FinanceHOD}),
		testfixtures.NewMeeting("old", -40*24*time.Hour, []string{testfixtures.FinanceHOD}),
	)
	services := testfixtures.NewServiceFactory().NewServices(state)

	ids := func(ms []governance.Meeting) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	personal, err := services.Meetings.List(ctx, application.ListMeetingsParams{Principal: testfixtures.Principal(testfixtures.FinanceHOD)})
	if err != nil {
		t.Fatalf("personal: %v", err)
	}
	if got := ids(personal); len(got) != 3 || got[0] != "old" || got[1] != "fin-0" || got[2] != "fin-1" {
		t.Fatalf("unexpected personal view %v", got)
	}

	if _, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal: testfixtures.Principal(testfixtures.FinanceHOD),
		View:      application.ViewExecSync,
	}); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected exec sync to be restricted, got %v", err)
	}

	execSync, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal: testfixtures.Principal(testfixtures.CFOID),
		View:      application.ViewExecSync,
	})
	if err != nil || len(execSync) != 1 || execSync[0].ID != testfixtures.SeedMeetID {
		t.Fatalf("unexpected exec sync view %v %v", ids(execSync), err)
	}

	// A department head always sees their own department.
	dept, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal:  testfixtures.Principal(testfixtures.FinanceHOD),
		View:       application.ViewDepartment,
		Department: governance.DepartmentExecutive,
	})
	if err != nil || len(dept) != 3 {
		t.Fatalf("unexpected department view %v %v", ids(dept), err)
	}

	all, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal: testfixtures.Principal(testfixtures.CEOID),
		View:      application.ViewDepartment,
	})
	if err != nil || len(all) != 4 {
		t.Fatalf("expected executives to see every department, got %v %v", ids(all), err)
	}

	archive, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal: testfixtures.Principal(testfixtures.FinanceHOD),
		View:      application.ViewArchive,
	})
	if got := ids(archive); err != nil || len(got) != 2 || got[0] != "fin-1" || got[1] != "fin-0" {
		t.Fatalf("unexpected archive %v %v", got, err)
	}

	if _, err := services.Meetings.List(ctx, application.ListMeetingsParams{
		Principal: testfixtures.Principal(testfixtures.FinanceHOD),
		View:      "calendar",
	}); err == nil {
		t.Fatalf("expected unknown view to be rejected")
	}

	next, err := services.Meetings.Upcoming(ctx, testfixtures.Principal(testfixtures.FinanceHOD))
	if err != nil || next == nil || next.ID != "fin-0" {
		t.Fatalf("unexpected upcoming meeting %+v %v", next, err)
	}
}

func TestMeetingService_Occurrences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	services := testfixtures.NewServiceFactory().NewServices()
	from := testfixtures.ReferenceTime()

	got, err := services.Meetings.Occurrences(ctx, application.OccurrencesParams{
		Principal: testfixtures.Principal(testfixtures.CEOID),
		From:      from,
		To:        from.AddDate(0, 3, 0),
	})
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected three monthly occurrences, got %+v", got)
	}
	for i, occ := range got {
		if occ.MeetingID != testfixtures.SeedMeetID || occ.Start.Day() != 12 || occ.Start.Month() != time.May+time.Month(i) {
			t.Fatalf("occurrence %d = %+v", i, occ)
		}
	}

	_, err = services.Meetings.Occurrences(ctx, application.OccurrencesParams{
		Principal: testfixtures.Principal(testfixtures.CEOID),
		From:      from,
	})
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["to"] == "" {
		t.Fatalf("expected a missing upper bound to be rejected, got %v", err)
	}
}

func TestMeetingService_PersistenceFailureKeepsCommit(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	store := factory.NewStore()
	diskFull := errors.New("disk full")
	store.Subscribe(application.SubscriberFunc(func(context.Context, []governance.Key, governance.State) error {
		return diskFull
	}))
	services := factory.ServicesFor(store)

	result, err := services.Meetings.Schedule(context.Background(), application.ScheduleMeetingParams{
		Principal: testfixtures.Principal(testfixtures.FinanceHOD),
		Input:     budgetReview(),
	})
	if !errors.Is(err, application.ErrPersistence) || !errors.Is(err, diskFull) {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	if result.Meeting.ID == "" {
		t.Fatalf("expected the committed meeting to be returned")
	}
	if got := len(store.Snapshot().Meetings); got != 2 {
		t.Fatalf("expected the meeting to stay in memory, got %d meetings", got)
	}
}
