package governance

import (
	"errors"
	"testing"
)

func meetingWith(attendees ...string) Meeting {
	return Meeting{
		ID:          "m-1",
		Title:       "Budget sync",
		OrganizerID: attendees[0],
		LeaderID:    attendees[0],
		Attendees:   attendees,
		Minutes:     FreeformMinutes(""),
	}
}

func TestSign(t *testing.T) {
	t.Parallel()

	t.Run("finalizes once every attendee signs", func(t *testing.T) {
		t.Parallel()
		m := meetingWith("u1", "u2")

		first, err := Sign(m, "u1")
		if err != nil {
			t.Fatalf("u1 sign: %v", err)
		}
		if first.IsFinalized {
			t.Fatalf("expected meeting to stay open after one signature")
		}
		if len(first.FinalizedBy) != 1 || first.FinalizedBy[0] != "u1" {
			t.Fatalf("unexpected finalization set %v", first.FinalizedBy)
		}

		second, err := Sign(first, "u2")
		if err != nil {
			t.Fatalf("u2 sign: %v", err)
		}
		if !second.IsFinalized || !IsFinalized(second) {
			t.Fatalf("expected meeting to be finalized")
		}
	})

	t.Run("does not modify the input", func(t *testing.T) {
		t.Parallel()
		m := meetingWith("u1", "u2")
		if _, err := Sign(m, "u1"); err != nil {
			t.Fatalf("sign: %v", err)
		}
		if len(m.FinalizedBy) != 0 {
			t.Fatalf("input meeting was mutated: %v", m.FinalizedBy)
		}
	})

	t.Run("rejects non attendees", func(t *testing.T) {
		t.Parallel()
		_, err := Sign(meetingWith("u1", "u2"), "u9")
		if !errors.Is(err, ErrNotAttendee) {
			t.Fatalf("expected ErrNotAttendee, got %v", err)
		}
	})

	t.Run("rejects a second signature", func(t *testing.T) {
		t.Parallel()
		m, _ := Sign(meetingWith("u1", "u2"), "u1")
		_, err := Sign(m, "u1")
		if !errors.Is(err, ErrAlreadySigned) {
			t.Fatalf("expected ErrAlreadySigned, got %v", err)
		}
	})

	t.Run("rejects signing a finalized meeting", func(t *testing.T) {
		t.Parallel()
		m := meetingWith("u1")
		m, _ = Sign(m, "u1")
		_, err := Sign(m, "u1")
		if !errors.Is(err, ErrMeetingFinalized) {
			t.Fatalf("expected ErrMeetingFinalized, got %v", err)
		}
	})
}

func TestIsFinalized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		attendees []string
		signed    []string
		want      bool
	}{
		{name: "no attendees", attendees: nil, signed: nil, want: false},
		{name: "partial", attendees: []string{"a", "b"}, signed: []string{"a"}, want: false},
		{name: "complete", attendees: []string{"a", "b"}, signed: []string{"b", "a"}, want: true},
		{name: "stranger signature", attendees: []string{"a", "b"}, signed: []string{"a", "x"}, want: false},
		{name: "duplicated attendee", attendees: []string{"a", "a"}, signed: []string{"a"}, want: true},
		{name: "duplicated attendee partial", attendees: []string{"a", "b", "a"}, signed: []string{"a"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := IsFinalized(Meeting{Attendees: tc.attendees, FinalizedBy: tc.signed})
			if got != tc.want {
				t.Fatalf("IsFinalized = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyEdit(t *testing.T) {
	t.Parallel()

	t.Run("locks a user after they sign", func(t *testing.T) {
		t.Parallel()
		m, _ := Sign(meetingWith("u1", "u2"), "u1")
		edited := CloneMeeting(m)
		edited.Minutes = FreeformMinutes("changed")

		got, err := ApplyEdit(m, edited, "u1")
		if !errors.Is(err, ErrMeetingLocked) {
			t.Fatalf("expected ErrMeetingLocked, got %v", err)
		}
		if got.Minutes.Text != "" {
			t.Fatalf("expected stored minutes to be unchanged, got %q", got.Minutes.Text)
		}
	})

	t.Run("locks everyone once finalized", func(t *testing.T) {
		t.Parallel()
		m, _ := Sign(meetingWith("u1", "u2"), "u1")
		m, _ = Sign(m, "u2")
		edited := CloneMeeting(m)
		edited.Attendees = append(edited.Attendees, "u3")

		if _, err := ApplyEdit(m, edited, "u1"); !errors.Is(err, ErrMeetingLocked) {
			t.Fatalf("expected ErrMeetingLocked, got %v", err)
		}
	})

	t.Run("refuses to drop a signed attendee", func(t *testing.T) {
		t.Parallel()
		m, _ := Sign(meetingWith("u1", "u2", "u3"), "u1")
		edited := CloneMeeting(m)
		edited.Attendees = []string{"u2", "u3"}

		got, err := ApplyEdit(m, edited, "u2")
		if !errors.Is(err, ErrMeetingLocked) {
			t.Fatalf("expected ErrMeetingLocked, got %v", err)
		}
		if len(got.Attendees) != 3 {
			t.Fatalf("stored attendees changed: %v", got.Attendees)
		}

		// Unsigned attendees may still be removed, and the rest can finalize.
		edited.Attendees = []string{"u1", "u2"}
		got, err = ApplyEdit(m, edited, "u2")
		if err != nil {
			t.Fatalf("ApplyEdit: %v", err)
		}
		got, err = Sign(got, "u2")
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if !got.IsFinalized || !IsFinalized(got) {
			t.Fatalf("expected meeting to finalize, got %+v", got)
		}
	})

	t.Run("duplicated attendee finalizes on a single signature", func(t *testing.T) {
		t.Parallel()
		got, err := Sign(meetingWith("u1", "u1"), "u1")
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if !got.IsFinalized {
			t.Fatalf("expected meeting to finalize, got %+v", got)
		}
	})

	t.Run("keeps signatures and organizer from the stored meeting", func(t *testing.T) {
		t.Parallel()
		m, _ := Sign(meetingWith("u1", "u2", "u3"), "u1")
		edited := CloneMeeting(m)
		edited.FinalizedBy = nil
		edited.OrganizerID = "u3"
		edited.Title = "Renamed"

		got, err := ApplyEdit(m, edited, "u2")
		if err != nil {
			t.Fatalf("ApplyEdit: %v", err)
		}
		if got.Title != "Renamed" {
			t.Fatalf("expected title to change, got %q", got.Title)
		}
		if len(got.FinalizedBy) != 1 || got.FinalizedBy[0] != "u1" {
			t.Fatalf("signature lost: %v", got.FinalizedBy)
		}
		if got.OrganizerID != "u1" {
			t.Fatalf("organizer changed to %q", got.OrganizerID)
		}
	})
}

func TestUniqueAttendees(t *testing.T) {
	t.Parallel()
	got := UniqueAttendees([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
