package scheduler

import (
	"testing"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.May, 12, 10, 0, 0, 0, time.UTC)
	slot := func(id string, startOffset, minutes int, location string, attendees ...string) Slot {
		start := base.Add(time.Duration(startOffset) * time.Minute)
		return Slot{ID: id, Attendees: attendees, Location: location, Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
	}

	t.Run("attendee overlap produces conflict", func(t *testing.T) {
		t.Parallel()
		existing := []Slot{slot("m1", 0, 60, "Room A", "u1", "u2")}
		got := DetectConflicts(existing, slot("m2", 30, 60, "Room B", "u2", "u3"))
		if len(got) != 1 {
			t.Fatalf("expected 1 conflict, got %+v", got)
		}
		if got[0].Type != ConflictTypeAttendee || got[0].Attendee != "u2" || got[0].WithMeetingID != "m1" {
			t.Fatalf("unexpected conflict %+v", got[0])
		}
	})

	t.Run("location overlap ignores case and spacing", func(t *testing.T) {
		t.Parallel()
		existing := []Slot{slot("m1", 0, 60, " boardroom ", "u1")}
		got := DetectConflicts(existing, slot("m2", 15, 15, "Boardroom", "u9"))
		if len(got) != 1 || got[0].Type != ConflictTypeLocation || got[0].Location != "Boardroom" {
			t.Fatalf("unexpected conflicts %+v", got)
		}
	})

	t.Run("back to back meetings do not conflict", func(t *testing.T) {
		t.Parallel()
		existing := []Slot{slot("m1", 0, 60, "Room A", "u1")}
		if got := DetectConflicts(existing, slot("m2", 60, 30, "Room A", "u1")); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("blank locations are not compared", func(t *testing.T) {
		t.Parallel()
		existing := []Slot{slot("m1", 0, 60, "", "u1")}
		if got := DetectConflicts(existing, slot("m2", 0, 60, "  ", "u2")); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("candidate is not compared with itself", func(t *testing.T) {
		t.Parallel()
		candidate := slot("m1", 0, 60, "Room A", "u1")
		if got := DetectConflicts([]Slot{candidate}, candidate); len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("both kinds are reported per meeting", func(t *testing.T) {
		t.Parallel()
		existing := []Slot{slot("m1", 0, 60, "Room A", "u3", "u1")}
		got := DetectConflicts(existing, slot("m2", 10, 20, "Room A", "u1", "u3"))
		if len(got) != 3 {
			t.Fatalf("expected 3 conflicts, got %+v", got)
		}
		if got[0].Attendee != "u1" || got[1].Attendee != "u3" || got[2].Type != ConflictTypeLocation {
			t.Fatalf("unexpected ordering %+v", got)
		}
	})
}

func TestSlotFor(t *testing.T) {
	t.Parallel()

	s, err := SlotFor(governance.Meeting{
		ID:        "m1",
		StartTime: "2025-05-12T10:00",
		EndTime:   "2025-05-12T11:00",
		Attendees: []string{"u1", "u1", "u2"},
		Location:  "HQ",
	})
	if err != nil {
		t.Fatalf("SlotFor: %v", err)
	}
	if len(s.Attendees) != 2 || s.End.Sub(s.Start) != time.Hour {
		t.Fatalf("unexpected slot %+v", s)
	}

	if _, err := SlotFor(governance.Meeting{ID: "bad", StartTime: "soon"}); err == nil {
		t.Fatalf("expected an error for an unparseable start")
	}
}
