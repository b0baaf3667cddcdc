package governance

import (
	"testing"
	"time"
)

func TestSeedRoster(t *testing.T) {
	t.Parallel()

	users := SeedRoster()
	// five executives plus four staff for each of the thirteen other departments
	if len(users) != 5+13*4 {
		t.Fatalf("roster size = %d", len(users))
	}

	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u.ID] {
			t.Fatalf("duplicate id %s", u.ID)
		}
		seen[u.ID] = true
	}

	chairman, ok := State{Users: users}.FindUser("u100")
	if !ok || chairman.Role != RoleChairman || chairman.Email != "chairman@directuspro.com" {
		t.Fatalf("unexpected chairman %+v", chairman)
	}

	hod, ok := State{Users: users}.FindUser("businessdevelopment_hod")
	if !ok {
		t.Fatalf("expected business development head in roster")
	}
	if hod.Name != "BusinessDevelopment Strategic Lead" || hod.Email != "businessdevelopment.hod@directuspro.com" {
		t.Fatalf("unexpected head %+v", hod)
	}
	if _, ok := (State{Users: users}).FindUser("rd_j3"); !ok {
		t.Fatalf("expected rd_j3 in roster")
	}
}

func TestSeedState(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, time.March, 14, 8, 30, 0, 0, time.UTC)
	s := SeedState(now)

	if len(s.Meetings) != 1 || s.Meetings[0].ID != "m-strat-blackwell" {
		t.Fatalf("unexpected seed meetings %+v", s.Meetings)
	}
	if s.Meetings[0].IsFinalized {
		t.Fatalf("seed meeting has an unsigned attendee and must stay open")
	}
	if s.Meetings[0].StartTime != "2025-03-14T10:00:00.000Z" {
		t.Fatalf("start = %s", s.Meetings[0].StartTime)
	}
	if len(s.Tasks) != 1 || s.Tasks[0].DueDate != "2025-03-16" || s.Tasks[0].Status != StatusInProgress {
		t.Fatalf("unexpected seed task %+v", s.Tasks)
	}
	if s.Branding != DefaultBranding() {
		t.Fatalf("unexpected branding %+v", s.Branding)
	}
	if len(s.Designations) != len(Roles()) {
		t.Fatalf("designations = %v", s.Designations)
	}
	if s.CurrentUser != nil {
		t.Fatalf("seed state must not carry a session user")
	}
}

func TestStateClone(t *testing.T) {
	t.Parallel()
	s := SeedState(time.Now())
	c := s.Clone()
	c.Meetings[0].Attendees[0] = "changed"
	c.Users[0].Name = "changed"

	if s.Meetings[0].Attendees[0] == "changed" || s.Users[0].Name == "changed" {
		t.Fatalf("clone shares storage with the original")
	}
}
