package scheduler

import (
	"sort"
	"strings"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// Slot is the part of a meeting that matters for double-booking checks.
type Slot struct {
	ID        string
	Attendees []string
	Location  string
	Start     time.Time
	End       time.Time
}

// ConflictType describes the type of conflict detected between meetings.
type ConflictType string

const (
	// ConflictTypeAttendee indicates an attendee is double-booked.
	ConflictTypeAttendee ConflictType = "attendee"
	// ConflictTypeLocation indicates a location is double-booked.
	ConflictTypeLocation ConflictType = "location"
)

// Conflict details an overlapping meeting that callers can present as a warning.
type Conflict struct {
	WithMeetingID string       `json:"withMeetingId"`
	Type          ConflictType `json:"type"`
	Attendee      string       `json:"attendee,omitempty"`
	Location      string       `json:"location,omitempty"`
}

// SlotFor converts a stored meeting into a Slot.
func SlotFor(m governance.Meeting) (Slot, error) {
	start, end, err := governance.MeetingInterval(m)
	if err != nil {
		return Slot{}, err
	}
	return Slot{
		ID:        m.ID,
		Attendees: governance.UniqueAttendees(m.Attendees),
		Location:  m.Location,
		Start:     start,
		End:       end,
	}, nil
}

// DetectConflicts identifies conflicts for the candidate against existing slots.
// Intervals are half-open, so back-to-back meetings never conflict. The candidate
// is skipped if it appears in existing, and blank locations are never compared.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	if !candidate.End.After(candidate.Start) {
		return nil
	}

	attendees := make(map[string]struct{}, len(candidate.Attendees))
	for _, id := range candidate.Attendees {
		attendees[id] = struct{}{}
	}
	location := normalizeLocation(candidate.Location)

	var conflicts []Conflict
	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if !overlaps(candidate, other) {
			continue
		}

		shared := make([]string, 0)
		seen := make(map[string]struct{})
		for _, id := range other.Attendees {
			if _, ok := attendees[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			shared = append(shared, id)
		}
		sort.Strings(shared)
		for _, id := range shared {
			conflicts = append(conflicts, Conflict{WithMeetingID: other.ID, Type: ConflictTypeAttendee, Attendee: id})
		}

		if location != "" && normalizeLocation(other.Location) == location {
			conflicts = append(conflicts, Conflict{WithMeetingID: other.ID, Type: ConflictTypeLocation, Location: candidate.Location})
		}
	}
	return conflicts
}

func overlaps(a, b Slot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func normalizeLocation(loc string) string {
	return strings.ToLower(strings.TrimSpace(loc))
}
