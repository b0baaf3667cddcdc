package governance

import (
	"fmt"
	"time"
)

// IsFinalized reports whether the finalization set covers the attendee list:
// its size equals the distinct attendee count and every signer is an attendee.
// Repeated attendee ids count once.
func IsFinalized(m Meeting) bool {
	if len(m.Attendees) == 0 {
		return false
	}
	attendees := stringSet(m.Attendees)
	signed := stringSet(m.FinalizedBy)
	if len(signed) != len(attendees) {
		return false
	}
	for id := range signed {
		if _, ok := attendees[id]; !ok {
			return false
		}
	}
	return true
}

// UniqueAttendees drops repeated ids while keeping first-seen order.
func UniqueAttendees(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// HasSigned reports whether userID is in the finalization set.
func HasSigned(m Meeting, userID string) bool {
	return contains(m.FinalizedBy, userID)
}

// IsAttendee reports whether userID is an internal attendee.
func IsAttendee(m Meeting, userID string) bool {
	return contains(m.Attendees, userID)
}

// IsParticipant reports whether userID organises, leads or attends the meeting.
func IsParticipant(m Meeting, userID string) bool {
	if userID == "" {
		return false
	}
	return m.OrganizerID == userID || m.LeaderID == userID || IsAttendee(m, userID)
}

// IsLockedForUser reports whether userID may no longer edit the meeting.
func IsLockedForUser(m Meeting, userID string) bool {
	return IsFinalized(m) || HasSigned(m, userID)
}

// Sign appends userID to the finalization set and returns the updated meeting.
// The input is not modified.
func Sign(m Meeting, userID string) (Meeting, error) {
	if IsFinalized(m) {
		return m, ErrMeetingFinalized
	}
	if !IsAttendee(m, userID) {
		return m, ErrNotAttendee
	}
	if HasSigned(m, userID) {
		return m, ErrAlreadySigned
	}

	signed := CloneMeeting(m)
	signed.FinalizedBy = append(signed.FinalizedBy, userID)
	signed.IsFinalized = IsFinalized(signed)
	return signed, nil
}

// ApplyEdit merges an edited meeting onto the stored one on behalf of userID.
// Signatures, rejections, the organizer and the id always come from existing,
// so an edit can never remove a signature. An attendee who has signed cannot
// be dropped from the attendee list.
func ApplyEdit(existing, edited Meeting, userID string) (Meeting, error) {
	if IsLockedForUser(existing, userID) {
		return existing, ErrMeetingLocked
	}
	for _, signer := range existing.FinalizedBy {
		if IsAttendee(existing, signer) && !IsAttendee(edited, signer) {
			return existing, fmt.Errorf("%w: signed attendee %s cannot be removed", ErrMeetingLocked, signer)
		}
	}

	merged := CloneMeeting(edited)
	merged.ID = existing.ID
	merged.OrganizerID = existing.OrganizerID
	merged.FinalizedBy = cloneStrings(existing.FinalizedBy)
	merged.RejectedBy = cloneStringMap(existing.RejectedBy)
	if merged.LeaderID == "" {
		merged.LeaderID = existing.LeaderID
	}
	if merged.Minutes.Kind == "" {
		merged.Minutes.Kind = MinutesFreeform
	}
	merged.IsFinalized = IsFinalized(merged)
	return merged, nil
}

// MeetingInterval parses the ISO 8601 start and end timestamps.
func MeetingInterval(m Meeting) (time.Time, time.Time, error) {
	start, err := ParseTimestamp(m.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("meeting %s start: %w", m.ID, err)
	}
	end, err := ParseTimestamp(m.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("meeting %s end: %w", m.ID, err)
	}
	return start, end, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts full ISO 8601 timestamps as well as the minute-precision
// local form produced by datetime inputs. Zone-less values are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// FormatTimestamp renders t the way stored records expect.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// CloneMeeting returns a deep copy of m.
func CloneMeeting(m Meeting) Meeting {
	out := m
	out.Attendees = cloneStrings(m.Attendees)
	out.FinalizedBy = cloneStrings(m.FinalizedBy)
	out.RejectedBy = cloneStringMap(m.RejectedBy)
	out.Minutes.Rows = cloneRows(m.Minutes.Rows)
	if m.ExternalAttendees != nil {
		out.ExternalAttendees = make([]ExternalAttendee, len(m.ExternalAttendees))
		copy(out.ExternalAttendees, m.ExternalAttendees)
	}
	out.Attachments = cloneAttachments(m.Attachments)
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneStringMap(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func cloneAttachments(values []Attachment) []Attachment {
	if values == nil {
		return nil
	}
	out := make([]Attachment, len(values))
	copy(out, values)
	return out
}
