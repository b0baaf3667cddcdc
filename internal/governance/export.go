package governance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ExportDocument is the portable dataset. The current user and notifications
// are deliberately not part of it.
type ExportDocument struct {
	Meetings        []Meeting        `json:"meetings"`
	Tasks           []Task           `json:"tasks"`
	Users           []User           `json:"users"`
	Designations    []string         `json:"designations"`
	CustomCalendars []CustomCalendar `json:"customCalendars"`
	AuditLogs       []AuditLog       `json:"auditLogs"`
	Branding        Branding         `json:"branding"`
}

// NewExportDocument copies the exportable collections out of s.
func NewExportDocument(s State) ExportDocument {
	c := s.Clone()
	return ExportDocument{
		Meetings:        nonNil(c.Meetings),
		Tasks:           nonNil(c.Tasks),
		Users:           nonNil(c.Users),
		Designations:    nonNil(c.Designations),
		CustomCalendars: nonNil(c.CustomCalendars),
		AuditLogs:       nonNil(c.AuditLogs),
		Branding:        c.Branding,
	}
}

// Marshal renders the document with two-space indentation.
func (d ExportDocument) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ImportPatch holds the collections present in an import document.
// A nil field means the key was absent and the collection stays as it is.
type ImportPatch struct {
	Meetings        *[]Meeting
	Tasks           *[]Task
	Users           *[]User
	Designations    *[]string
	CustomCalendars *[]CustomCalendar
	AuditLogs       *[]AuditLog
	Branding        *Branding
}

// Keys lists the persisted documents the patch overwrites.
func (p ImportPatch) Keys() []Key {
	var keys []Key
	if p.Meetings != nil {
		keys = append(keys, KeyMeetings)
	}
	if p.Tasks != nil {
		keys = append(keys, KeyTasks)
	}
	if p.Users != nil {
		keys = append(keys, KeyUsers)
	}
	if p.Designations != nil {
		keys = append(keys, KeyDesignations)
	}
	if p.CustomCalendars != nil {
		keys = append(keys, KeyCustomCalendars)
	}
	if p.AuditLogs != nil {
		keys = append(keys, KeyAuditLogs)
	}
	if p.Branding != nil {
		keys = append(keys, KeyBranding)
	}
	return keys
}

// Apply overwrites each present collection of s wholesale.
func (p ImportPatch) Apply(s *State) {
	if p.Meetings != nil {
		s.Meetings = nonNil(*p.Meetings)
	}
	if p.Tasks != nil {
		s.Tasks = nonNil(*p.Tasks)
	}
	if p.Users != nil {
		s.Users = nonNil(*p.Users)
	}
	if p.Designations != nil {
		s.Designations = nonNil(*p.Designations)
	}
	if p.CustomCalendars != nil {
		s.CustomCalendars = nonNil(*p.CustomCalendars)
	}
	if p.AuditLogs != nil {
		s.AuditLogs = nonNil(*p.AuditLogs)
	}
	if p.Branding != nil {
		s.Branding = *p.Branding
	}
}

// ErrNotAnObject is returned when an import document is valid JSON but not an object.
var ErrNotAnObject = errors.New("governance: import document must be a JSON object")

// ParseImport decodes an export document. Keys that are absent or null are left out
// of the patch. Any decode failure rejects the whole document.
func ParseImport(data []byte) (ImportPatch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return ImportPatch{}, ErrNotAnObject
		}
		return ImportPatch{}, fmt.Errorf("parse import: invalid JSON")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return ImportPatch{}, fmt.Errorf("parse import: %w", err)
	}

	var patch ImportPatch
	if err := decodeKey(raw, "meetings", &patch.Meetings); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "tasks", &patch.Tasks); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "users", &patch.Users); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "designations", &patch.Designations); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "customCalendars", &patch.CustomCalendars); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "auditLogs", &patch.AuditLogs); err != nil {
		return ImportPatch{}, err
	}
	if err := decodeKey(raw, "branding", &patch.Branding); err != nil {
		return ImportPatch{}, err
	}
	return patch, nil
}

func decodeKey[T any](raw map[string]json.RawMessage, name string, dst **T) error {
	value, ok := raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil
	}
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return fmt.Errorf("parse import %s: %w", name, err)
	}
	*dst = &decoded
	return nil
}

// ExportFileName follows the directuspro_export_yyyyMMdd_HHmm.json convention.
func ExportFileName(now time.Time) string {
	return "directuspro_export_" + now.Format("20060102_1504") + ".json"
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
