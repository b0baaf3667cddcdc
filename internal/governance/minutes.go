package governance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// legacyRowsPrefix marks a legacy minutes string that holds serialized rows.
const legacyRowsPrefix = `[{"id":`

// MinutesKind discriminates the two minutes representations.
type MinutesKind string

const (
	MinutesFreeform MinutesKind = "freeform"
	MinutesRows     MinutesKind = "rows"
)

// MinuteRow is one structured line of the minutes of meeting.
type MinuteRow struct {
	ID         string `json:"id"`
	Discussion string `json:"discussion"`
	Resolution string `json:"resolution"`
	OwnerID    string `json:"ownerId"`
	Deadline   string `json:"deadline"`
}

// Minutes is either free text or an ordered list of rows.
//
// Stored data written before the tagged form existed is a plain JSON string;
// UnmarshalJSON accepts it through ParseLegacyMinutes.
type Minutes struct {
	Kind MinutesKind
	Text string
	Rows []MinuteRow
}

// FreeformMinutes wraps plain text.
func FreeformMinutes(text string) Minutes {
	return Minutes{Kind: MinutesFreeform, Text: text}
}

// RowMinutes wraps structured rows.
func RowMinutes(rows []MinuteRow) Minutes {
	return Minutes{Kind: MinutesRows, Rows: cloneRows(rows)}
}

// ParseLegacyMinutes reads the prefix-sniffed string layout.
// Text starting with `[{"id":` that decodes as rows becomes row minutes;
// anything else, including a prefixed string that fails to decode, is free text.
func ParseLegacyMinutes(raw string) Minutes {
	if strings.HasPrefix(raw, legacyRowsPrefix) {
		var rows []MinuteRow
		if err := json.Unmarshal([]byte(raw), &rows); err == nil {
			return RowMinutes(rows)
		}
	}
	return FreeformMinutes(raw)
}

// Legacy renders the minutes in the prefix-sniffed string layout.
func (m Minutes) Legacy() (string, error) {
	if m.Kind != MinutesRows {
		return m.Text, nil
	}
	rows := m.Rows
	if rows == nil {
		rows = []MinuteRow{}
	}
	buf, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode minute rows: %w", err)
	}
	return string(buf), nil
}

// IsEmpty reports whether nothing has been recorded.
func (m Minutes) IsEmpty() bool {
	if m.Kind == MinutesRows {
		return len(m.Rows) == 0
	}
	return strings.TrimSpace(m.Text) == ""
}

// Row returns the row with the given id.
func (m Minutes) Row(id string) (MinuteRow, bool) {
	if m.Kind != MinutesRows {
		return MinuteRow{}, false
	}
	for _, row := range m.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return MinuteRow{}, false
}

type taggedMinutes struct {
	Kind MinutesKind `json:"kind"`
	Text string      `json:"text,omitempty"`
	Rows []MinuteRow `json:"rows,omitempty"`
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MinutesRows:
		rows := m.Rows
		if rows == nil {
			rows = []MinuteRow{}
		}
		return json.Marshal(taggedMinutes{Kind: MinutesRows, Rows: rows})
	default:
		return json.Marshal(taggedMinutes{Kind: MinutesFreeform, Text: m.Text})
	}
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = FreeformMinutes("")
		return nil
	}

	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("decode legacy minutes: %w", err)
		}
		*m = ParseLegacyMinutes(raw)
		return nil
	}

	var tagged taggedMinutes
	if err := json.Unmarshal(trimmed, &tagged); err != nil {
		return fmt.Errorf("decode minutes: %w", err)
	}
	switch tagged.Kind {
	case MinutesRows:
		*m = RowMinutes(tagged.Rows)
	case MinutesFreeform, "":
		*m = FreeformMinutes(tagged.Text)
	default:
		return fmt.Errorf("decode minutes: unknown kind %q", tagged.Kind)
	}
	return nil
}

func cloneRows(rows []MinuteRow) []MinuteRow {
	if rows == nil {
		return nil
	}
	out := make([]MinuteRow, len(rows))
	copy(out, rows)
	return out
}
