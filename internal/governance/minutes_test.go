package governance

import (
	"encoding/json"
	"testing"
)

func TestParseLegacyMinutes(t *testing.T) {
	t.Parallel()

	t.Run("prefixed row list becomes rows", func(t *testing.T) {
		t.Parallel()
		raw := `[{"id":"1","discussion":"Budget","resolution":"Approve","ownerId":"u2","deadline":"2025-06-01"}]`
		m := ParseLegacyMinutes(raw)
		if m.Kind != MinutesRows || len(m.Rows) != 1 {
			t.Fatalf("expected one row, got %+v", m)
		}
		if m.Rows[0].OwnerID != "u2" || m.Rows[0].Resolution != "Approve" {
			t.Fatalf("unexpected row %+v", m.Rows[0])
		}
	})

	t.Run("plain text stays freeform", func(t *testing.T) {
		t.Parallel()
		m := ParseLegacyMinutes("Session commenced at 10:00 AM.")
		if m.Kind != MinutesFreeform || m.Text != "Session commenced at 10:00 AM." {
			t.Fatalf("unexpected minutes %+v", m)
		}
	})

	t.Run("json array without the prefix stays freeform", func(t *testing.T) {
		t.Parallel()
		raw := `[ {"id":"1"} ]`
		m := ParseLegacyMinutes(raw)
		if m.Kind != MinutesFreeform || m.Text != raw {
			t.Fatalf("expected freeform text, got %+v", m)
		}
	})

	t.Run("broken prefixed text stays freeform", func(t *testing.T) {
		t.Parallel()
		raw := `[{"id": oops`
		m := ParseLegacyMinutes(raw)
		if m.Kind != MinutesFreeform || m.Text != raw {
			t.Fatalf("expected freeform text, got %+v", m)
		}
	})
}

func TestMinutesJSON(t *testing.T) {
	t.Parallel()

	t.Run("reads the legacy string form inside a meeting", func(t *testing.T) {
		t.Parallel()
		payload := `{"id":"m1","attendees":["u1"],"minutes":"[{\"id\":\"r1\",\"discussion\":\"d\",\"resolution\":\"r\",\"ownerId\":\"u1\",\"deadline\":\"\"}]"}`
		var m Meeting
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if m.Minutes.Kind != MinutesRows || len(m.Minutes.Rows) != 1 || m.Minutes.Rows[0].ID != "r1" {
			t.Fatalf("legacy rows not detected: %+v", m.Minutes)
		}
	})

	t.Run("writes the tagged form", func(t *testing.T) {
		t.Parallel()
		buf, err := json.Marshal(RowMinutes([]MinuteRow{{ID: "r1"}}))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var probe map[string]any
		if err := json.Unmarshal(buf, &probe); err != nil {
			t.Fatalf("probe: %v", err)
		}
		if probe["kind"] != "rows" {
			t.Fatalf("expected kind rows, got %v", probe["kind"])
		}
	})

	t.Run("legacy rendering is read back as rows", func(t *testing.T) {
		t.Parallel()
		original := RowMinutes([]MinuteRow{{ID: "r1", Discussion: "x"}})
		legacy, err := original.Legacy()
		if err != nil {
			t.Fatalf("legacy: %v", err)
		}
		back := ParseLegacyMinutes(legacy)
		if back.Kind != MinutesRows || back.Rows[0].Discussion != "x" {
			t.Fatalf("legacy round trip lost rows: %+v", back)
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		t.Parallel()
		var m Minutes
		if err := json.Unmarshal([]byte(`{"kind":"audio"}`), &m); err == nil {
			t.Fatalf("expected an error for unknown kind")
		}
	})
}
