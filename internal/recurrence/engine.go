package recurrence

import (
	"errors"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyNone marks a one-off meeting.
	FrequencyNone Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	// FrequencyMonthly repeats on the same day of month; months without that day are skipped.
	FrequencyMonthly
)

// FrequencyFor maps a meeting recurrence onto an engine frequency.
func FrequencyFor(r governance.Recurrence) Frequency {
	switch r {
	case governance.RecurrenceDaily:
		return FrequencyDaily
	case governance.RecurrenceWeekly:
		return FrequencyWeekly
	case governance.RecurrenceMonthly:
		return FrequencyMonthly
	default:
		return FrequencyNone
	}
}

// Rule describes how a meeting repeats.
type Rule struct {
	MeetingID string
	Frequency Frequency
	StartsOn  time.Time
	EndsOn    *time.Time
}

// Window bounds occurrence generation.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Occurrence is one generated instance of a meeting.
type Occurrence struct {
	MeetingID string
	Start     time.Time
	End       time.Time
}

// Engine expands recurrence rules into occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes results to loc, or UTC when loc is nil.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidWindow indicates the generation window is unbounded.
	ErrInvalidWindow = errors.New("recurrence: generation window requires an end bound")
	// ErrInvalidDuration indicates the base meeting duration is invalid.
	ErrInvalidDuration = errors.New("recurrence: meeting duration must be positive")
)

// Expand produces occurrences of rule within the window.
//
// The base interval supplies the time of day and the duration. A one-off rule yields
// the base interval itself when it falls inside the window. Generation stops at the
// earlier of the rule's EndsOn and the window end; at least one of them is required.
func (e *Engine) Expand(rule Rule, baseStart, baseEnd time.Time, window Window) ([]Occurrence, error) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}

	baseStart = baseStart.In(loc)
	baseEnd = baseEnd.In(loc)
	if !baseEnd.After(baseStart) {
		return nil, ErrInvalidDuration
	}
	duration := baseEnd.Sub(baseStart)

	var upper time.Time
	hasUpper := false
	if rule.EndsOn != nil {
		upper = rule.EndsOn.In(loc)
		hasUpper = true
	}
	if window.End != nil {
		end := window.End.In(loc)
		if !hasUpper || end.Before(upper) {
			upper = end
		}
		hasUpper = true
	}

	lower := baseStart
	if !rule.StartsOn.IsZero() && rule.StartsOn.In(loc).After(lower) {
		lower = rule.StartsOn.In(loc)
	}
	var windowStart time.Time
	if window.Start != nil {
		windowStart = window.Start.In(loc)
	}

	if rule.Frequency == FrequencyNone {
		if inWindow(baseStart, baseStart.Add(duration), windowStart, upper, hasUpper) {
			return []Occurrence{{MeetingID: rule.MeetingID, Start: baseStart, End: baseEnd}}, nil
		}
		return nil, nil
	}
	if !hasUpper {
		return nil, ErrInvalidWindow
	}

	var occurrences []Occurrence
	for i := 0; ; i++ {
		start, ok, err := nth(rule.Frequency, baseStart, i, loc)
		if err != nil {
			return nil, err
		}
		if start.After(upper) {
			break
		}
		if !ok || start.Before(lower) {
			continue
		}
		end := start.Add(duration)
		if !windowStart.IsZero() && !end.After(windowStart) {
			continue
		}
		occurrences = append(occurrences, Occurrence{MeetingID: rule.MeetingID, Start: start, End: end})
	}
	return occurrences, nil
}

// nth returns the i-th candidate start after base. ok is false for monthly
// candidates that fall on a day the month does not have.
func nth(freq Frequency, base time.Time, i int, loc *time.Location) (time.Time, bool, error) {
	y, m, d := base.Date()
	h, mi, s := base.Clock()
	ns := base.Nanosecond()

	switch freq {
	case FrequencyDaily:
		return time.Date(y, m, d+i, h, mi, s, ns, loc), true, nil
	case FrequencyWeekly:
		return time.Date(y, m, d+7*i, h, mi, s, ns, loc), true, nil
	case FrequencyMonthly:
		first := time.Date(y, m+time.Month(i), 1, h, mi, s, ns, loc)
		candidate := time.Date(first.Year(), first.Month(), d, h, mi, s, ns, loc)
		return candidate, candidate.Month() == first.Month(), nil
	default:
		return time.Time{}, false, ErrInvalidFrequency
	}
}

func inWindow(start, end, windowStart, windowEnd time.Time, hasEnd bool) bool {
	if !windowStart.IsZero() && !end.After(windowStart) {
		return false
	}
	if hasEnd && start.After(windowEnd) {
		return false
	}
	return true
}

// ExpandMeeting expands a stored meeting using its recurrence setting.
func (e *Engine) ExpandMeeting(m governance.Meeting, window Window) ([]Occurrence, error) {
	start, end, err := governance.MeetingInterval(m)
	if err != nil {
		return nil, err
	}
	return e.Expand(Rule{MeetingID: m.ID, Frequency: FrequencyFor(m.Recurrence), StartsOn: start}, start, end, window)
}
