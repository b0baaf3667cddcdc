package testfixtures

import (
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// Monday 12 May 2025, 08:00 UTC: the seeded strategic review starts two hours later.
var referenceTime = time.Date(2025, time.May, 12, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Well-known roster ids from the seed data.
const (
	ChairmanID = "u100"
	CEOID      = "u1"
	MDID       = "u_md"
	CFOID      = "u_cfo"
	FinanceHOD = "finance_hod"
	FinanceJ1  = "finance_j1"
	FinanceJ2  = "finance_j2"
	SalesHOD   = "sales_hod"
	SalesJ1    = "sales_j1"
	SeedMeetID = "m-strat-blackwell"
	SeedTaskID = "t-blackwell-1"
)

// SeedState returns the factory state as of ReferenceTime.
func SeedState() governance.State {
	return governance.SeedState(referenceTime)
}

// User looks a seeded roster entry up and panics when it is missing.
func User(id string) governance.User {
	for _, u := range governance.SeedRoster() {
		if u.ID == id {
			return u
		}
	}
	panic("testfixtures: unknown seed user " + id)
}

// MeetingOption configures a meeting fixture.
type MeetingOption func(*governance.Meeting)

// NewMeeting returns a one hour Finance meeting starting at ReferenceTime plus
// offset, organised by the first attendee.
func NewMeeting(id string, offset time.Duration, attendees []string, opts ...MeetingOption) governance.Meeting {
	start := referenceTime.Add(offset)
	m := governance.Meeting{
		ID:                id,
		Title:             "Fixture " + id,
		StartTime:         governance.FormatTimestamp(start),
		EndTime:           governance.FormatTimestamp(start.Add(time.Hour)),
		Department:        governance.DepartmentFinance,
		Team:              governance.TeamNone,
		Region:            governance.RegionNone,
		Attendees:         append([]string(nil), attendees...),
		ExternalAttendees: []governance.ExternalAttendee{},
		Attachments:       []governance.Attachment{},
		FinalizedBy:       []string{},
		RejectedBy:        map[string]string{},
		Minutes:           governance.FreeformMinutes(""),
		Type:              governance.MeetingStandard,
		Recurrence:        governance.RecurrenceNone,
	}
	if len(attendees) > 0 {
		m.OrganizerID = attendees[0]
		m.LeaderID = attendees[0]
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.IsFinalized = governance.IsFinalized(m)
	return m
}

// WithLocation sets the meeting location.
func WithLocation(location string) MeetingOption {
	return func(m *governance.Meeting) { m.Location = location }
}

// WithSignatures marks ids as having signed.
func WithSignatures(ids ...string) MeetingOption {
	return func(m *governance.Meeting) { m.FinalizedBy = append(m.FinalizedBy, ids...) }
}

// WithRows replaces the minutes with structured rows.
func WithRows(rows ...governance.MinuteRow) MeetingOption {
	return func(m *governance.Meeting) { m.Minutes = governance.RowMinutes(rows) }
}

// WithDepartment sets the meeting department.
func WithDepartment(dept governance.Department) MeetingOption {
	return func(m *governance.Meeting) { m.Department = dept }
}

// NewTask returns a Q2 task in status assigned from assigner to assignee, due
// three days after ReferenceTime.
func NewTask(id, assignee, assigner string, status governance.TaskStatus) governance.Task {
	return governance.Task{
		ID:           id,
		Title:        "Fixture " + id,
		AssignedToID: assignee,
		AssignedByID: assigner,
		DueDate:      referenceTime.AddDate(0, 0, 3).Format("2006-01-02"),
		Priority:     governance.PriorityQ2,
		Status:       status,
		CreatedAt:    governance.FormatTimestamp(referenceTime.Add(-24 * time.Hour)),
		Recurrence:   governance.RecurrenceNone,
	}
}
