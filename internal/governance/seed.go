package governance

import (
	"strings"
	"time"
	"unicode"
)

const emailDomain = "directuspro.com"

// DefaultBranding is the factory white-label configuration.
func DefaultBranding() Branding {
	return Branding{
		CompanyName:     "DIRECTUS PRO",
		CompanySubtitle: "Sovereign Governance",
		PrimaryColor:    "#10b981",
		LogoBase64:      "https://raw.githubusercontent.com/StackBlitz/stackblitz-images/main/pharma-s-logo.png",
	}
}

// DefaultDesignations lists every role name.
func DefaultDesignations() []string {
	roles := Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// SeedRoster builds the static personnel roster: the executive board followed by
// one head and three associates for every other department.
func SeedRoster() []User {
	users := []User{
		executive("u100", "Alexander Vane", "chairman", RoleChairman),
		executive("u1", "Julian Thorne", "ceo", RoleCEO),
		executive("u_coo", "Marcus Sterling", "coo", RoleCOO),
		executive("u_md", "David Blackwell", "md", RoleMD),
		executive("u_cfo", "Richard Vance", "cfo", RoleCFO),
	}
	for _, dept := range Departments() {
		if dept == DepartmentExecutive {
			continue
		}
		users = append(users, departmentStaff(dept)...)
	}
	return users
}

func executive(id, name, mailbox string, role Role) User {
	return User{
		ID:         id,
		Name:       name,
		Email:      mailbox + "@" + emailDomain,
		Role:       role,
		Department: DepartmentExecutive,
		Team:       TeamNone,
		Region:     RegionNone,
	}
}

func departmentStaff(dept Department) []User {
	key := DepartmentKey(dept)
	staff := []struct {
		suffix string
		name   string
		role   Role
	}{
		{"hod", string(dept) + " Strategic Lead", RoleHOD},
		{"j1", string(dept) + " Associate Alpha", RoleJunior},
		{"j2", string(dept) + " Associate Beta", RoleJunior},
		{"j3", string(dept) + " Associate Gamma", RoleJunior},
	}

	users := make([]User, 0, len(staff))
	for _, s := range staff {
		users = append(users, User{
			ID:         key + "_" + s.suffix,
			Name:       s.name,
			Email:      key + "." + s.suffix + "@" + emailDomain,
			Role:       s.role,
			Department: dept,
			Team:       TeamNone,
			Region:     RegionNone,
		})
	}
	return users
}

// DepartmentKey lowercases the department name and keeps letters and digits only.
func DepartmentKey(dept Department) string {
	var b strings.Builder
	for _, r := range strings.ToLower(string(dept)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SeedMeetings returns the single pre-built strategic review, held today at 10:00.
func SeedMeetings(now time.Time) []Meeting {
	y, mo, d := now.Date()
	start := time.Date(y, mo, d, 10, 0, 0, 0, now.Location())
	m := Meeting{
		ID:          "m-strat-blackwell",
		Title:       "Q4 Global Performance Review",
		Description: "Strategic analysis of export milestones and regional compliance metrics. Led by Director David Blackwell.",
		StartTime:   FormatTimestamp(start),
		EndTime:     FormatTimestamp(start.Add(120 * time.Minute)),
		Location:    "Executive Suite - Floor 12",
		Department:  DepartmentExecutive,
		Team:        TeamNone,
		Region:      RegionNone,
		OrganizerID: "u_md",
		LeaderID:    "u_md",
		Attendees:   []string{"u_md", "u1", "u100"},
		// u100 has not signed yet, so the review stays open.
		FinalizedBy:       []string{"u_md", "u1"},
		RejectedBy:        map[string]string{},
		ExternalAttendees: []ExternalAttendee{},
		Attachments:       []Attachment{},
		Minutes:           FreeformMinutes("Session commenced at 10:00 AM."),
		IsCustomRoom:      true,
		Type:              MeetingStrategic,
		Recurrence:        RecurrenceMonthly,
	}
	m.IsFinalized = IsFinalized(m)
	return []Meeting{m}
}

// SeedTasks returns the single in-flight directive.
func SeedTasks(now time.Time) []Task {
	return []Task{{
		ID:           "t-blackwell-1",
		Title:        "Approve Strategic Market Expansion",
		Description:  "Review regional compliance data.",
		AssignedToID: "u_md",
		AssignedByID: "u1",
		DueDate:      now.AddDate(0, 0, 2).Format("2006-01-02"),
		Status:       StatusInProgress,
		Priority:     PriorityQ1,
		CreatedAt:    FormatTimestamp(now.AddDate(0, 0, -1)),
	}}
}

// SeedState assembles the factory state used when nothing is stored.
func SeedState(now time.Time) State {
	return State{
		Meetings:        SeedMeetings(now),
		Tasks:           SeedTasks(now),
		Users:           SeedRoster(),
		Designations:    DefaultDesignations(),
		CustomCalendars: []CustomCalendar{},
		AuditLogs:       []AuditLog{},
		Notifications:   []Notification{},
		Branding:        DefaultBranding(),
	}
}
