package governance

// Key names one persisted document of the state tree.
type Key string

const (
	KeyMeetings        Key = "directus_v1_meetings"
	KeyTasks           Key = "directus_v1_tasks"
	KeyAuditLogs       Key = "directus_v1_logs"
	KeyCurrentUser     Key = "directus_v1_user"
	KeyNotifications   Key = "directus_v1_notifs"
	KeyUsers           Key = "directus_v1_users_list"
	KeyDesignations    Key = "directus_v1_designations"
	KeyCustomCalendars Key = "directus_v1_custom_calendars"
	KeyBranding        Key = "directus_v1_branding"
)

// Keys lists every persisted document name.
func Keys() []Key {
	return []Key{
		KeyMeetings,
		KeyTasks,
		KeyAuditLogs,
		KeyCurrentUser,
		KeyNotifications,
		KeyUsers,
		KeyDesignations,
		KeyCustomCalendars,
		KeyBranding,
	}
}

// State is the whole application state tree.
type State struct {
	Meetings        []Meeting
	Tasks           []Task
	Users           []User
	Designations    []string
	CustomCalendars []CustomCalendar
	AuditLogs       []AuditLog
	Notifications   []Notification
	Branding        Branding
	CurrentUser     *User
}

// Clone returns a deep copy so callers can mutate it freely.
func (s State) Clone() State {
	out := State{Branding: s.Branding}

	if s.Meetings != nil {
		out.Meetings = make([]Meeting, len(s.Meetings))
		for i, m := range s.Meetings {
			out.Meetings[i] = CloneMeeting(m)
		}
	}
	if s.Tasks != nil {
		out.Tasks = make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			out.Tasks[i] = CloneTask(t)
		}
	}
	if s.Users != nil {
		out.Users = make([]User, len(s.Users))
		copy(out.Users, s.Users)
	}
	out.Designations = cloneStrings(s.Designations)
	if s.CustomCalendars != nil {
		out.CustomCalendars = make([]CustomCalendar, len(s.CustomCalendars))
		for i, c := range s.CustomCalendars {
			out.CustomCalendars[i] = CloneCalendar(c)
		}
	}
	if s.AuditLogs != nil {
		out.AuditLogs = make([]AuditLog, len(s.AuditLogs))
		copy(out.AuditLogs, s.AuditLogs)
	}
	if s.Notifications != nil {
		out.Notifications = make([]Notification, len(s.Notifications))
		copy(out.Notifications, s.Notifications)
	}
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	return out
}

// FindUser looks a user up by exact id.
func (s State) FindUser(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// MeetingIndex returns the position of the meeting with id, or -1.
func (s State) MeetingIndex(id string) int {
	for i, m := range s.Meetings {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// TaskIndex returns the position of the task with id, or -1.
func (s State) TaskIndex(id string) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
