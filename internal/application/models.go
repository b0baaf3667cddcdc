package application

import (
	"time"

	"filippo.io/age"

	"github.com/example/directus-governance/internal/archive"
	"github.com/example/directus-governance/internal/governance"
	"github.com/example/directus-governance/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID     string
	Role       governance.Role
	Department governance.Department
}

// Actor converts the principal into the governance view of the caller.
func (p Principal) Actor() governance.Actor {
	return governance.Actor{ID: p.UserID, Role: p.Role, Department: p.Department}
}

// PrincipalFor builds a principal from a roster entry.
func PrincipalFor(u governance.User) Principal {
	return Principal{UserID: u.ID, Role: u.Role, Department: u.Department}
}

// MeetingInput captures caller provided meeting fields.
type MeetingInput struct {
	Title             string
	Description       string
	StartTime         string
	EndTime           string
	Location          string
	Department        governance.Department
	Team              governance.Team
	Region            governance.Region
	LeaderID          string
	Attendees         []string
	ExternalAttendees []governance.ExternalAttendee
	Attachments       []governance.Attachment
	Minutes           governance.Minutes
	IsCustomRoom      bool
	Type              governance.MeetingType
	Recurrence        governance.Recurrence
}

// ScheduleMeetingParams wraps the data required to schedule a meeting.
type ScheduleMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// UpdateMeetingParams wraps the data required to edit an existing meeting.
type UpdateMeetingParams struct {
	Principal Principal
	MeetingID string
	Input     MeetingInput
}

// RecordMinutesParams replaces the minutes of a meeting.
type RecordMinutesParams struct {
	Principal Principal
	MeetingID string
	Minutes   governance.Minutes
}

// MeetingResult pairs a stored meeting with the overlaps detected when it was saved.
type MeetingResult struct {
	Meeting  governance.Meeting
	Warnings []scheduler.Conflict
}

// MeetingView selects one of the meeting listings.
type MeetingView string

const (
	ViewPersonal   MeetingView = "personal"
	ViewExecSync   MeetingView = "exec"
	ViewDepartment MeetingView = "department"
	ViewArchive    MeetingView = "archive"
)

// ListMeetingsParams wraps the data required to list meetings.
type ListMeetingsParams struct {
	Principal Principal
	View      MeetingView
	// Department narrows the department view. Empty means every department
	// for executives and is ignored for everyone else.
	Department governance.Department
}

// OccurrencesParams bounds a recurring meeting expansion.
type OccurrencesParams struct {
	Principal Principal
	From      time.Time
	To        time.Time
}

// MeetingOccurrence is one generated instance of a meeting the caller attends.
type MeetingOccurrence struct {
	MeetingID string    `json:"meetingId"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// TaskInput captures caller provided task fields.
type TaskInput struct {
	Title        string
	Description  string
	AssignedToID string
	DueDate      string
	Priority     governance.Priority
	Recurrence   governance.Recurrence
}

// CreateTaskParams wraps the data required to create a standalone task.
type CreateTaskParams struct {
	Principal Principal
	Input     TaskInput
}

// IssueDirectiveParams identifies the minute row a task is issued from.
type IssueDirectiveParams struct {
	Principal Principal
	MeetingID string
	RowID     string
}

// TransitionTaskParams wraps a task status change.
type TransitionTaskParams struct {
	Principal   Principal
	TaskID      string
	Reason      string
	Message     string
	Attachments []governance.Attachment
}

// ListTasksParams wraps the optional task filters.
type ListTasksParams struct {
	Principal Principal
	Priority  governance.Priority
	Status    governance.TaskStatus
}

// BoardColumn groups the tasks sharing one status.
type BoardColumn struct {
	Status governance.TaskStatus `json:"status"`
	Tasks  []governance.Task     `json:"tasks"`
}

// DirectoryParams narrows the personnel directory.
type DirectoryParams struct {
	Query      string
	Department governance.Department
}

// UpsertUserParams wraps a personnel record change.
type UpsertUserParams struct {
	Principal Principal
	User      governance.User
}

// CreateCalendarParams wraps the data required to create a custom calendar.
type CreateCalendarParams struct {
	Principal Principal
	Name      string
	UserIDs   []string
}

// AuditFilter narrows the audit listing.
type AuditFilter struct {
	Action governance.ActionType
	UserID string
}

// LoginParams carries the login form.
type LoginParams struct {
	UserID    string
	AccessKey string
}

// LoginResult is a successful login.
type LoginResult struct {
	User      governance.User
	Token     string
	ExpiresAt time.Time
}

// ExportParams wraps an export request.
type ExportParams struct {
	Principal Principal
	Options   archive.Options
}

// ExportResult is the sealed export file plus the document it was built from.
type ExportResult struct {
	File     archive.Sealed
	Document governance.ExportDocument
}

// ImportParams wraps an import request.
type ImportParams struct {
	Principal  Principal
	Data       []byte
	Identities []age.Identity
}

// ImportResult lists the collections the import replaced.
type ImportResult struct {
	Keys []governance.Key
}

// ResetParams wraps a factory reset request.
type ResetParams struct {
	Principal Principal
	Confirm   bool
}

// DashboardStats summarises the caller's workload.
type DashboardStats struct {
	ManifestLoad    int                 `json:"manifestLoad"`
	DailySchedule   int                 `json:"dailySchedule"`
	CriticalTasks   int                 `json:"criticalTasks"`
	ActiveSessions  int                 `json:"activeSessions"`
	CompletionRate  int                 `json:"completionRate"`
	CriticalList    []governance.Task   `json:"criticalList"`
	UpcomingMeeting *governance.Meeting `json:"upcomingMeeting,omitempty"`
}
