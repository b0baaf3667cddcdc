package governance

// Role identifies a person's seniority in the organisation.
type Role string

const (
	RoleChairman Role = "Chairman"
	RoleCEO      Role = "CEO"
	RoleCOO      Role = "COO"
	RoleMD       Role = "MD"
	RoleCFO      Role = "CFO"
	RoleHOD      Role = "HOD"
	RoleJunior   Role = "Junior"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleChairman, RoleCEO, RoleCOO, RoleMD, RoleCFO, RoleHOD, RoleJunior}
}

// IsExecutive reports whether the role belongs to the executive board.
func (r Role) IsExecutive() bool {
	switch r {
	case RoleChairman, RoleCEO, RoleCOO, RoleMD, RoleCFO:
		return true
	default:
		return false
	}
}

// Department is the organisational unit a user or meeting belongs to.
type Department string

const (
	DepartmentExecutive           Department = "Executive"
	DepartmentFinance             Department = "Finance"
	DepartmentEngineering         Department = "Engineering"
	DepartmentBusinessDevelopment Department = "BusinessDevelopment"
	DepartmentRegulatory          Department = "Regulatory"
	DepartmentRD                  Department = "RD"
	DepartmentSales               Department = "Sales"
	DepartmentMarketing           Department = "Marketing"
	DepartmentProduction          Department = "Production"
	DepartmentSupplyChain         Department = "SupplyChain"
	DepartmentQA                  Department = "QA"
	DepartmentQC                  Department = "QC"
	DepartmentExport              Department = "Export"
	DepartmentIT                  Department = "IT"
)

// Departments lists every department in roster order.
func Departments() []Department {
	return []Department{
		DepartmentExecutive,
		DepartmentFinance,
		DepartmentEngineering,
		DepartmentBusinessDevelopment,
		DepartmentRegulatory,
		DepartmentRD,
		DepartmentSales,
		DepartmentMarketing,
		DepartmentProduction,
		DepartmentSupplyChain,
		DepartmentQA,
		DepartmentQC,
		DepartmentExport,
		DepartmentIT,
	}
}

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	for _, known := range Departments() {
		if d == known {
			return true
		}
	}
	return false
}

// Team and Region are free-form classifications; None is the default.
type (
	Team   string
	Region string
)

const (
	TeamNone   Team   = "None"
	RegionNone Region = "None"
)

type TaskStatus string

const (
	StatusPendingApproval TaskStatus = "PendingApproval"
	StatusApproved        TaskStatus = "Approved"
	StatusRejected        TaskStatus = "Rejected"
	StatusInProgress      TaskStatus = "InProgress"
	// StatusPending is a holding state with no transition in or out.
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
)

// BoardStatuses lists the task board columns in display order.
func BoardStatuses() []TaskStatus {
	return []TaskStatus{
		StatusPendingApproval,
		StatusApproved,
		StatusPending,
		StatusInProgress,
		StatusCompleted,
		StatusRejected,
	}
}

// Valid reports whether s is one of the six workflow states.
func (s TaskStatus) Valid() bool {
	for _, known := range BoardStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Priority orders tasks from Q1 (highest) to Q3 (lowest).
type Priority string

const (
	PriorityQ1 Priority = "Q1"
	PriorityQ2 Priority = "Q2"
	PriorityQ3 Priority = "Q3"
)

func (p Priority) Valid() bool {
	return p == PriorityQ1 || p == PriorityQ2 || p == PriorityQ3
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "None"
	RecurrenceDaily   Recurrence = "Daily"
	RecurrenceWeekly  Recurrence = "Weekly"
	RecurrenceMonthly Recurrence = "Monthly"
)

type MeetingType string

const (
	MeetingStandard  MeetingType = "Standard"
	MeetingStrategic MeetingType = "Strategic"
)

// ActionType labels an audit entry. The set is open; unknown values round-trip untouched.
type ActionType string

const (
	ActionLogin                 ActionType = "Login"
	ActionMeetingScheduled      ActionType = "MeetingScheduled"
	ActionTaskStatusUpdate      ActionType = "TaskStatusUpdate"
	ActionTaskDeleted           ActionType = "TaskDeleted"
	ActionPersonnelUpdate       ActionType = "PersonnelUpdate"
	ActionDatabaseExported      ActionType = "DatabaseExported"
	ActionDatabaseReset         ActionType = "DatabaseReset"
	ActionCustomCalendarCreated ActionType = "CustomCalendarCreated"
)

type NotificationType string

const (
	NotificationTask    NotificationType = "Task"
	NotificationMeeting NotificationType = "Meeting"
	NotificationSystem  NotificationType = "System"
)

// User is a member of the personnel roster.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
	Team       Team       `json:"team"`
	Region     Region     `json:"region"`
}

// ExternalAttendee is a guest without a system account.
type ExternalAttendee struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Designation string `json:"designation"`
}

// Attachment carries an inline base64 payload.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type Meeting struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	StartTime         string             `json:"startTime"`
	EndTime           string             `json:"endTime"`
	Location          string             `json:"location"`
	Department        Department         `json:"department"`
	Team              Team               `json:"team"`
	Region            Region             `json:"region"`
	OrganizerID       string             `json:"organizerId"`
	LeaderID          string             `json:"leaderId"`
	Attendees         []string           `json:"attendees"`
	ExternalAttendees []ExternalAttendee `json:"externalAttendees"`
	Attachments       []Attachment       `json:"attachments"`
	Minutes           Minutes            `json:"minutes"`
	FinalizedBy       []string           `json:"finalizedBy"`
	// RejectedBy is carried for stored-data compatibility only.
	RejectedBy   map[string]string `json:"rejectedBy"`
	IsFinalized  bool              `json:"isFinalized"`
	IsCustomRoom bool              `json:"isCustomRoom"`
	Type         MeetingType       `json:"type"`
	Recurrence   Recurrence        `json:"recurrence"`
}

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssignedToID string     `json:"assignedToId"`
	AssignedByID string     `json:"assignedById"`
	DueDate      string     `json:"dueDate"`
	Priority     Priority   `json:"priority"`
	Status       TaskStatus `json:"status"`
	CreatedAt    string     `json:"createdAt"`
	Recurrence   Recurrence `json:"recurrence,omitempty"`
	MeetingID    string     `json:"meetingId,omitempty"`

	RejectionReason       string       `json:"reason,omitempty"`
	CompletionMessage     string       `json:"message,omitempty"`
	CompletionAttachments []Attachment `json:"attachments,omitempty"`
}

type AuditLog struct {
	ID         string     `json:"id"`
	Timestamp  string     `json:"timestamp"`
	UserID     string     `json:"userId"`
	Action     ActionType `json:"action"`
	Details    string     `json:"details"`
	Department Department `json:"department"`
}

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Timestamp   string           `json:"timestamp"`
	Read        bool             `json:"read"`
}

type CustomCalendar struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	UserIDs   []string `json:"userIds"`
	CreatedBy string   `json:"createdBy"`
}

// Branding is the global white-label configuration.
type Branding struct {
	CompanyName     string `json:"companyName"`
	CompanySubtitle string `json:"companySubtitle"`
	PrimaryColor    string `json:"primaryColor"`
	LogoBase64      string `json:"logoBase64"`
}

// Actor is the acting user as seen by the policy and lifecycle functions.
type Actor struct {
	ID         string
	Role       Role
	Department Department
}

// ActorFor builds an Actor from a roster entry.
func ActorFor(u User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Department: u.Department}
}
