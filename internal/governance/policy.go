package governance

// Action names an operation checked by CanPerform.
type Action string

const (
	ActScheduleMeeting Action = "schedule_meeting"
	ActEditMeeting     Action = "edit_meeting"
	ActSignMeeting     Action = "sign_meeting"
	ActCreateTask      Action = "create_task"
	ActIssueDirective  Action = "issue_directive"
	ActTransitionTask  Action = "transition_task"
	ActDeleteTask      Action = "delete_task"
	ActViewAudit       Action = "view_audit"
	ActManageSystem    Action = "manage_system"
	ActViewExecSync    Action = "view_exec_sync"
	ActCreateCalendar  Action = "create_calendar"
)

// CanPerform decides whether actor may carry out action on entity.
// Entity-bound actions expect a Meeting or Task value and deny anything else.
func CanPerform(action Action, actor Actor, entity any) bool {
	if actor.ID == "" {
		return false
	}

	switch action {
	case ActScheduleMeeting, ActCreateCalendar:
		return true
	case ActEditMeeting, ActIssueDirective:
		m, ok := entity.(Meeting)
		return ok && IsParticipant(m, actor.ID) && !IsLockedForUser(m, actor.ID)
	case ActSignMeeting:
		m, ok := entity.(Meeting)
		return ok && IsAttendee(m, actor.ID) && !HasSigned(m, actor.ID) && !IsFinalized(m)
	case ActCreateTask:
		return actor.Role.IsExecutive() || actor.Role == RoleHOD
	case ActTransitionTask:
		t, ok := entity.(Task)
		return ok && t.AssignedToID == actor.ID
	case ActDeleteTask:
		t, ok := entity.(Task)
		if !ok || !IsTerminal(t.Status) {
			return false
		}
		return t.AssignedToID == actor.ID || t.AssignedByID == actor.ID || actor.Role.IsExecutive()
	case ActViewAudit:
		return actor.Role == RoleChairman || actor.Role == RoleCEO
	case ActManageSystem:
		return actor.Role == RoleChairman
	case ActViewExecSync:
		return actor.Role.IsExecutive()
	default:
		return false
	}
}
