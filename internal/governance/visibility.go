package governance

// VisibleTasks filters tasks down to what actor may see.
// Executives see everything; a department head additionally sees tasks whose
// assignee belongs to their department; everyone sees tasks they assigned or received.
func VisibleTasks(tasks []Task, actor Actor, users []User) []Task {
	departments := make(map[string]Department, len(users))
	for _, u := range users {
		departments[u.ID] = u.Department
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if TaskVisibleTo(t, actor, departments) {
			out = append(out, CloneTask(t))
		}
	}
	return out
}

// TaskVisibleTo applies the visibility rule to a single task.
func TaskVisibleTo(t Task, actor Actor, departments map[string]Department) bool {
	if actor.ID == "" {
		return false
	}
	if actor.Role.IsExecutive() {
		return true
	}
	if actor.Role == RoleHOD {
		if dept, ok := departments[t.AssignedToID]; ok && dept == actor.Department {
			return true
		}
	}
	return t.AssignedToID == actor.ID || t.AssignedByID == actor.ID
}

// VisibleCalendars returns calendars created by or shared with userID.
func VisibleCalendars(calendars []CustomCalendar, userID string) []CustomCalendar {
	out := make([]CustomCalendar, 0, len(calendars))
	for _, c := range calendars {
		if CalendarVisibleTo(c, userID) {
			out = append(out, CloneCalendar(c))
		}
	}
	return out
}

func CalendarVisibleTo(c CustomCalendar, userID string) bool {
	return userID != "" && (c.CreatedBy == userID || contains(c.UserIDs, userID))
}

func CloneCalendar(c CustomCalendar) CustomCalendar {
	out := c
	out.UserIDs = cloneStrings(c.UserIDs)
	return out
}
