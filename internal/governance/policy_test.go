package governance

import "testing"

func TestCanPerform(t *testing.T) {
	t.Parallel()

	chairman := Actor{ID: "u100", Role: RoleChairman, Department: DepartmentExecutive}
	ceo := Actor{ID: "u1", Role: RoleCEO, Department: DepartmentExecutive}
	hod := Actor{ID: "finance_hod", Role: RoleHOD, Department: DepartmentFinance}
	junior := Actor{ID: "finance_j1", Role: RoleJunior, Department: DepartmentFinance}

	open := Meeting{ID: "m1", OrganizerID: "u1", LeaderID: "u1", Attendees: []string{"u1", "finance_j1"}}
	signed := CloneMeeting(open)
	signed.FinalizedBy = []string{"finance_j1"}

	pending := Task{ID: "t1", AssignedToID: "finance_j1", AssignedByID: "finance_hod", Status: StatusPendingApproval}
	done := CloneTask(pending)
	done.Status = StatusCompleted

	cases := []struct {
		name   string
		action Action
		actor  Actor
		entity any
		want   bool
	}{
		{"anyone schedules", ActScheduleMeeting, junior, nil, true},
		{"anonymous denied", ActScheduleMeeting, Actor{}, nil, false},
		{"attendee edits open meeting", ActEditMeeting, junior, open, true},
		{"outsider cannot edit", ActEditMeeting, hod, open, false},
		{"signer is locked", ActEditMeeting, junior, signed, false},
		{"other attendee still edits", ActEditMeeting, ceo, signed, true},
		{"attendee signs", ActSignMeeting, junior, open, true},
		{"signer cannot sign twice", ActSignMeeting, junior, signed, false},
		{"wrong entity type denied", ActEditMeeting, ceo, pending, false},
		{"junior cannot create tasks", ActCreateTask, junior, nil, false},
		{"hod creates tasks", ActCreateTask, hod, nil, true},
		{"executive creates tasks", ActCreateTask, ceo, nil, true},
		{"assignee transitions", ActTransitionTask, junior, pending, true},
		{"assigner cannot transition", ActTransitionTask, hod, pending, false},
		{"open task cannot be deleted", ActDeleteTask, hod, pending, false},
		{"assigner deletes completed task", ActDeleteTask, hod, done, true},
		{"executive deletes completed task", ActDeleteTask, chairman, done, true},
		{"unrelated junior cannot delete", ActDeleteTask, Actor{ID: "it_j1", Role: RoleJunior}, done, false},
		{"ceo views audit", ActViewAudit, ceo, nil, true},
		{"hod cannot view audit", ActViewAudit, hod, nil, false},
		{"chairman manages system", ActManageSystem, chairman, nil, true},
		{"ceo cannot manage system", ActManageSystem, ceo, nil, false},
		{"executive sees exec sync", ActViewExecSync, ceo, nil, true},
		{"hod does not see exec sync", ActViewExecSync, hod, nil, false},
		{"unknown action denied", Action("launch"), chairman, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanPerform(tc.action, tc.actor, tc.entity); got != tc.want {
				t.Fatalf("CanPerform(%s) = %v, want %v", tc.action, got, tc.want)
			}
		})
	}
}

func TestVisibleTasks(t *testing.T) {
	t.Parallel()

	users := []User{
		{ID: "finance_hod", Role: RoleHOD, Department: DepartmentFinance},
		{ID: "finance_j1", Role: RoleJunior, Department: DepartmentFinance},
		{ID: "it_hod", Role: RoleHOD, Department: DepartmentIT},
		{ID: "it_j1", Role: RoleJunior, Department: DepartmentIT},
		{ID: "u1", Role: RoleCEO, Department: DepartmentExecutive},
	}
	tasks := []Task{
		{ID: "finance-work", AssignedToID: "finance_j1", AssignedByID: "u1"},
		{ID: "it-work", AssignedToID: "it_j1", AssignedByID: "it_hod"},
		{ID: "hod-request", AssignedToID: "it_hod", AssignedByID: "finance_hod"},
		{ID: "unknown-assignee", AssignedToID: "ghost", AssignedByID: "u1"},
	}

	cases := []struct {
		name  string
		actor Actor
		want  []string
	}{
		{"executive sees all", Actor{ID: "u_cfo", Role: RoleCFO, Department: DepartmentExecutive}, []string{"finance-work", "it-work", "hod-request", "unknown-assignee"}},
		{"hod sees department and own", Actor{ID: "finance_hod", Role: RoleHOD, Department: DepartmentFinance}, []string{"finance-work", "hod-request"}},
		{"other hod", Actor{ID: "it_hod", Role: RoleHOD, Department: DepartmentIT}, []string{"it-work", "hod-request"}},
		{"junior sees own only", Actor{ID: "it_j1", Role: RoleJunior, Department: DepartmentIT}, []string{"it-work"}},
		{"stranger sees nothing", Actor{ID: "qa_j2", Role: RoleJunior, Department: DepartmentQA}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := VisibleTasks(tasks, tc.actor, users)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d tasks (%v), want %v", len(got), ids(got), tc.want)
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("got %v, want %v", ids(got), tc.want)
				}
			}
		})
	}
}

func TestVisibleCalendars(t *testing.T) {
	t.Parallel()
	calendars := []CustomCalendar{
		{ID: "c1", CreatedBy: "u1", UserIDs: []string{"u2"}},
		{ID: "c2", CreatedBy: "u3", UserIDs: []string{"u3"}},
	}
	if got := VisibleCalendars(calendars, "u2"); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("member view = %+v", got)
	}
	if got := VisibleCalendars(calendars, "u3"); len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("creator view = %+v", got)
	}
	if got := VisibleCalendars(calendars, ""); len(got) != 0 {
		t.Fatalf("anonymous view = %+v", got)
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
