package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/directus-governance/internal/governance"
)

// directiveTitle names a directive whose minute row carries no resolution.
const directiveTitle = "Meeting Directive"

// TaskService orchestrates task creation, the approval workflow and removal.
type TaskService struct {
	store       *Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for task operations.
func NewTaskService(store *Store, idGenerator func() string, now func() time.Time) *TaskService {
	return NewTaskServiceWithLogger(store, idGenerator, now, nil)
}

// NewTaskServiceWithLogger wires dependencies for task operations with a specified logger.
func NewTaskServiceWithLogger(store *Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		store:       store,
		idGenerator: defaultIDGenerator(idGenerator),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// Create stores a standalone task awaiting the assignee's approval.
func (s *TaskService) Create(ctx context.Context, params CreateTaskParams) (task governance.Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID, "assignee_id", task.AssignedToID).InfoContext(ctx, "task created")
	}()

	input := params.Input
	input.Title = strings.TrimSpace(input.Title)
	input.AssignedToID = strings.TrimSpace(input.AssignedToID)
	input.DueDate = strings.TrimSpace(input.DueDate)

	vErr := &ValidationError{}
	vErr.required("title", input.Title)
	vErr.required("assignedToId", input.AssignedToID)
	vErr.required("dueDate", input.DueDate)
	if err = vErr.orNil(); err != nil {
		return
	}
	if input.Priority == "" {
		input.Priority = governance.PriorityQ2
	}
	if input.Recurrence == "" {
		input.Recurrence = governance.RecurrenceNone
	}

	keys := []governance.Key{governance.KeyTasks, governance.KeyNotifications}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		if !governance.CanPerform(governance.ActCreateTask, actor, nil) {
			return ErrUnauthorized
		}

		now := s.now()
		created := governance.Task{
			ID:           s.idGenerator(),
			Title:        input.Title,
			Description:  input.Description,
			AssignedToID: input.AssignedToID,
			AssignedByID: actor.ID,
			DueDate:      input.DueDate,
			Priority:     input.Priority,
			Status:       governance.StatusPendingApproval,
			CreatedAt:    governance.FormatTimestamp(now),
			Recurrence:   input.Recurrence,
		}
		st.Tasks = append(st.Tasks, created)
		notify(st, s.idGenerator(), now, created.AssignedToID, governance.NotificationTask,
			"New task assigned", fmt.Sprintf("%q awaits your approval.", created.Title))
		task = created
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		task = governance.Task{}
	}
	return
}

// IssueDirective turns a minute row into a task for the row owner.
func (s *TaskService) IssueDirective(ctx context.Context, params IssueDirectiveParams) (task governance.Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}

	logger := s.loggerWith(ctx, "IssueDirective",
		"user_id", params.Principal.UserID,
		"meeting_id", params.MeetingID,
		"row_id", params.RowID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue directive", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID, "assignee_id", task.AssignedToID).InfoContext(ctx, "directive issued")
	}()

	keys := []governance.Key{governance.KeyTasks, governance.KeyNotifications}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		idx := st.MeetingIndex(params.MeetingID)
		if idx < 0 {
			return ErrNotFound
		}
		meeting := st.Meetings[idx]
		if !governance.CanPerform(governance.ActIssueDirective, actor, meeting) {
			if governance.IsParticipant(meeting, actor.ID) {
				return governance.ErrMeetingLocked
			}
			return ErrUnauthorized
		}

		row, ok := meeting.Minutes.Row(params.RowID)
		if !ok {
			return ErrNotFound
		}
		vErr := &ValidationError{}
		if row.OwnerID == "" {
			vErr.add("ownerId", "required")
		} else if !governance.IsAttendee(meeting, row.OwnerID) {
			vErr.add("ownerId", "must be an attendee")
		}
		if vErr.HasErrors() {
			return vErr
		}

		title := strings.TrimSpace(row.Resolution)
		if title == "" {
			title = directiveTitle
		}
		now := s.now()
		created := governance.Task{
			ID:           s.idGenerator(),
			Title:        title,
			Description:  row.Discussion,
			AssignedToID: row.OwnerID,
			AssignedByID: actor.ID,
			DueDate:      row.Deadline,
			Priority:     governance.PriorityQ2,
			Status:       governance.StatusPendingApproval,
			CreatedAt:    governance.FormatTimestamp(now),
			Recurrence:   governance.RecurrenceNone,
			MeetingID:    meeting.ID,
		}
		st.Tasks = append(st.Tasks, created)
		notify(st, s.idGenerator(), now, created.AssignedToID, governance.NotificationTask,
			"Directive issued", fmt.Sprintf("%q was assigned to you from %q.", created.Title, meeting.Title))
		task = created
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		task = governance.Task{}
	}
	return
}

// Approve accepts a task awaiting approval.
func (s *TaskService) Approve(ctx context.Context, params TransitionTaskParams) (governance.Task, error) {
	return s.transition(ctx, "Approve", params, governance.StatusApproved)
}

// Reject declines a task awaiting approval. A reason is required.
func (s *TaskService) Reject(ctx context.Context, params TransitionTaskParams) (governance.Task, error) {
	return s.transition(ctx, "Reject", params, governance.StatusRejected)
}

// Start moves an approved task into progress.
func (s *TaskService) Start(ctx context.Context, params TransitionTaskParams) (governance.Task, error) {
	return s.transition(ctx, "Start", params, governance.StatusInProgress)
}

// Complete closes a task in progress with an optional message and attachments.
func (s *TaskService) Complete(ctx context.Context, params TransitionTaskParams) (governance.Task, error) {
	return s.transition(ctx, "Complete", params, governance.StatusCompleted)
}

func (s *TaskService) transition(ctx context.Context, operation string, params TransitionTaskParams, to governance.TaskStatus) (task governance.Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation, "user_id", params.Principal.UserID, "task_id", params.TaskID, "to", to)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update task status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task status updated")
	}()

	keys := []governance.Key{governance.KeyTasks, governance.KeyAuditLogs, governance.KeyNotifications}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, params.Principal)
		if aErr != nil {
			return aErr
		}
		idx := st.TaskIndex(params.TaskID)
		if idx < 0 {
			return ErrNotFound
		}
		current := st.Tasks[idx]
		if !governance.CanPerform(governance.ActTransitionTask, actor, current) {
			return fmt.Errorf("%w: %w", ErrUnauthorized, governance.ErrNotAssignee)
		}

		next, tErr := governance.Transition(current, actor.ID, to, governance.TransitionDetails{
			Reason:      params.Reason,
			Message:     params.Message,
			Attachments: params.Attachments,
		})
		if tErr != nil {
			return tErr
		}
		st.Tasks[idx] = next

		now := s.now()
		appendAudit(st, s.idGenerator(), now, actor, governance.ActionTaskStatusUpdate,
			fmt.Sprintf("Status updated for task to %s", to))
		if next.AssignedByID != actor.ID {
			notify(st, s.idGenerator(), now, next.AssignedByID, governance.NotificationTask,
				"Task updated", fmt.Sprintf("%q is now %s.", next.Title, to))
		}
		task = governance.CloneTask(next)
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistence) {
		task = governance.Task{}
	}
	return
}

// Delete removes a rejected or completed task.
func (s *TaskService) Delete(ctx context.Context, principal Principal, taskID string) (err error) {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "user_id", principal.UserID, "task_id", taskID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task deleted")
	}()

	keys := []governance.Key{governance.KeyTasks, governance.KeyAuditLogs}
	err = s.store.Mutate(ctx, keys, func(st *governance.State) error {
		actor, aErr := actorFor(*st, principal)
		if aErr != nil {
			return aErr
		}
		idx := st.TaskIndex(taskID)
		if idx < 0 {
			return ErrNotFound
		}
		target := st.Tasks[idx]
		if !governance.CanPerform(governance.ActDeleteTask, actor, target) {
			if !governance.IsTerminal(target.Status) {
				return fmt.Errorf("%w: task is %s", governance.ErrInvalidTransition, target.Status)
			}
			return ErrUnauthorized
		}
		st.Tasks = append(st.Tasks[:idx], st.Tasks[idx+1:]...)
		appendAudit(st, s.idGenerator(), s.now(), actor, governance.ActionTaskDeleted, "Purged task record.")
		return nil
	})
	return
}

// List returns the tasks visible to the caller narrowed by the optional filters.
func (s *TaskService) List(ctx context.Context, params ListTasksParams) ([]governance.Task, error) {
	if s == nil {
		return nil, fmt.Errorf("TaskService is nil")
	}
	state := s.store.Snapshot()
	actor, err := actorFor(state, params.Principal)
	if err != nil {
		return nil, err
	}

	visible := governance.VisibleTasks(state.Tasks, actor, state.Users)
	out := visible[:0]
	for _, t := range visible {
		if params.Priority != "" && t.Priority != params.Priority {
			continue
		}
		if params.Status != "" && t.Status != params.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Board groups the visible tasks into status columns in display order.
func (s *TaskService) Board(ctx context.Context, principal Principal) ([]BoardColumn, error) {
	tasks, err := s.List(ctx, ListTasksParams{Principal: principal})
	if err != nil {
		return nil, err
	}
	statuses := governance.BoardStatuses()
	columns := make([]BoardColumn, len(statuses))
	index := make(map[governance.TaskStatus]int, len(statuses))
	for i, status := range statuses {
		columns[i] = BoardColumn{Status: status, Tasks: []governance.Task{}}
		index[status] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}
	return columns, nil
}
