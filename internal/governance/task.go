package governance

import (
	"fmt"
	"strings"
	"time"
)

// TransitionDetails carries the optional payload of a status change.
type TransitionDetails struct {
	Reason      string
	Message     string
	Attachments []Attachment
}

var transitions = map[TaskStatus][]TaskStatus{
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusInProgress},
	StatusInProgress:      {StatusCompleted},
}

// CanTransition reports whether from→to is part of the workflow.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves task to status on behalf of actorID and returns the updated task.
// Rejections store the trimmed reason; completions merge message and attachments.
func Transition(task Task, actorID string, to TaskStatus, details TransitionDetails) (Task, error) {
	if task.AssignedToID == "" || task.AssignedToID != actorID {
		return task, ErrNotAssignee
	}
	if !CanTransition(task.Status, to) {
		return task, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, task.Status, to)
	}

	next := CloneTask(task)
	switch to {
	case StatusRejected:
		reason := strings.TrimSpace(details.Reason)
		if reason == "" {
			return task, ErrReasonRequired
		}
		next.RejectionReason = reason
	case StatusCompleted:
		next.CompletionMessage = details.Message
		if details.Attachments != nil {
			next.CompletionAttachments = cloneAttachments(details.Attachments)
		}
	}
	next.Status = to
	return next, nil
}

// IsTerminal reports whether no modeled transition leaves status.
func IsTerminal(status TaskStatus) bool {
	return status == StatusRejected || status == StatusCompleted
}

type Urgency string

const (
	UrgencyNormal  Urgency = "normal"
	UrgencyDueSoon Urgency = "due_soon"
	UrgencyOverdue Urgency = "overdue"
)

// TaskUrgency classifies a task by the whole days left until its due date.
// Completed tasks and tasks without a parseable due date are normal.
func TaskUrgency(task Task, today time.Time) Urgency {
	if task.Status == StatusCompleted {
		return UrgencyNormal
	}
	due, err := ParseTimestamp(task.DueDate)
	if err != nil {
		return UrgencyNormal
	}
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := due.Date()
	end := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 2:
		return UrgencyDueSoon
	default:
		return UrgencyNormal
	}
}

// CloneTask returns a deep copy of t.
func CloneTask(t Task) Task {
	out := t
	out.CompletionAttachments = cloneAttachments(t.CompletionAttachments)
	return out
}
