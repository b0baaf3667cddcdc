package governance

import "errors"

var (
	// ErrInvalidTransition is returned when a task status change is not part of the workflow.
	ErrInvalidTransition = errors.New("governance: invalid task transition")
	// ErrNotAssignee is returned when someone other than the assignee moves a task.
	ErrNotAssignee = errors.New("governance: only the assignee may change task status")
	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("governance: rejection reason is required")

	ErrNotAttendee      = errors.New("governance: user is not an attendee")
	ErrAlreadySigned    = errors.New("governance: user has already signed")
	ErrMeetingFinalized = errors.New("governance: meeting is finalized")
	// ErrMeetingLocked is returned when the acting user may no longer edit a meeting.
	ErrMeetingLocked = errors.New("governance: meeting is locked for user")
)

// IsPreconditionError reports whether err is a lifecycle precondition violation.
func IsPreconditionError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotAssignee),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrNotAttendee),
		errors.Is(err, ErrAlreadySigned),
		errors.Is(err, ErrMeetingFinalized),
		errors.Is(err, ErrMeetingLocked):
		return true
	default:
		return false
	}
}
