package negotiation

import "time"

// Status represents the lifecycle of a session.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a stored status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return Status(raw), true
	default:
		return "", false
	}
}

// StatusTransitionResult contains the result of a status transition.
// This is a value object that captures both the new status and any
// side effects (like setting CompletedAt timestamp).
type StatusTransitionResult struct {
	NewStatus   Status
	CompletedAt *time.Time // Set when transitioning to completed status
}

// ApplyStatusTransition applies a status transition and returns the result.
// When status becomes "completed", CompletedAt is set to now.
func ApplyStatusTransition(newStatus Status, now time.Time) StatusTransitionResult {
	result := StatusTransitionResult{
		NewStatus: newStatus,
	}

	if newStatus == StatusCompleted {
		result.CompletedAt = &now
	}

	return result
}

// InitialStatus returns the initial status for a new session.
func InitialStatus() Status {
	return StatusDraft
}

// StatusAfterMutation returns the status a session moves to when any
// operation changes it: drafts become in-progress, others are unchanged.
func StatusAfterMutation(current Status) Status {
	if current == StatusDraft {
		return StatusInProgress
	}
	return current
}
