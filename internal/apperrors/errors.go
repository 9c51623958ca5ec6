// Package apperrors defines the error taxonomy shared by the negotiation core,
// the application services and the adapters. Callers inspect errors with
// errors.As / errors.Is; services only ever wrap them.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session or clause does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAdviceUnavailable marks a failed or timed-out advice request.
	// It is never fatal for the surrounding operation.
	ErrAdviceUnavailable = errors.New("advice unavailable")
)

// ValidationError reports a user-actionable invalid input: a position or
// weight out of range, an exceeded priority budget, a bad identifier.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Gate conditions reported by GateNotSatisfiedError.
const (
	ConditionAlignmentBelowThreshold = "alignment_below_threshold"
	ConditionStageIncomplete         = "stage_incomplete"
)

// GateNotSatisfiedError is returned when a stage advance is attempted before
// the stage's exit conditions hold.
type GateNotSatisfiedError struct {
	Stage     string
	Condition string
	Required  int
	Actual    int
}

// Remaining returns how far Actual is from Required (never negative).
func (e *GateNotSatisfiedError) Remaining() int {
	if e.Actual >= e.Required {
		return 0
	}
	return e.Required - e.Actual
}

func (e *GateNotSatisfiedError) Error() string {
	switch e.Condition {
	case ConditionAlignmentBelowThreshold:
		return fmt.Sprintf("cannot leave stage %s: alignment %d%% is below the required %d%% (%d%% more needed)",
			e.Stage, e.Actual, e.Required, e.Remaining())
	case ConditionStageIncomplete:
		return fmt.Sprintf("cannot leave stage %s: stage is not completed", e.Stage)
	default:
		return fmt.Sprintf("cannot leave stage %s: %s", e.Stage, e.Condition)
	}
}

// UnknownPathwayError reports a pathway id missing from the catalogue.
type UnknownPathwayError struct {
	PathwayID string
}

func (e *UnknownPathwayError) Error() string {
	return fmt.Sprintf("unknown pathway %q", e.PathwayID)
}

// UnknownStageError reports a stage id that does not belong to a pathway.
type UnknownStageError struct {
	PathwayID string
	Stage     string
}

func (e *UnknownStageError) Error() string {
	if e.PathwayID == "" {
		return fmt.Sprintf("unknown stage %q", e.Stage)
	}
	return fmt.Sprintf("unknown stage %q in pathway %q", e.Stage, e.PathwayID)
}

// ConcurrencyConflictError is returned when a write carries a stale revision.
// The caller must re-fetch the session and retry.
type ConcurrencyConflictError struct {
	SessionID string
	Expected  int64
	Actual    int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("session %s was modified concurrently (expected revision %d, found %d)",
		e.SessionID, e.Expected, e.Actual)
}

// IsUserActionable reports whether err is a validation, gate or unknown
// pathway/stage failure that should be shown to the user verbatim.
func IsUserActionable(err error) bool {
	var v *ValidationError
	var g *GateNotSatisfiedError
	var p *UnknownPathwayError
	var s *UnknownStageError
	return errors.As(err, &v) || errors.As(err, &g) || errors.As(err, &p) || errors.As(err, &s)
}
