package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGateNotSatisfiedError_Remaining(t *testing.T) {
	tests := []struct {
		name     string
		required int
		actual   int
		want     int
	}{
		{name: "below threshold", required: 70, actual: 55, want: 15},
		{name: "at threshold", required: 70, actual: 70, want: 0},
		{name: "above threshold", required: 70, actual: 90, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &GateNotSatisfiedError{Stage: "foundation", Required: tt.required, Actual: tt.actual}
			if got := err.Remaining(); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGateNotSatisfiedError_Message(t *testing.T) {
	err := &GateNotSatisfiedError{
		Stage:     "foundation",
		Condition: ConditionAlignmentBelowThreshold,
		Required:  70,
		Actual:    60,
	}
	want := "cannot leave stage foundation: alignment 60% is below the required 70% (10% more needed)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsUserActionable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "validation", err: &ValidationError{Field: "position", Value: 11, Reason: "must be between 1 and 10"}, want: true},
		{name: "wrapped gate", err: fmt.Errorf("failed to advance: %w", &GateNotSatisfiedError{Stage: "foundation"}), want: true},
		{name: "unknown pathway", err: &UnknownPathwayError{PathwayID: "nope"}, want: true},
		{name: "conflict", err: &ConcurrencyConflictError{SessionID: "s", Expected: 1, Actual: 2}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserActionable(tt.err); got != tt.want {
				t.Errorf("IsUserActionable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "weight", Value: 12, Reason: "must be between 0 and 10"}
	want := "invalid weight 12: must be between 0 and 10"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
