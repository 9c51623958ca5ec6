package pathway

import (
	"fmt"

	"github.com/example/clarence/internal/apperrors"
)

// GuardResult represents the outcome of a guard evaluation.
// Err carries the typed error for callers that need to inspect the condition.
type GuardResult struct {
	Allowed bool
	Reason  string
	Err     error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("%s", r.Reason)
}

// AdvanceContext provides context for stage advance guards.
type AdvanceContext struct {
	Stage            StageDefinition
	StageCompleted   bool
	OverallAlignment int
	BudgetViolation  string
}

// CanAdvance evaluates whether the current stage may be left.
// Rules:
// - The stage must be completed
// - Alignment-gated stages need OverallAlignment >= MinAlignment
// - Budget-checked stages need both priority allocations within budget
func CanAdvance(ctx AdvanceContext) GuardResult {
	if !ctx.StageCompleted {
		err := &apperrors.GateNotSatisfiedError{
			Stage:     ctx.Stage.ID,
			Condition: apperrors.ConditionStageIncomplete,
		}
		return GuardResult{Allowed: false, Reason: err.Error(), Err: err}
	}

	if ctx.Stage.MinAlignment > 0 && ctx.OverallAlignment < ctx.Stage.MinAlignment {
		err := &apperrors.GateNotSatisfiedError{
			Stage:     ctx.Stage.ID,
			Condition: apperrors.ConditionAlignmentBelowThreshold,
			Required:  ctx.Stage.MinAlignment,
			Actual:    ctx.OverallAlignment,
		}
		return GuardResult{Allowed: false, Reason: err.Error(), Err: err}
	}

	if ctx.Stage.RequiresValidBudget && ctx.BudgetViolation != "" {
		err := &apperrors.ValidationError{Field: "priorities", Reason: ctx.BudgetViolation}
		return GuardResult{Allowed: false, Reason: err.Error(), Err: err}
	}

	return GuardResult{Allowed: true}
}
