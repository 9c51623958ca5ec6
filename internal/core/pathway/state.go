package pathway

import (
	"slices"

	"github.com/example/clarence/internal/apperrors"
)

// State is a session's position on its pathway.
// Invariants: Completed and Skipped are disjoint; Current is in Stages and
// never in Skipped.
type State struct {
	PathwayID       string   `json:"pathway_id"`
	Stages          []string `json:"stages"`
	Completed       []string `json:"completed"`
	Skipped         []string `json:"skipped"`
	Current         string   `json:"current"`
	SeenTransitions []string `json:"seen_transitions,omitempty"`
	// Finished is set once the final stage has been advanced out of.
	Finished bool `json:"finished,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Stages = slices.Clone(s.Stages)
	s.Completed = slices.Clone(s.Completed)
	s.Skipped = slices.Clone(s.Skipped)
	s.SeenTransitions = slices.Clone(s.SeenTransitions)
	return s
}

// IsCompleted reports whether stage has been completed.
func (s State) IsCompleted(stage string) bool {
	return slices.Contains(s.Completed, stage)
}

// IsSkipped reports whether the pathway bypasses stage.
func (s State) IsSkipped(stage string) bool {
	return slices.Contains(s.Skipped, stage)
}

// NewState returns the initial state for a pathway: the first stage that is
// not skipped, nothing completed, and the skip list copied from the catalogue.
func NewState(cat Catalogue, pathwayID string) (State, error) {
	def, err := cat.Pathway(pathwayID)
	if err != nil {
		return State{}, err
	}
	reachable := def.Reachable()
	if len(reachable) == 0 {
		return State{}, &apperrors.UnknownStageError{PathwayID: pathwayID, Stage: ""}
	}
	return State{
		PathwayID: def.ID,
		Stages:    slices.Clone(def.Stages),
		Completed: []string{},
		Skipped:   slices.Clone(def.Skip),
		Current:   reachable[0],
	}, nil
}

// CompleteStage marks stage completed. Completing an already-completed stage
// returns the state unchanged. The current stage does not move.
func CompleteStage(s State, stage string) (State, error) {
	if !slices.Contains(s.Stages, stage) {
		return s, &apperrors.UnknownStageError{PathwayID: s.PathwayID, Stage: stage}
	}
	if s.IsSkipped(stage) {
		return s, &apperrors.ValidationError{
			Field:  "stage",
			Value:  stage,
			Reason: "is skipped by pathway " + s.PathwayID,
		}
	}
	if s.IsCompleted(stage) {
		return s, nil
	}

	next := s.Clone()
	next.Completed = append(next.Completed, stage)
	// keep Completed in pathway order
	slices.SortStableFunc(next.Completed, func(a, b string) int {
		return slices.Index(next.Stages, a) - slices.Index(next.Stages, b)
	})
	return next, nil
}

// NextStage walks the session's stage sequence after its current stage,
// skipping the stages recorded as skipped when the session began. terminal
// is true when no stage follows.
func NextStage(s State) (next string, terminal bool, err error) {
	idx := slices.Index(s.Stages, s.Current)
	if idx < 0 {
		return "", false, &apperrors.UnknownStageError{PathwayID: s.PathwayID, Stage: s.Current}
	}
	for _, candidate := range s.Stages[idx+1:] {
		if s.IsSkipped(candidate) {
			continue
		}
		return candidate, false, nil
	}
	return "", true, nil
}

// GateInput carries the derived session values stage gates depend on.
type GateInput struct {
	OverallAlignment int
	// BudgetViolation is empty when both priority allocations fit the budget.
	BudgetViolation string
}

// Advance moves the state to the next stage once the current stage's exit
// rules hold. Stage order and skips come from the state, not the catalogue;
// the catalogue only supplies the current stage's gates. From the final
// stage it marks the state Finished and leaves Current in place.
func Advance(cat Catalogue, s State, gate GateInput) (State, error) {
	if s.Finished {
		return s, &apperrors.ValidationError{Field: "pathway", Value: s.PathwayID, Reason: "is already finished"}
	}
	stage, err := cat.Stage(s.Current)
	if err != nil {
		return s, &apperrors.UnknownStageError{PathwayID: s.PathwayID, Stage: s.Current}
	}

	if err := CanAdvance(AdvanceContext{
		Stage:            stage,
		StageCompleted:   s.IsCompleted(s.Current),
		OverallAlignment: gate.OverallAlignment,
		BudgetViolation:  gate.BudgetViolation,
	}).Error(); err != nil {
		return s, err
	}

	next, terminal, err := NextStage(s)
	if err != nil {
		return s, err
	}

	out := s.Clone()
	if terminal {
		out.Finished = true
		return out, nil
	}
	out.Current = next
	return out, nil
}

// Progress returns completed and total counts over the reachable stages.
func Progress(s State) (completed, total int) {
	for _, stage := range s.Stages {
		if s.IsSkipped(stage) {
			continue
		}
		total++
		if s.IsCompleted(stage) {
			completed++
		}
	}
	return completed, total
}
