// Package pathway contains the pure business logic for negotiation pathways.
// A pathway is an ordered list of stages plus the stages it bypasses; the
// catalogue holding every pathway is static configuration.
package pathway

import (
	"fmt"
	"slices"

	"github.com/example/clarence/internal/apperrors"
)

// StageDefinition declares one stage and its exit rules.
type StageDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// MinAlignment is the overall alignment percentage required to leave
	// the stage. Zero means the stage is not alignment-gated.
	MinAlignment        int  `json:"min_alignment,omitempty" yaml:"min_alignment,omitempty"`
	RequiresValidBudget bool `json:"requires_valid_budget,omitempty" yaml:"requires_valid_budget,omitempty"`
}

// Definition declares a pathway: its stage order and the stages it skips.
type Definition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Stages      []string `json:"stages" yaml:"stages"`
	Skip        []string `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// TransitionDefinition declares an interstitial shown between two stages.
type TransitionDefinition struct {
	ID       string   `json:"id" yaml:"id"`
	From     string   `json:"from" yaml:"from"`
	To       string   `json:"to" yaml:"to"`
	Title    string   `json:"title" yaml:"title"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	ShowOnce bool     `json:"show_once,omitempty" yaml:"show_once,omitempty"`
	Pathways []string `json:"pathways,omitempty" yaml:"pathways,omitempty"` // empty: every pathway
}

// AppliesTo reports whether the transition is attached to the pathway.
func (t TransitionDefinition) AppliesTo(pathwayID string) bool {
	return len(t.Pathways) == 0 || slices.Contains(t.Pathways, pathwayID)
}

// Catalogue is the full static pathway configuration.
type Catalogue struct {
	Stages      []StageDefinition      `json:"stages" yaml:"stages"`
	Pathways    []Definition           `json:"pathways" yaml:"pathways"`
	Transitions []TransitionDefinition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Pathway returns the definition for id.
func (c Catalogue) Pathway(id string) (Definition, error) {
	for _, p := range c.Pathways {
		if p.ID == id {
			return p, nil
		}
	}
	return Definition{}, &apperrors.UnknownPathwayError{PathwayID: id}
}

// Stage returns the stage definition for id.
func (c Catalogue) Stage(id string) (StageDefinition, error) {
	for _, s := range c.Stages {
		if s.ID == id {
			return s, nil
		}
	}
	return StageDefinition{}, &apperrors.UnknownStageError{Stage: id}
}

// Transition returns the transition definition for id.
func (c Catalogue) Transition(id string) (TransitionDefinition, bool) {
	for _, t := range c.Transitions {
		if t.ID == id {
			return t, true
		}
	}
	return TransitionDefinition{}, false
}

// Validate checks that every reference in the catalogue resolves.
func (c Catalogue) Validate() error {
	if len(c.Pathways) == 0 {
		return fmt.Errorf("pathway catalogue: at least one pathway is required")
	}

	stages := map[string]struct{}{}
	for idx, s := range c.Stages {
		if s.ID == "" {
			return fmt.Errorf("pathway catalogue: stage[%d]: id is required", idx)
		}
		if _, dup := stages[s.ID]; dup {
			return fmt.Errorf("pathway catalogue: duplicate stage %s", s.ID)
		}
		if s.MinAlignment < 0 || s.MinAlignment > 100 {
			return fmt.Errorf("pathway catalogue: stage %s: min_alignment must be between 0 and 100", s.ID)
		}
		stages[s.ID] = struct{}{}
	}

	pathways := map[string]struct{}{}
	for idx, p := range c.Pathways {
		if p.ID == "" {
			return fmt.Errorf("pathway catalogue: pathway[%d]: id is required", idx)
		}
		if _, dup := pathways[p.ID]; dup {
			return fmt.Errorf("pathway catalogue: duplicate pathway %s", p.ID)
		}
		pathways[p.ID] = struct{}{}
		if err := validateDefinition(p, stages); err != nil {
			return err
		}
	}

	transitions := map[string]struct{}{}
	for idx, t := range c.Transitions {
		if t.ID == "" {
			return fmt.Errorf("pathway catalogue: transition[%d]: id is required", idx)
		}
		if _, dup := transitions[t.ID]; dup {
			return fmt.Errorf("pathway catalogue: duplicate transition %s", t.ID)
		}
		transitions[t.ID] = struct{}{}
		if _, ok := stages[t.From]; !ok {
			return fmt.Errorf("pathway catalogue: transition %s references unknown stage %s", t.ID, t.From)
		}
		if _, ok := stages[t.To]; !ok {
			return fmt.Errorf("pathway catalogue: transition %s references unknown stage %s", t.ID, t.To)
		}
		for _, pid := range t.Pathways {
			if _, ok := pathways[pid]; !ok {
				return fmt.Errorf("pathway catalogue: transition %s references unknown pathway %s", t.ID, pid)
			}
		}
	}
	return nil
}

func validateDefinition(p Definition, stages map[string]struct{}) error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pathway catalogue: pathway %s: at least one stage is required", p.ID)
	}
	seen := map[string]struct{}{}
	for _, s := range p.Stages {
		if _, ok := stages[s]; !ok {
			return fmt.Errorf("pathway catalogue: pathway %s references unknown stage %s", p.ID, s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("pathway catalogue: pathway %s lists stage %s twice", p.ID, s)
		}
		seen[s] = struct{}{}
	}
	for _, s := range p.Skip {
		if _, ok := seen[s]; !ok {
			return fmt.Errorf("pathway catalogue: pathway %s skips stage %s which is not in its sequence", p.ID, s)
		}
	}
	if len(p.Reachable()) == 0 {
		return fmt.Errorf("pathway catalogue: pathway %s skips every stage", p.ID)
	}
	return nil
}

// Reachable returns the stages the pathway actually visits, in order.
func (p Definition) Reachable() []string {
	out := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		if !slices.Contains(p.Skip, s) {
			out = append(out, s)
		}
	}
	return out
}
