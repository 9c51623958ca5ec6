package negotiation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/core/leverage"
	"github.com/example/clarence/internal/core/party"
	"github.com/example/clarence/internal/core/pathway"
	"github.com/example/clarence/internal/core/priority"
)

// ErrStaleAdvice is returned when advice was computed for a position pair
// the clause no longer holds.
var ErrStaleAdvice = errors.New("advice refers to outdated positions")

// errNoChange lets a command report an idempotent no-op.
var errNoChange = errors.New("no change")

// Env is the static context commands run against.
type Env struct {
	Catalogue pathway.Catalogue
	Now       time.Time
}

// Outcome is the result of executing a command.
type Outcome struct {
	Snapshot Snapshot
	Effects  []effects.Effect
	// Unchanged is set when the command was an idempotent no-op.
	Unchanged bool
	// Transition is the interstitial to show after an advance, if any.
	Transition *pathway.TransitionDefinition
}

// Command is a single state transition of a session.
type Command interface {
	Name() string
	apply(env Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error)
}

// Execute applies cmd to a copy of s. On error the returned outcome carries
// the untouched snapshot.
func Execute(env Env, s Snapshot, cmd Command) (Outcome, error) {
	if _, archive := cmd.(Archive); s.Session.Archived && !archive {
		return Outcome{Snapshot: s}, &apperrors.ValidationError{
			Field:  "session",
			Value:  s.Session.Reference,
			Reason: "is archived",
		}
	}

	next := s.Clone()
	effs, transition, err := cmd.apply(env, &next)
	if errors.Is(err, errNoChange) {
		return Outcome{Snapshot: s, Unchanged: true}, nil
	}
	if err != nil {
		return Outcome{Snapshot: s}, err
	}

	next.Session.Status = StatusAfterMutation(next.Session.Status)
	next.Session.CurrentStage = next.Pathway.Current
	next.Session.UpdatedAt = env.Now
	return Outcome{Snapshot: next, Effects: effs, Transition: transition}, nil
}

// NewSessionParams holds the inputs for creating a session.
type NewSessionParams struct {
	ID                string
	Reference         string
	RequestingCompany string
	FulfillingCompany string
	PathwayID         string
	Clauses           []AddClause
}

// NewSession builds the initial snapshot for a pathway.
func NewSession(env Env, p NewSessionParams) (Outcome, error) {
	if strings.TrimSpace(p.RequestingCompany) == "" {
		return Outcome{}, &apperrors.ValidationError{Field: "requesting company", Reason: "is required"}
	}
	if strings.TrimSpace(p.FulfillingCompany) == "" {
		return Outcome{}, &apperrors.ValidationError{Field: "fulfilling company", Reason: "is required"}
	}

	state, err := pathway.NewState(env.Catalogue, p.PathwayID)
	if err != nil {
		return Outcome{}, err
	}

	s := Snapshot{
		Session: Session{
			ID:                p.ID,
			Reference:         p.Reference,
			RequestingCompany: strings.TrimSpace(p.RequestingCompany),
			FulfillingCompany: strings.TrimSpace(p.FulfillingCompany),
			PathwayID:         state.PathwayID,
			CurrentStage:      state.Current,
			Status:            InitialStatus(),
			CreatedAt:         env.Now,
			UpdatedAt:         env.Now,
		},
		Pathway:    state,
		Clauses:    []alignment.Clause{},
		Requesting: priority.NewAllocation(),
		Fulfilling: priority.NewAllocation(),
	}

	for _, c := range p.Clauses {
		if _, _, err := c.apply(env, &s); err != nil {
			return Outcome{}, fmt.Errorf("seed clause %q: %w", c.Title, err)
		}
	}

	return Outcome{
		Snapshot: s,
		Effects: []effects.Effect{
			effects.AuditEffect{SessionID: s.Session.ID, Operation: "initialize", Target: s.Session.Reference, Field: "pathway", NewValue: state.PathwayID},
		},
	}, nil
}

// NextClauseID returns the next free clause id in s.
func NextClauseID(s Snapshot) string {
	maxNum := 0
	for _, c := range s.Clauses {
		if n := ParseClauseNumber(c.ID); n > maxNum {
			maxNum = n
		}
	}
	return GenerateClauseID(maxNum)
}

// AddClause appends a clause. Zero positions default to the midpoint and a
// zero priority defaults to 5.
type AddClause struct {
	ID                 string
	Title              string
	Description        string
	Priority           int
	RequestingPosition int
	FulfillingPosition int
}

func (AddClause) Name() string { return "add_clause" }

func (c AddClause) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	clause := alignment.Clause{
		ID:                 c.ID,
		Title:              strings.TrimSpace(c.Title),
		Description:        c.Description,
		Priority:           defaultInt(c.Priority, 5),
		RequestingPosition: defaultInt(c.RequestingPosition, 5),
		FulfillingPosition: defaultInt(c.FulfillingPosition, 5),
	}
	if clause.ID == "" {
		clause.ID = NextClauseID(*s)
	}

	tr := s.Tracker()
	if err := tr.Add(clause); err != nil {
		return nil, nil, err
	}
	s.Clauses = tr.Clauses()

	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: clause.ID, Field: "title", NewValue: clause.Title},
	}, nil, nil
}

// SetPosition records one party's position on a clause.
type SetPosition struct {
	ClauseID string
	Party    party.Party
	Value    int
}

func (SetPosition) Name() string { return "set_position" }

func (c SetPosition) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	tr := s.Tracker()
	before, err := tr.Get(c.ClauseID)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.SetPosition(c.ClauseID, c.Party, c.Value); err != nil {
		return nil, nil, err
	}
	after, _ := tr.Get(c.ClauseID)
	s.Clauses = tr.Clauses()

	effs := []effects.Effect{
		effects.AuditEffect{
			SessionID: s.Session.ID,
			Operation: c.Name(),
			Target:    c.ClauseID,
			Field:     string(c.Party) + "_position",
			OldValue:  strconv.Itoa(before.Position(c.Party)),
			NewValue:  strconv.Itoa(c.Value),
		},
	}
	if before.HasRecommendation() {
		effs = append(effs, effects.LogEffect{
			Level:   "debug",
			Message: "recommendation cleared after position change",
			Fields:  map[string]any{"clause_id": c.ClauseID},
		})
	}
	if before.Category != after.Category {
		effs = append(effs, effects.AuditEffect{
			SessionID: s.Session.ID,
			Operation: c.Name(),
			Target:    c.ClauseID,
			Field:     "category",
			OldValue:  string(before.Category),
			NewValue:  string(after.Category),
		})
	}
	return effs, nil, nil
}

// SetClausePriority changes a clause's priority.
type SetClausePriority struct {
	ClauseID string
	Value    int
}

func (SetClausePriority) Name() string { return "set_clause_priority" }

func (c SetClausePriority) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	tr := s.Tracker()
	before, err := tr.Get(c.ClauseID)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.SetPriority(c.ClauseID, c.Value); err != nil {
		return nil, nil, err
	}
	s.Clauses = tr.Clauses()
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: c.ClauseID, Field: "priority", OldValue: strconv.Itoa(before.Priority), NewValue: strconv.Itoa(c.Value)},
	}, nil, nil
}

// SetClauseNotes replaces a clause's notes.
type SetClauseNotes struct {
	ClauseID string
	Notes    string
}

func (SetClauseNotes) Name() string { return "set_clause_notes" }

func (c SetClauseNotes) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	tr := s.Tracker()
	before, err := tr.Get(c.ClauseID)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.SetNotes(c.ClauseID, c.Notes); err != nil {
		return nil, nil, err
	}
	s.Clauses = tr.Clauses()
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: c.ClauseID, Field: "notes", OldValue: before.Notes, NewValue: c.Notes},
	}, nil, nil
}

// SetPriorityWeight sets one dimension of a party's priority allocation.
// Going over budget is accepted and surfaced, not corrected.
type SetPriorityWeight struct {
	Party     party.Party
	Dimension priority.Dimension
	Value     int
}

func (SetPriorityWeight) Name() string { return "set_priority_weight" }

func (c SetPriorityWeight) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	var alloc *priority.Allocation
	switch c.Party {
	case party.Requesting:
		alloc = &s.Requesting
	case party.Fulfilling:
		alloc = &s.Fulfilling
	default:
		return nil, nil, &apperrors.ValidationError{Field: "party", Value: string(c.Party), Reason: "must be requesting or fulfilling"}
	}

	old := alloc.Weight(c.Dimension)
	if err := alloc.SetWeight(c.Dimension, c.Value); err != nil {
		return nil, nil, err
	}

	effs := []effects.Effect{
		effects.AuditEffect{
			SessionID: s.Session.ID,
			Operation: c.Name(),
			Target:    string(c.Party),
			Field:     string(c.Dimension),
			OldValue:  strconv.Itoa(old),
			NewValue:  strconv.Itoa(c.Value),
		},
	}
	if !alloc.IsValid() {
		effs = append(effs, effects.LogEffect{
			Level:   "warn",
			Message: "priority allocation over budget",
			Fields:  map[string]any{"party": string(c.Party), "remaining": alloc.RemainingBudget()},
		})
	}
	return effs, nil, nil
}

// SetLeverageFactors replaces the leverage intake answers.
type SetLeverageFactors struct {
	Factors leverage.Factors
}

func (SetLeverageFactors) Name() string { return "set_leverage_factors" }

func (c SetLeverageFactors) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	before := leverage.Compute(s.Factors)
	s.Factors = c.Factors
	after := leverage.Compute(s.Factors)
	return []effects.Effect{
		effects.AuditEffect{
			SessionID: s.Session.ID,
			Operation: c.Name(),
			Field:     "requesting_leverage",
			OldValue:  strconv.Itoa(before.Requesting),
			NewValue:  strconv.Itoa(after.Requesting),
		},
	}, nil, nil
}

// CompleteStage marks a pathway stage completed. Repeating it is a no-op.
type CompleteStage struct {
	Stage string
}

func (CompleteStage) Name() string { return "complete_stage" }

func (c CompleteStage) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	if s.Pathway.IsCompleted(c.Stage) {
		return nil, nil, errNoChange
	}
	next, err := pathway.CompleteStage(s.Pathway, c.Stage)
	if err != nil {
		return nil, nil, err
	}
	s.Pathway = next
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: c.Stage, Field: "completed", NewValue: "true"},
		effects.NotifyEffect{
			Kind:      effects.NotifyStageCompleted,
			SessionID: s.Session.ID,
			Reference: s.Session.Reference,
			Stage:     c.Stage,
			Message:   fmt.Sprintf("Stage %s completed for %s", c.Stage, s.Session.Reference),
		},
	}, nil, nil
}

// AdvanceStage moves the session to the next stage of its pathway.
type AdvanceStage struct{}

func (AdvanceStage) Name() string { return "advance_stage" }

func (c AdvanceStage) apply(env Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	from := s.Pathway.Current
	next, err := pathway.Advance(env.Catalogue, s.Pathway, s.GateInput())
	if err != nil {
		return nil, nil, err
	}
	s.Pathway = next

	if next.Finished {
		result := ApplyStatusTransition(StatusCompleted, env.Now)
		s.Session.Status = result.NewStatus
		s.Session.CompletedAt = result.CompletedAt
		return []effects.Effect{
			effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: from, Field: "status", NewValue: string(StatusCompleted)},
			effects.NotifyEffect{
				Kind:      effects.NotifySessionCompleted,
				SessionID: s.Session.ID,
				Reference: s.Session.Reference,
				Stage:     from,
				Message:   fmt.Sprintf("Negotiation %s completed", s.Session.Reference),
			},
		}, nil, nil
	}

	effs := []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: from, Field: "current_stage", OldValue: from, NewValue: next.Current},
		effects.NotifyEffect{
			Kind:      effects.NotifyStageAdvanced,
			SessionID: s.Session.ID,
			Reference: s.Session.Reference,
			Stage:     next.Current,
			Message:   fmt.Sprintf("Negotiation %s moved from %s to %s", s.Session.Reference, from, next.Current),
		},
	}

	var transition *pathway.TransitionDefinition
	if t, ok := pathway.TransitionBetween(env.Catalogue, s.Pathway.PathwayID, from, next.Current); ok {
		if pathway.ShouldShowTransition(env.Catalogue, s.Pathway, t.ID) {
			transition = &t
		}
	}
	return effs, transition, nil
}

// MarkTransitionSeen records that an interstitial was displayed.
type MarkTransitionSeen struct {
	TransitionID string
}

func (MarkTransitionSeen) Name() string { return "mark_transition_seen" }

func (c MarkTransitionSeen) apply(env Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	if _, ok := env.Catalogue.Transition(c.TransitionID); !ok {
		return nil, nil, &apperrors.ValidationError{Field: "transition", Value: c.TransitionID, Reason: "is not in the catalogue"}
	}
	next := pathway.MarkTransitionSeen(s.Pathway, c.TransitionID)
	if len(next.SeenTransitions) == len(s.Pathway.SeenTransitions) {
		return nil, nil, errNoChange
	}
	s.Pathway = next
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: c.TransitionID, Field: "seen", NewValue: "true"},
	}, nil, nil
}

// ApplyAdvice attaches advice to a clause. The positions the advice was
// computed for must still be the clause's positions.
type ApplyAdvice struct {
	ClauseID           string
	RequestingPosition int
	FulfillingPosition int
	Recommendation     string
	Compromise         *int
}

func (ApplyAdvice) Name() string { return "apply_advice" }

func (c ApplyAdvice) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	tr := s.Tracker()
	clause, err := tr.Get(c.ClauseID)
	if err != nil {
		return nil, nil, err
	}
	if clause.RequestingPosition != c.RequestingPosition || clause.FulfillingPosition != c.FulfillingPosition {
		return nil, nil, fmt.Errorf("clause %s: %w", c.ClauseID, ErrStaleAdvice)
	}
	if err := tr.SetRecommendation(c.ClauseID, c.Recommendation, c.Compromise); err != nil {
		return nil, nil, err
	}
	s.Clauses = tr.Clauses()

	compromise := ""
	if c.Compromise != nil {
		compromise = strconv.Itoa(*c.Compromise)
	}
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Target: c.ClauseID, Field: "suggested_compromise", NewValue: compromise},
	}, nil, nil
}

// Archive hides a session from active listings. Sessions are never deleted.
type Archive struct{}

func (Archive) Name() string { return "archive" }

func (c Archive) apply(_ Env, s *Snapshot) ([]effects.Effect, *pathway.TransitionDefinition, error) {
	if s.Session.Archived {
		return nil, nil, errNoChange
	}
	s.Session.Archived = true
	return []effects.Effect{
		effects.AuditEffect{SessionID: s.Session.ID, Operation: c.Name(), Field: "archived", OldValue: "false", NewValue: "true"},
	}, nil, nil
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
