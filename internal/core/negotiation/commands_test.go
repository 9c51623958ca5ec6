package negotiation

import (
	"errors"
	"testing"
	"time"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/core/leverage"
	"github.com/example/clarence/internal/core/party"
	"github.com/example/clarence/internal/core/pathway"
	"github.com/example/clarence/internal/core/priority"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testEnv() Env {
	return Env{
		Now: testNow,
		Catalogue: pathway.Catalogue{
			Stages: []pathway.StageDefinition{
				{ID: "intake", Name: "Intake"},
				{ID: "priorities", Name: "Priorities", RequiresValidBudget: true},
				{ID: "foundation", Name: "Foundation", MinAlignment: 70},
				{ID: "contract", Name: "Contract"},
			},
			Pathways: []pathway.Definition{
				{ID: "full", Name: "Full", Stages: []string{"intake", "priorities", "foundation", "contract"}},
				{ID: "short", Name: "Short", Stages: []string{"intake", "priorities", "foundation", "contract"}, Skip: []string{"priorities", "foundation"}},
			},
			Transitions: []pathway.TransitionDefinition{
				{ID: "agreed", From: "foundation", To: "contract", Title: "Foundation agreed", ShowOnce: true},
			},
		},
	}
}

func newTestSnapshot(t *testing.T, pathwayID string, clauses ...AddClause) Snapshot {
	t.Helper()
	out, err := NewSession(testEnv(), NewSessionParams{
		ID:                "sess-1",
		Reference:         "NEG-0001",
		RequestingCompany: "Acme",
		FulfillingCompany: "Globex",
		PathwayID:         pathwayID,
		Clauses:           clauses,
	})
	if err != nil {
		t.Fatalf("NewSession() unexpected error: %v", err)
	}
	return out.Snapshot
}

func mustExecute(t *testing.T, s Snapshot, cmd Command) Outcome {
	t.Helper()
	out, err := Execute(testEnv(), s, cmd)
	if err != nil {
		t.Fatalf("Execute(%s) unexpected error: %v", cmd.Name(), err)
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := newTestSnapshot(t, "full", AddClause{Title: "Payment terms"}, AddClause{Title: "Liability", RequestingPosition: 2, FulfillingPosition: 9})

	if s.Session.Status != StatusDraft {
		t.Errorf("Status = %q, want %q", s.Session.Status, StatusDraft)
	}
	if s.Session.CurrentStage != "intake" {
		t.Errorf("CurrentStage = %q, want %q", s.Session.CurrentStage, "intake")
	}
	if len(s.Clauses) != 2 {
		t.Fatalf("len(Clauses) = %d, want 2", len(s.Clauses))
	}
	if s.Clauses[0].ID != "CL-001" || s.Clauses[1].ID != "CL-002" {
		t.Errorf("clause ids = %q, %q, want CL-001, CL-002", s.Clauses[0].ID, s.Clauses[1].ID)
	}
	if s.Clauses[0].Category != alignment.CategoryAligned {
		t.Errorf("default clause category = %q, want aligned", s.Clauses[0].Category)
	}
	if s.Clauses[1].Category != alignment.CategoryFar {
		t.Errorf("2 vs 9 category = %q, want far", s.Clauses[1].Category)
	}
	if s.Requesting.Total() != 0 || s.Fulfilling.Total() != 0 {
		t.Error("expected empty priority allocations")
	}
	if got := s.Leverage(); got != (leverage.Result{Requesting: 50, Fulfilling: 50}) {
		t.Errorf("Leverage() = %+v, want 50/50", got)
	}
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params NewSessionParams
	}{
		{name: "missing requesting company", params: NewSessionParams{FulfillingCompany: "B", PathwayID: "full"}},
		{name: "missing fulfilling company", params: NewSessionParams{RequestingCompany: "A", PathwayID: "full"}},
		{name: "unknown pathway", params: NewSessionParams{RequestingCompany: "A", FulfillingCompany: "B", PathwayID: "nope"}},
		{name: "invalid seeded clause", params: NewSessionParams{RequestingCompany: "A", FulfillingCompany: "B", PathwayID: "full", Clauses: []AddClause{{Title: "X", RequestingPosition: 11}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(testEnv(), tt.params); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestExecute_SetPositionClearsRecommendation(t *testing.T) {
	s := newTestSnapshot(t, "full", AddClause{Title: "Payment terms"})

	compromise := 5
	s = mustExecute(t, s, ApplyAdvice{ClauseID: "CL-001", RequestingPosition: 5, FulfillingPosition: 5, Recommendation: "hold", Compromise: &compromise}).Snapshot
	if !s.Clauses[0].HasRecommendation() {
		t.Fatal("expected recommendation after ApplyAdvice")
	}

	out := mustExecute(t, s, SetPosition{ClauseID: "CL-001", Party: party.Fulfilling, Value: 9})
	c := out.Snapshot.Clauses[0]

	if c.Category != alignment.CategoryFar {
		t.Errorf("Category = %q, want far", c.Category)
	}
	if c.HasRecommendation() || c.SuggestedCompromise != nil {
		t.Error("expected recommendation and compromise to be cleared")
	}
	if out.Snapshot.Session.Status != StatusInProgress {
		t.Errorf("Status = %q, want in_progress", out.Snapshot.Session.Status)
	}
	if !out.Snapshot.Session.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", out.Snapshot.Session.UpdatedAt, testNow)
	}

	var audits int
	for _, e := range out.Effects {
		if _, ok := e.(effects.AuditEffect); ok {
			audits++
		}
	}
	if audits != 2 {
		t.Errorf("audit effects = %d, want 2 (position and category)", audits)
	}

	// input snapshot is untouched
	if !s.Clauses[0].HasRecommendation() {
		t.Error("Execute mutated its input snapshot")
	}
}

func TestExecute_SetPositionOutOfRange(t *testing.T) {
	s := newTestSnapshot(t, "full", AddClause{Title: "Payment terms"})

	out, err := Execute(testEnv(), s, SetPosition{ClauseID: "CL-001", Party: party.Requesting, Value: 0})

	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if out.Snapshot.Clauses[0].RequestingPosition != 5 {
		t.Error("failed command changed the snapshot")
	}
	if out.Snapshot.Session.Status != StatusDraft {
		t.Errorf("Status = %q, want draft after failed command", out.Snapshot.Session.Status)
	}
}

func TestExecute_UnknownClause(t *testing.T) {
	s := newTestSnapshot(t, "full")

	_, err := Execute(testEnv(), s, SetClauseNotes{ClauseID: "CL-404", Notes: "x"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestExecute_ApplyAdviceStale(t *testing.T) {
	s := newTestSnapshot(t, "full", AddClause{Title: "Payment terms"})

	_, err := Execute(testEnv(), s, ApplyAdvice{ClauseID: "CL-001", RequestingPosition: 4, FulfillingPosition: 5, Recommendation: "late"})
	if !errors.Is(err, ErrStaleAdvice) {
		t.Errorf("error = %v, want ErrStaleAdvice", err)
	}
}

func TestExecute_PriorityOverBudgetAccepted(t *testing.T) {
	s := newTestSnapshot(t, "full")

	for _, d := range []priority.Dimension{priority.Cost, priority.Quality, priority.Speed} {
		s = mustExecute(t, s, SetPriorityWeight{Party: party.Requesting, Dimension: d, Value: 9}).Snapshot
	}

	if got := s.Requesting.Total(); got != 27 {
		t.Errorf("Total() = %d, want 27", got)
	}
	if s.Requesting.IsValid() {
		t.Error("expected allocation over budget to be invalid")
	}
	if got := s.Requesting.RemainingBudget(); got != -2 {
		t.Errorf("RemainingBudget() = %d, want -2", got)
	}
}

func TestExecute_AdvanceGates(t *testing.T) {
	env := testEnv()

	// intake -> priorities
	s := newTestSnapshot(t, "full", AddClause{Title: "A"}, AddClause{Title: "B"}, AddClause{Title: "C", RequestingPosition: 1, FulfillingPosition: 9})

	_, err := Execute(env, s, AdvanceStage{})
	var gerr *apperrors.GateNotSatisfiedError
	if !errors.As(err, &gerr) || gerr.Condition != apperrors.ConditionStageIncomplete {
		t.Fatalf("advance before completion error = %v, want stage_incomplete", err)
	}

	s = mustExecute(t, s, CompleteStage{Stage: "intake"}).Snapshot
	s = mustExecute(t, s, AdvanceStage{}).Snapshot
	if s.Session.CurrentStage != "priorities" {
		t.Fatalf("CurrentStage = %q, want priorities", s.Session.CurrentStage)
	}

	// budget gate
	s = mustExecute(t, s, SetPriorityWeight{Party: party.Fulfilling, Dimension: priority.Cost, Value: 10}).Snapshot
	s = mustExecute(t, s, SetPriorityWeight{Party: party.Fulfilling, Dimension: priority.Risk, Value: 10}).Snapshot
	s = mustExecute(t, s, SetPriorityWeight{Party: party.Fulfilling, Dimension: priority.Speed, Value: 10}).Snapshot
	s = mustExecute(t, s, CompleteStage{Stage: "priorities"}).Snapshot

	_, err = Execute(env, s, AdvanceStage{})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("advance over budget error = %v, want ValidationError", err)
	}

	s = mustExecute(t, s, SetPriorityWeight{Party: party.Fulfilling, Dimension: priority.Speed, Value: 5}).Snapshot
	s = mustExecute(t, s, AdvanceStage{}).Snapshot
	if s.Session.CurrentStage != "foundation" {
		t.Fatalf("CurrentStage = %q, want foundation", s.Session.CurrentStage)
	}

	// alignment gate: 2 of 3 clauses within the counted gap is 67%
	s = mustExecute(t, s, CompleteStage{Stage: "foundation"}).Snapshot
	_, err = Execute(env, s, AdvanceStage{})
	if !errors.As(err, &gerr) || gerr.Condition != apperrors.ConditionAlignmentBelowThreshold {
		t.Fatalf("advance below threshold error = %v, want alignment_below_threshold", err)
	}
	if gerr.Required != 70 || gerr.Actual != 67 {
		t.Errorf("gate = %d/%d, want 67/70", gerr.Actual, gerr.Required)
	}

	s = mustExecute(t, s, SetPosition{ClauseID: "CL-003", Party: party.Fulfilling, Value: 3}).Snapshot
	out := mustExecute(t, s, AdvanceStage{})
	if out.Snapshot.Session.CurrentStage != "contract" {
		t.Fatalf("CurrentStage = %q, want contract", out.Snapshot.Session.CurrentStage)
	}
	if out.Transition == nil || out.Transition.ID != "agreed" {
		t.Errorf("Transition = %+v, want agreed", out.Transition)
	}
}

func TestExecute_AdvanceFromFinalStageCompletes(t *testing.T) {
	s := newTestSnapshot(t, "short")
	s = mustExecute(t, s, CompleteStage{Stage: "intake"}).Snapshot
	s = mustExecute(t, s, AdvanceStage{}).Snapshot
	if s.Session.CurrentStage != "contract" {
		t.Fatalf("CurrentStage = %q, want contract (skipped stages bypassed)", s.Session.CurrentStage)
	}

	s = mustExecute(t, s, CompleteStage{Stage: "contract"}).Snapshot
	out := mustExecute(t, s, AdvanceStage{})

	if out.Snapshot.Session.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", out.Snapshot.Session.Status)
	}
	if out.Snapshot.Session.CompletedAt == nil || !out.Snapshot.Session.CompletedAt.Equal(testNow) {
		t.Errorf("CompletedAt = %v, want %v", out.Snapshot.Session.CompletedAt, testNow)
	}
	if !out.Snapshot.Pathway.Finished {
		t.Error("expected pathway to be finished")
	}

	var notified bool
	for _, e := range out.Effects {
		if n, ok := e.(effects.NotifyEffect); ok && n.Kind == effects.NotifySessionCompleted {
			notified = true
		}
	}
	if !notified {
		t.Error("expected session completed notification")
	}

	if _, err := Execute(testEnv(), out.Snapshot, AdvanceStage{}); err == nil {
		t.Error("expected error advancing a finished pathway")
	}
}

func TestExecute_CompleteSkippedStage(t *testing.T) {
	s := newTestSnapshot(t, "short")

	_, err := Execute(testEnv(), s, CompleteStage{Stage: "foundation"})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestExecute_IdempotentCommands(t *testing.T) {
	s := newTestSnapshot(t, "full")
	s = mustExecute(t, s, CompleteStage{Stage: "intake"}).Snapshot

	out := mustExecute(t, s, CompleteStage{Stage: "intake"})
	if !out.Unchanged {
		t.Error("second CompleteStage should be a no-op")
	}
	if len(out.Effects) != 0 {
		t.Errorf("no-op produced %d effects", len(out.Effects))
	}

	s = mustExecute(t, s, MarkTransitionSeen{TransitionID: "agreed"}).Snapshot
	if out := mustExecute(t, s, MarkTransitionSeen{TransitionID: "agreed"}); !out.Unchanged {
		t.Error("second MarkTransitionSeen should be a no-op")
	}

	if _, err := Execute(testEnv(), s, MarkTransitionSeen{TransitionID: "nope"}); err == nil {
		t.Error("expected error for unknown transition")
	}
}

func TestExecute_Archive(t *testing.T) {
	s := newTestSnapshot(t, "full", AddClause{Title: "A"})
	s = mustExecute(t, s, Archive{}).Snapshot

	if !s.Session.Archived {
		t.Fatal("expected archived session")
	}
	if out := mustExecute(t, s, Archive{}); !out.Unchanged {
		t.Error("archiving twice should be a no-op")
	}

	_, err := Execute(testEnv(), s, SetPosition{ClauseID: "CL-001", Party: party.Requesting, Value: 3})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("mutating an archived session error = %v, want ValidationError", err)
	}
}

func TestExecute_SetLeverageFactors(t *testing.T) {
	s := newTestSnapshot(t, "full")

	out := mustExecute(t, s, SetLeverageFactors{Factors: leverage.Factors{Competitors: "many", Alternatives: "strong"}})

	if got := out.Snapshot.Leverage(); got.Requesting != 80 || got.Fulfilling != 20 {
		t.Errorf("Leverage() = %+v, want 80/20", got)
	}
}

func TestNextClauseID(t *testing.T) {
	s := Snapshot{Clauses: []alignment.Clause{{ID: "CL-004"}, {ID: "custom"}, {ID: "CL-002"}}}
	if got := NextClauseID(s); got != "CL-005" {
		t.Errorf("NextClauseID() = %q, want CL-005", got)
	}
}
