package app

import (
	"fmt"
	"time"

	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/leverage"
	"github.com/example/clarence/internal/core/negotiation"
	"github.com/example/clarence/internal/core/pathway"
	"github.com/example/clarence/internal/core/priority"
	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/ports/secondary"
)

const timeLayout = time.RFC3339

func recordToSnapshot(r *secondary.SessionRecord) (negotiation.Snapshot, error) {
	status, ok := negotiation.ParseStatus(r.Status)
	if !ok {
		return negotiation.Snapshot{}, fmt.Errorf("session %s has unknown status %q", r.ID, r.Status)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return negotiation.Snapshot{}, fmt.Errorf("session %s created_at: %w", r.ID, err)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return negotiation.Snapshot{}, fmt.Errorf("session %s updated_at: %w", r.ID, err)
	}
	var completedAt *time.Time
	if r.CompletedAt != "" {
		t, err := parseTime(r.CompletedAt)
		if err != nil {
			return negotiation.Snapshot{}, fmt.Errorf("session %s completed_at: %w", r.ID, err)
		}
		completedAt = &t
	}

	clauses := make([]alignment.Clause, 0, len(r.Clauses))
	for _, c := range r.Clauses {
		clauses = append(clauses, alignment.Clause{
			ID:                  c.ID,
			Title:               c.Title,
			Description:         c.Description,
			RequestingPosition:  c.RequestingPosition,
			FulfillingPosition:  c.FulfillingPosition,
			Priority:            c.Priority,
			Notes:               c.Notes,
			Recommendation:      c.Recommendation,
			SuggestedCompromise: c.SuggestedCompromise,
		})
	}

	return negotiation.Snapshot{
		Session: negotiation.Session{
			ID:                r.ID,
			Reference:         r.Reference,
			RequestingCompany: r.RequestingCompany,
			FulfillingCompany: r.FulfillingCompany,
			PathwayID:         r.PathwayID,
			CurrentStage:      r.CurrentStage,
			Status:            status,
			Archived:          r.Archived,
			Revision:          r.Revision,
			CreatedAt:         created,
			UpdatedAt:         updated,
			CompletedAt:       completedAt,
		},
		Pathway: pathway.State{
			PathwayID:       r.PathwayID,
			Stages:          r.Stages,
			Completed:       r.CompletedStages,
			Skipped:         r.SkippedStages,
			Current:         r.CurrentStage,
			SeenTransitions: r.SeenTransitions,
			Finished:        r.PathwayFinished,
		},
		// NewTracker recomputes categories from positions.
		Clauses:    alignment.NewTracker(clauses).Clauses(),
		Requesting: priority.AllocationFrom(toDimensionMap(r.RequestingWeights)),
		Fulfilling: priority.AllocationFrom(toDimensionMap(r.FulfillingWeights)),
		Factors:    factorsFromMap(r.LeverageFactors),
	}, nil
}

func snapshotToRecord(s negotiation.Snapshot) *secondary.SessionRecord {
	clauses := make([]*secondary.ClauseRecord, 0, len(s.Clauses))
	for i, c := range s.Clauses {
		clauses = append(clauses, &secondary.ClauseRecord{
			ID:                  c.ID,
			Position:            i,
			Title:               c.Title,
			Description:         c.Description,
			RequestingPosition:  c.RequestingPosition,
			FulfillingPosition:  c.FulfillingPosition,
			Priority:            c.Priority,
			Notes:               c.Notes,
			Recommendation:      c.Recommendation,
			SuggestedCompromise: c.SuggestedCompromise,
		})
	}

	rec := &secondary.SessionRecord{
		ID:                s.Session.ID,
		Reference:         s.Session.Reference,
		RequestingCompany: s.Session.RequestingCompany,
		FulfillingCompany: s.Session.FulfillingCompany,
		PathwayID:         s.Pathway.PathwayID,
		CurrentStage:      s.Pathway.Current,
		Status:            string(s.Session.Status),
		Archived:          s.Session.Archived,
		Revision:          s.Session.Revision,
		Stages:            s.Pathway.Stages,
		CompletedStages:   s.Pathway.Completed,
		SkippedStages:     s.Pathway.Skipped,
		SeenTransitions:   s.Pathway.SeenTransitions,
		PathwayFinished:   s.Pathway.Finished,
		LeverageFactors:   factorsToMap(s.Factors),
		Clauses:           clauses,
		RequestingWeights: fromDimensionMap(s.Requesting.Weights()),
		FulfillingWeights: fromDimensionMap(s.Fulfilling.Weights()),
		CreatedAt:         formatTime(s.Session.CreatedAt),
		UpdatedAt:         formatTime(s.Session.UpdatedAt),
	}
	if s.Session.CompletedAt != nil {
		rec.CompletedAt = formatTime(*s.Session.CompletedAt)
	}
	return rec
}

func (s *NegotiationServiceImpl) snapshotToSession(snap negotiation.Snapshot) *primary.Session {
	clauses := make([]*primary.Clause, 0, len(snap.Clauses))
	for _, c := range snap.Clauses {
		clauses = append(clauses, clauseToPrimary(c))
	}

	out := &primary.Session{
		ID:                snap.Session.ID,
		Reference:         snap.Session.Reference,
		RequestingCompany: snap.Session.RequestingCompany,
		FulfillingCompany: snap.Session.FulfillingCompany,
		Status:            string(snap.Session.Status),
		Archived:          snap.Session.Archived,
		Revision:          snap.Session.Revision,
		OverallAlignment:  snap.OverallAlignment(),
		Pathway:           s.pathwayProgress(snap.Pathway),
		Clauses:           clauses,
		Requesting:        allocationToPrimary(snap.Requesting),
		Fulfilling:        allocationToPrimary(snap.Fulfilling),
		Leverage:          *leverageToPrimary(snap.Factors),
		CreatedAt:         formatTime(snap.Session.CreatedAt),
		UpdatedAt:         formatTime(snap.Session.UpdatedAt),
	}
	if snap.Session.CompletedAt != nil {
		out.CompletedAt = formatTime(*snap.Session.CompletedAt)
	}
	return out
}

func (s *NegotiationServiceImpl) pathwayProgress(st pathway.State) primary.PathwayProgress {
	completed, total := pathway.Progress(st)
	out := primary.PathwayProgress{
		PathwayID:      st.PathwayID,
		PathwayName:    st.PathwayID,
		CurrentStage:   st.Current,
		CompletedCount: completed,
		TotalCount:     total,
		Finished:       st.Finished,
	}
	if def, err := s.catalogue.Pathway(st.PathwayID); err == nil {
		out.PathwayName = def.Name
	}
	for _, id := range st.Stages {
		stage := primary.StageStatus{
			ID:        id,
			Name:      id,
			Completed: st.IsCompleted(id),
			Skipped:   st.IsSkipped(id),
			Current:   id == st.Current && !st.Finished,
		}
		if def, err := s.catalogue.Stage(id); err == nil {
			stage.Name = def.Name
			stage.MinAlignment = def.MinAlignment
			stage.RequiresValidBudget = def.RequiresValidBudget
		}
		out.Stages = append(out.Stages, stage)
	}
	return out
}

func recordToSummary(r *secondary.SessionRecord) *primary.SessionSummary {
	return &primary.SessionSummary{
		ID:                r.ID,
		Reference:         r.Reference,
		RequestingCompany: r.RequestingCompany,
		FulfillingCompany: r.FulfillingCompany,
		PathwayID:         r.PathwayID,
		CurrentStage:      r.CurrentStage,
		Status:            r.Status,
		Archived:          r.Archived,
		UpdatedAt:         r.UpdatedAt,
	}
}

func clauseToPrimary(c alignment.Clause) *primary.Clause {
	return &primary.Clause{
		ID:                  c.ID,
		Title:               c.Title,
		Description:         c.Description,
		RequestingPosition:  c.RequestingPosition,
		FulfillingPosition:  c.FulfillingPosition,
		Gap:                 c.Gap(),
		Priority:            c.Priority,
		Category:            string(c.Category),
		Notes:               c.Notes,
		Recommendation:      c.Recommendation,
		SuggestedCompromise: c.SuggestedCompromise,
	}
}

func allocationToPrimary(a priority.Allocation) primary.PriorityAllocation {
	return primary.PriorityAllocation{
		Weights:   fromDimensionMap(a.Weights()),
		Total:     a.Total(),
		Remaining: a.RemainingBudget(),
		Valid:     a.IsValid(),
	}
}

func leverageToPrimary(f leverage.Factors) *primary.Leverage {
	res := leverage.Compute(f)
	out := &primary.Leverage{
		Requesting: res.Requesting,
		Fulfilling: res.Fulfilling,
		Factors:    factorsToPrimary(f),
	}
	for _, c := range leverage.Breakdown(f) {
		out.Breakdown = append(out.Breakdown, primary.LeverageContribution{
			Factor: c.Factor,
			Value:  c.Value,
			Delta:  c.Delta,
		})
	}
	return out
}

func factorsToPrimary(f leverage.Factors) primary.LeverageFactors {
	return primary.LeverageFactors{
		Competitors:    f.Competitors,
		Criticality:    f.Criticality,
		Alternatives:   f.Alternatives,
		Timeline:       f.Timeline,
		MarketPosition: f.MarketPosition,
		SwitchingCosts: f.SwitchingCosts,
	}
}

func factorsFromPrimary(f primary.LeverageFactors) leverage.Factors {
	return leverage.Factors{
		Competitors:    f.Competitors,
		Criticality:    f.Criticality,
		Alternatives:   f.Alternatives,
		Timeline:       f.Timeline,
		MarketPosition: f.MarketPosition,
		SwitchingCosts: f.SwitchingCosts,
	}
}

func factorsToMap(f leverage.Factors) map[string]string {
	m := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set(leverage.FactorCompetitors, f.Competitors)
	set(leverage.FactorCriticality, f.Criticality)
	set(leverage.FactorAlternatives, f.Alternatives)
	set(leverage.FactorTimeline, f.Timeline)
	set(leverage.FactorMarketPosition, f.MarketPosition)
	set(leverage.FactorSwitchingCosts, f.SwitchingCosts)
	return m
}

func factorsFromMap(m map[string]string) leverage.Factors {
	return leverage.Factors{
		Competitors:    m[leverage.FactorCompetitors],
		Criticality:    m[leverage.FactorCriticality],
		Alternatives:   m[leverage.FactorAlternatives],
		Timeline:       m[leverage.FactorTimeline],
		MarketPosition: m[leverage.FactorMarketPosition],
		SwitchingCosts: m[leverage.FactorSwitchingCosts],
	}
}

func toDimensionMap(m map[string]int) map[priority.Dimension]int {
	out := make(map[priority.Dimension]int, len(m))
	for k, v := range m {
		out[priority.Dimension(k)] = v
	}
	return out
}

func fromDimensionMap(m map[priority.Dimension]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
