// Package cli contains thin adapters that translate CLI operations into
// primary port calls and render their results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/ports/primary"
)

// NegotiationAdapter is a thin adapter that translates CLI operations to NegotiationService calls.
// It depends only on the NegotiationService interface, enabling easy testing with mocks.
type NegotiationAdapter struct {
	service primary.NegotiationService
	out     io.Writer
}

// NewNegotiationAdapter creates a new NegotiationAdapter with the given service.
func NewNegotiationAdapter(service primary.NegotiationService, out io.Writer) *NegotiationAdapter {
	return &NegotiationAdapter{
		service: service,
		out:     out,
	}
}

// ============================================================================
// Sessions
// ============================================================================

// Create initializes a negotiation session.
func (a *NegotiationAdapter) Create(ctx context.Context, req primary.InitializeSessionRequest) (*primary.Session, error) {
	session, err := a.service.InitializeSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Created session %s: %s ↔ %s\n", session.Reference, session.RequestingCompany, session.FulfillingCompany)
	fmt.Fprintf(a.out, "  Pathway: %s (%d clauses)\n", session.Pathway.PathwayName, len(session.Clauses))
	fmt.Fprintf(a.out, "  Stage:   %s\n", session.Pathway.CurrentStage)
	return session, nil
}

// List lists sessions.
func (a *NegotiationAdapter) List(ctx context.Context, filters primary.SessionFilters) ([]*primary.SessionSummary, error) {
	sessions, err := a.service.ListSessions(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No sessions found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Start your first negotiation:")
		fmt.Fprintln(a.out, `  clarence session create "Acme" "Globex"`)
		return sessions, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tREQUESTING\tFULFILLING\tPATHWAY\tSTAGE\tSTATUS")
	fmt.Fprintln(w, "---------\t----------\t----------\t-------\t-----\t------")
	for _, s := range sessions {
		status := s.Status
		if s.Archived {
			status += " (archived)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Reference, s.RequestingCompany, s.FulfillingCompany, s.PathwayID, s.CurrentStage, status)
	}
	w.Flush()
	return sessions, nil
}

// Show displays a session: pathway progress, alignment and clauses.
func (a *NegotiationAdapter) Show(ctx context.Context, sessionID string) (*primary.Session, error) {
	session, err := a.service.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	fmt.Fprintf(a.out, "\nSession: %s (%s)\n", session.Reference, session.ID)
	fmt.Fprintf(a.out, "Parties:   %s ↔ %s\n", session.RequestingCompany, session.FulfillingCompany)
	fmt.Fprintf(a.out, "Status:    %s\n", session.Status)
	fmt.Fprintf(a.out, "Revision:  %d\n", session.Revision)
	fmt.Fprintf(a.out, "Alignment: %s\n", alignmentLabel(session.OverallAlignment))
	fmt.Fprintf(a.out, "Leverage:  %d%% / %d%%\n", session.Leverage.Requesting, session.Leverage.Fulfilling)
	fmt.Fprintln(a.out)

	a.renderPathway(session.Pathway)
	a.renderClauses(session.Clauses)
	a.renderAllocation("Requesting priorities", session.Requesting)
	a.renderAllocation("Fulfilling priorities", session.Fulfilling)
	return session, nil
}

// Archive archives a session.
func (a *NegotiationAdapter) Archive(ctx context.Context, req primary.SessionRequest) error {
	session, err := a.service.ArchiveSession(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Archived session %s\n", session.Reference)
	return nil
}

// History prints a session's audit trail.
func (a *NegotiationAdapter) History(ctx context.Context, sessionID string, limit int) error {
	events, err := a.service.GetHistory(ctx, sessionID, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No history recorded.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTOR\tOPERATION\tTARGET\tCHANGE")
	for _, e := range events {
		change := ""
		if e.Field != "" {
			change = fmt.Sprintf("%s: %s → %s", e.Field, e.OldValue, e.NewValue)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt, e.Actor, e.Operation, e.Target, change)
	}
	w.Flush()
	return nil
}

// ============================================================================
// Clauses
// ============================================================================

// AddClause appends a clause.
func (a *NegotiationAdapter) AddClause(ctx context.Context, req primary.AddClauseRequest) error {
	session, err := a.service.AddClause(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to add clause: %w", err)
	}
	added := session.Clauses[len(session.Clauses)-1]
	fmt.Fprintf(a.out, "✓ Added clause %s: %s\n", added.ID, added.Title)
	return nil
}

// SetPosition records a party's position and reports the clause's new category.
func (a *NegotiationAdapter) SetPosition(ctx context.Context, req primary.SetClausePositionRequest) error {
	session, err := a.service.SetClausePosition(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}
	clause := findClause(session, req.ClauseID)
	if clause == nil {
		return nil
	}
	fmt.Fprintf(a.out, "✓ %s: %d / %d (%s)\n", clause.ID,
		clause.RequestingPosition, clause.FulfillingPosition, categoryLabel(clause.Category))
	fmt.Fprintf(a.out, "  Overall alignment: %s\n", alignmentLabel(session.OverallAlignment))
	return nil
}

// SetPriority changes a clause's priority.
func (a *NegotiationAdapter) SetPriority(ctx context.Context, req primary.SetClausePriorityRequest) error {
	if _, err := a.service.SetClausePriority(ctx, req); err != nil {
		return fmt.Errorf("failed to set priority: %w", err)
	}
	fmt.Fprintf(a.out, "✓ %s priority set to %d\n", req.ClauseID, req.Value)
	return nil
}

// SetNotes replaces a clause's notes.
func (a *NegotiationAdapter) SetNotes(ctx context.Context, req primary.SetClauseNotesRequest) error {
	if _, err := a.service.SetClauseNotes(ctx, req); err != nil {
		return fmt.Errorf("failed to set notes: %w", err)
	}
	fmt.Fprintf(a.out, "✓ %s notes updated\n", req.ClauseID)
	return nil
}

// Advise requests advice for one clause, or every unaligned clause when
// clauseID is empty.
func (a *NegotiationAdapter) Advise(ctx context.Context, sessionID, clauseID string) error {
	if clauseID == "" {
		resp, err := a.service.RequestAdviceForSession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to request advice: %w", err)
		}
		fmt.Fprintf(a.out, "✓ Advice for %d clause(s)\n", len(resp.Advised))
		if len(resp.Stale) > 0 {
			fmt.Fprintf(a.out, "  %s positions changed while waiting: %s\n",
				color.New(color.FgYellow).Sprint("!"), strings.Join(resp.Stale, ", "))
		}
		if len(resp.Unavailable) > 0 {
			fmt.Fprintf(a.out, "  %s advice unavailable: %s\n",
				color.New(color.FgYellow).Sprint("!"), strings.Join(resp.Unavailable, ", "))
		}
		for _, id := range resp.Advised {
			a.renderAdvice(findClause(resp.Session, id))
		}
		return nil
	}

	resp, err := a.service.RequestAdvice(ctx, primary.RequestAdviceRequest{SessionID: sessionID, ClauseID: clauseID})
	if err != nil {
		return fmt.Errorf("failed to request advice: %w", err)
	}
	switch {
	case resp.Stale:
		fmt.Fprintf(a.out, "%s Positions on %s changed while advice was pending; advice discarded.\n",
			color.New(color.FgYellow).Sprint("!"), clauseID)
	case !resp.Available:
		fmt.Fprintf(a.out, "%s Advice is unavailable right now. Try again later.\n",
			color.New(color.FgYellow).Sprint("!"))
	default:
		a.renderAdvice(findClause(resp.Session, clauseID))
	}
	return nil
}

// ============================================================================
// Priorities and leverage
// ============================================================================

// SetWeight sets one priority weight and shows the remaining budget.
func (a *NegotiationAdapter) SetWeight(ctx context.Context, req primary.SetPriorityWeightRequest) error {
	session, err := a.service.SetPriorityWeight(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to set priority weight: %w", err)
	}
	alloc := session.Requesting
	if req.Party == "fulfilling" {
		alloc = session.Fulfilling
	}
	fmt.Fprintf(a.out, "✓ %s %s = %d\n", req.Party, req.Dimension, req.Value)
	a.renderBudget(alloc)
	return nil
}

// SetLeverage stores leverage intake answers and shows the resulting split.
func (a *NegotiationAdapter) SetLeverage(ctx context.Context, req primary.SetLeverageFactorsRequest) error {
	session, err := a.service.SetLeverageFactors(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to set leverage factors: %w", err)
	}
	a.renderLeverage(session.Leverage)
	return nil
}

// Leverage shows a session's leverage split.
func (a *NegotiationAdapter) Leverage(ctx context.Context, sessionID string) error {
	lev, err := a.service.GetLeverage(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get leverage: %w", err)
	}
	a.renderLeverage(*lev)
	return nil
}

// Calculate shows the leverage split for a set of answers without a session.
func (a *NegotiationAdapter) Calculate(factors primary.LeverageFactors) {
	a.renderLeverage(*a.service.ComputeLeverage(factors))
}

// ============================================================================
// Stages
// ============================================================================

// CompleteStage marks a stage completed.
func (a *NegotiationAdapter) CompleteStage(ctx context.Context, req primary.CompleteStageRequest) error {
	session, err := a.service.CompleteStage(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to complete stage: %w", err)
	}
	stage := req.Stage
	if stage == "" {
		stage = session.Pathway.CurrentStage
	}
	fmt.Fprintf(a.out, "✓ Stage %s completed (%d/%d)\n", stage, session.Pathway.CompletedCount, session.Pathway.TotalCount)
	return nil
}

// Advance moves to the next stage. Gate failures are explained rather than
// returned as raw errors; the error is still returned for the exit code.
func (a *NegotiationAdapter) Advance(ctx context.Context, req primary.SessionRequest) error {
	resp, err := a.service.AdvanceStage(ctx, req)
	if err != nil {
		var gate *apperrors.GateNotSatisfiedError
		if errors.As(err, &gate) {
			fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgRed).Sprint("✗"), gate.Error())
		}
		return fmt.Errorf("failed to advance stage: %w", err)
	}

	session := resp.Session
	if session.Pathway.Finished {
		fmt.Fprintf(a.out, "%s Negotiation %s completed\n", color.New(color.FgHiMagenta).Sprint("★"), session.Reference)
		return nil
	}
	fmt.Fprintf(a.out, "→ Now at stage %s\n", session.Pathway.CurrentStage)

	if t := resp.Transition; t != nil {
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "  %s\n", color.New(color.Bold).Sprint(t.Title))
		if t.Message != "" {
			fmt.Fprintf(a.out, "  %s\n", t.Message)
		}
		fmt.Fprintf(a.out, "  (dismiss with: clarence transition seen %s %s)\n", session.Reference, t.ID)
	}
	return nil
}

// MarkSeen records that a transition was displayed.
func (a *NegotiationAdapter) MarkSeen(ctx context.Context, req primary.MarkTransitionSeenRequest) error {
	if _, err := a.service.MarkTransitionSeen(ctx, req); err != nil {
		return fmt.Errorf("failed to mark transition seen: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Transition %s dismissed\n", req.TransitionID)
	return nil
}

// ============================================================================
// Rendering
// ============================================================================

func (a *NegotiationAdapter) renderPathway(p primary.PathwayProgress) {
	fmt.Fprintf(a.out, "Pathway: %s (%d/%d)\n", p.PathwayName, p.CompletedCount, p.TotalCount)
	for _, st := range p.Stages {
		var icon string
		switch {
		case st.Skipped:
			icon = color.New(color.FgHiBlack).Sprint("-")
		case st.Completed:
			icon = color.New(color.FgGreen).Sprint("✓")
		default:
			icon = " "
		}
		line := fmt.Sprintf("  [%s] %s", icon, st.Name)
		if st.MinAlignment > 0 {
			line += fmt.Sprintf(" (needs %d%% alignment)", st.MinAlignment)
		}
		if st.RequiresValidBudget {
			line += " (needs valid budgets)"
		}
		if st.Current && !p.Finished {
			line += color.New(color.FgHiMagenta).Sprint(" ←")
		}
		fmt.Fprintln(a.out, line)
	}
	fmt.Fprintln(a.out)
}

func (a *NegotiationAdapter) renderClauses(clauses []*primary.Clause) {
	if len(clauses) == 0 {
		fmt.Fprintln(a.out, "No clauses.")
		fmt.Fprintln(a.out)
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tREQ\tFUL\tGAP\tPRIO\tALIGNMENT")
	for _, c := range clauses {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			c.ID, c.Title, c.RequestingPosition, c.FulfillingPosition, c.Gap, c.Priority, categoryLabel(c.Category))
	}
	w.Flush()
	fmt.Fprintln(a.out)
}

func (a *NegotiationAdapter) renderAllocation(title string, alloc primary.PriorityAllocation) {
	if alloc.Total == 0 {
		return
	}
	dims := make([]string, 0, len(alloc.Weights))
	for d := range alloc.Weights {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	fmt.Fprintf(a.out, "%s:\n", title)
	for _, d := range dims {
		fmt.Fprintf(a.out, "  %-11s %2d\n", d, alloc.Weights[d])
	}
	a.renderBudget(alloc)
	fmt.Fprintln(a.out)
}

func (a *NegotiationAdapter) renderBudget(alloc primary.PriorityAllocation) {
	if alloc.Valid {
		fmt.Fprintf(a.out, "  Budget: %d used, %d remaining\n", alloc.Total, alloc.Remaining)
		return
	}
	fmt.Fprintf(a.out, "  Budget: %s\n",
		color.New(color.FgRed).Sprintf("%d used, over by %d", alloc.Total, -alloc.Remaining))
}

func (a *NegotiationAdapter) renderLeverage(lev primary.Leverage) {
	fmt.Fprintf(a.out, "Leverage: requesting %d%% / fulfilling %d%%\n", lev.Requesting, lev.Fulfilling)
	for _, c := range lev.Breakdown {
		if c.Delta == 0 {
			continue
		}
		fmt.Fprintf(a.out, "  %-16s %-10s %+d\n", c.Factor, c.Value, c.Delta)
	}
}

func (a *NegotiationAdapter) renderAdvice(c *primary.Clause) {
	if c == nil || c.Recommendation == "" {
		return
	}
	fmt.Fprintf(a.out, "\n%s %s\n", color.New(color.Bold).Sprint(c.ID), c.Title)
	fmt.Fprintf(a.out, "  %s\n", c.Recommendation)
	if c.SuggestedCompromise != nil {
		fmt.Fprintf(a.out, "  Suggested compromise: %d\n", *c.SuggestedCompromise)
	}
}

func findClause(session *primary.Session, id string) *primary.Clause {
	if session == nil {
		return nil
	}
	for _, c := range session.Clauses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func categoryLabel(category string) string {
	switch category {
	case "aligned":
		return color.New(color.FgGreen).Sprint(category)
	case "close":
		return color.New(color.FgYellow).Sprint(category)
	case "far":
		return color.New(color.FgRed).Sprint(category)
	default:
		return category
	}
}

func alignmentLabel(pct int) string {
	label := fmt.Sprintf("%d%%", pct)
	switch {
	case pct >= 70:
		return color.New(color.FgGreen).Sprint(label)
	case pct >= 40:
		return color.New(color.FgYellow).Sprint(label)
	default:
		return color.New(color.FgRed).Sprint(label)
	}
}
