// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import "context"

// NegotiationService defines the primary port for negotiation sessions.
// Every mutating request carries the revision the caller last saw; a stale
// revision fails with a ConcurrencyConflictError. Zero skips the check.
type NegotiationService interface {
	// InitializeSession creates a session on a pathway, seeded with the
	// catalogue's clause templates.
	InitializeSession(ctx context.Context, req InitializeSessionRequest) (*Session, error)

	// GetSession retrieves a session by ID or reference.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// ListSessions lists sessions with optional filters.
	ListSessions(ctx context.Context, filters SessionFilters) ([]*SessionSummary, error)

	// ArchiveSession hides a session from default listings.
	ArchiveSession(ctx context.Context, req SessionRequest) (*Session, error)

	// AddClause appends a clause to a session.
	AddClause(ctx context.Context, req AddClauseRequest) (*Session, error)

	// SetClausePosition records one party's position on a clause.
	SetClausePosition(ctx context.Context, req SetClausePositionRequest) (*Session, error)

	// SetClausePriority changes a clause's priority.
	SetClausePriority(ctx context.Context, req SetClausePriorityRequest) (*Session, error)

	// SetClauseNotes replaces a clause's notes.
	SetClauseNotes(ctx context.Context, req SetClauseNotesRequest) (*Session, error)

	// SetPriorityWeight sets one dimension of a party's priority allocation.
	SetPriorityWeight(ctx context.Context, req SetPriorityWeightRequest) (*Session, error)

	// SetLeverageFactors stores the leverage intake answers.
	SetLeverageFactors(ctx context.Context, req SetLeverageFactorsRequest) (*Session, error)

	// GetLeverage derives the leverage split of a session.
	GetLeverage(ctx context.Context, sessionID string) (*Leverage, error)

	// ComputeLeverage derives a leverage split without a session.
	ComputeLeverage(factors LeverageFactors) *Leverage

	// RequestAdvice asks the advice generator about one clause. Advice
	// failure never fails the call.
	RequestAdvice(ctx context.Context, req RequestAdviceRequest) (*AdviceResponse, error)

	// RequestAdviceForSession requests advice for every clause that is not aligned.
	RequestAdviceForSession(ctx context.Context, sessionID string) (*BulkAdviceResponse, error)

	// CompleteStage marks a stage of the session's pathway completed.
	CompleteStage(ctx context.Context, req CompleteStageRequest) (*Session, error)

	// AdvanceStage moves the session to its next stage.
	AdvanceStage(ctx context.Context, req SessionRequest) (*AdvanceStageResponse, error)

	// ShouldShowTransition reports whether an interstitial should be displayed.
	ShouldShowTransition(ctx context.Context, sessionID, transitionID string) (bool, error)

	// MarkTransitionSeen records that an interstitial was displayed.
	MarkTransitionSeen(ctx context.Context, req MarkTransitionSeenRequest) (*Session, error)

	// GetHistory returns the audit trail of a session, newest first.
	GetHistory(ctx context.Context, sessionID string, limit int) ([]*SessionEvent, error)
}

// InitializeSessionRequest contains parameters for creating a session.
type InitializeSessionRequest struct {
	RequestingCompany string
	FulfillingCompany string
	PathwayID         string // empty: catalogue default
	SkipTemplates     bool
}

// SessionRequest addresses a whole session.
type SessionRequest struct {
	SessionID        string
	ExpectedRevision int64
}

// AddClauseRequest contains parameters for adding a clause.
type AddClauseRequest struct {
	SessionID        string
	ExpectedRevision int64
	Title            string
	Description      string
	Priority         int
}

// SetClausePositionRequest contains parameters for setting a position.
type SetClausePositionRequest struct {
	SessionID        string
	ExpectedRevision int64
	ClauseID         string
	Party            string
	Value            int
}

// SetClausePriorityRequest contains parameters for setting a clause priority.
type SetClausePriorityRequest struct {
	SessionID        string
	ExpectedRevision int64
	ClauseID         string
	Value            int
}

// SetClauseNotesRequest contains parameters for setting clause notes.
type SetClauseNotesRequest struct {
	SessionID        string
	ExpectedRevision int64
	ClauseID         string
	Notes            string
}

// SetPriorityWeightRequest contains parameters for setting a priority weight.
type SetPriorityWeightRequest struct {
	SessionID        string
	ExpectedRevision int64
	Party            string
	Dimension        string
	Value            int
}

// SetLeverageFactorsRequest contains parameters for the leverage intake.
type SetLeverageFactorsRequest struct {
	SessionID        string
	ExpectedRevision int64
	Factors          LeverageFactors
}

// RequestAdviceRequest contains parameters for requesting clause advice.
type RequestAdviceRequest struct {
	SessionID string
	ClauseID  string
}

// CompleteStageRequest contains parameters for completing a stage.
type CompleteStageRequest struct {
	SessionID        string
	ExpectedRevision int64
	Stage            string // empty: current stage
}

// MarkTransitionSeenRequest contains parameters for marking a transition seen.
type MarkTransitionSeenRequest struct {
	SessionID        string
	ExpectedRevision int64
	TransitionID     string
}

// AdvanceStageResponse contains the result of advancing a stage.
type AdvanceStageResponse struct {
	Session *Session
	// Transition is the interstitial to display, if any.
	Transition *Transition
}

// AdviceResponse contains the result of an advice request.
type AdviceResponse struct {
	Session   *Session
	ClauseID  string
	Available bool // false when the generator failed or timed out
	Stale     bool // true when positions changed while advice was pending
}

// BulkAdviceResponse contains the result of advising a whole session.
type BulkAdviceResponse struct {
	Session     *Session
	Advised     []string
	Unavailable []string
	Stale       []string
}

// SessionFilters contains filter options for listing sessions.
type SessionFilters struct {
	Status          string
	IncludeArchived bool
	Limit           int
}

// Session represents a negotiation session at the port boundary.
type Session struct {
	ID                string
	Reference         string
	RequestingCompany string
	FulfillingCompany string
	Status            string
	Archived          bool
	Revision          int64
	OverallAlignment  int
	Pathway           PathwayProgress
	Clauses           []*Clause
	Requesting        PriorityAllocation
	Fulfilling        PriorityAllocation
	Leverage          Leverage
	CreatedAt         string
	UpdatedAt         string
	CompletedAt       string
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID                string
	Reference         string
	RequestingCompany string
	FulfillingCompany string
	PathwayID         string
	CurrentStage      string
	Status            string
	Archived          bool
	UpdatedAt         string
}

// Clause represents a clause at the port boundary.
type Clause struct {
	ID                  string
	Title               string
	Description         string
	RequestingPosition  int
	FulfillingPosition  int
	Gap                 int
	Priority            int
	Category            string
	Notes               string
	Recommendation      string
	SuggestedCompromise *int
}

// PriorityAllocation represents one party's weights.
type PriorityAllocation struct {
	Weights   map[string]int
	Total     int
	Remaining int
	Valid     bool
}

// LeverageFactors are the leverage intake answers.
type LeverageFactors struct {
	Competitors    string
	Criticality    string
	Alternatives   string
	Timeline       string
	MarketPosition string
	SwitchingCosts string
}

// LeverageContribution is one factor's effect on the requesting party.
type LeverageContribution struct {
	Factor string
	Value  string
	Delta  int
}

// Leverage is the derived leverage split.
type Leverage struct {
	Requesting int
	Fulfilling int
	Factors    LeverageFactors
	Breakdown  []LeverageContribution
}

// PathwayProgress describes where a session is on its pathway.
type PathwayProgress struct {
	PathwayID      string
	PathwayName    string
	CurrentStage   string
	Stages         []StageStatus
	CompletedCount int
	TotalCount     int
	Finished       bool
}

// StageStatus describes one stage of a session's pathway.
type StageStatus struct {
	ID                  string
	Name                string
	Completed           bool
	Skipped             bool
	Current             bool
	MinAlignment        int
	RequiresValidBudget bool
}

// Transition is an interstitial shown between stages.
type Transition struct {
	ID      string
	Title   string
	Message string
}

// SessionEvent is one audit trail entry.
type SessionEvent struct {
	ID        int64
	Actor     string
	Operation string
	Target    string
	Field     string
	OldValue  string
	NewValue  string
	CreatedAt string
}
