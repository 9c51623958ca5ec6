// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// SessionRepository defines the secondary port for session persistence.
// A session is loaded and saved as one unit together with its clauses and
// priority weights.
type SessionRepository interface {
	// Create persists a new session at revision 1.
	Create(ctx context.Context, session *SessionRecord) error

	// GetByID retrieves a session by its ID.
	GetByID(ctx context.Context, id string) (*SessionRecord, error)

	// GetByReference retrieves a session by its reference (NEG-0001).
	GetByReference(ctx context.Context, reference string) (*SessionRecord, error)

	// Save writes the session if its stored revision equals expectedRevision
	// and sets session.Revision to the new revision.
	Save(ctx context.Context, session *SessionRecord, expectedRevision int64) error

	// List retrieves sessions matching the given filters. Clauses and weights
	// are not loaded.
	List(ctx context.Context, filters SessionFilters) ([]*SessionRecord, error)

	// GetNextReference returns the next available session reference.
	GetNextReference(ctx context.Context) (string, error)
}

// SessionRecord represents a session as stored in persistence.
type SessionRecord struct {
	ID                string
	Reference         string
	RequestingCompany string
	FulfillingCompany string
	PathwayID         string
	CurrentStage      string
	Status            string
	Archived          bool
	Revision          int64
	Stages            []string
	CompletedStages   []string
	SkippedStages     []string
	SeenTransitions   []string
	PathwayFinished   bool
	LeverageFactors   map[string]string
	Clauses           []*ClauseRecord
	RequestingWeights map[string]int
	FulfillingWeights map[string]int
	CreatedAt         string
	UpdatedAt         string
	CompletedAt       string
}

// ClauseRecord represents a clause as stored in persistence.
type ClauseRecord struct {
	ID                  string
	Position            int // ordinal within the session
	Title               string
	Description         string
	RequestingPosition  int
	FulfillingPosition  int
	Priority            int
	Notes               string
	Recommendation      string
	SuggestedCompromise *int
}

// SessionFilters contains filter options for querying sessions.
type SessionFilters struct {
	Status          string
	IncludeArchived bool
	Limit           int
}

// EventLog defines the secondary port for the session audit trail.
type EventLog interface {
	// Append records one event.
	Append(ctx context.Context, event *SessionEventRecord) error

	// ListBySession returns a session's events, newest first.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*SessionEventRecord, error)
}

// SessionEventRecord represents an audit event as stored in persistence.
type SessionEventRecord struct {
	ID        int64
	SessionID string
	Actor     string
	Operation string
	Target    string
	FieldName string
	OldValue  string
	NewValue  string
	CreatedAt string
}

// AdviceGenerator produces a recommendation for one clause. It may be slow
// or fail; callers bound it with a context deadline.
type AdviceGenerator interface {
	Advise(ctx context.Context, req AdviceRequest) (*Advice, error)
}

// AdviceRequest carries everything the generator may consider.
type AdviceRequest struct {
	SessionID          string
	ClauseID           string
	ClauseTitle        string
	ClauseDescription  string
	Notes              string
	RequestingCompany  string
	FulfillingCompany  string
	RequestingPosition int
	FulfillingPosition int
	Priority           int
	Category           string
	RequestingLeverage int
	FulfillingLeverage int
	RequestingWeights  map[string]int
	FulfillingWeights  map[string]int
}

// Advice is a generated recommendation.
type Advice struct {
	Recommendation      string
	SuggestedCompromise *int
}

// Notifier delivers notifications about session progress.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is one message for the dispatcher.
type Notification struct {
	Kind      string
	SessionID string
	Reference string
	Stage     string
	Message   string
}
