package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/catalogue"
	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/effects"
	"github.com/example/clarence/internal/core/negotiation"
	"github.com/example/clarence/internal/core/party"
	"github.com/example/clarence/internal/core/pathway"
	"github.com/example/clarence/internal/core/priority"
	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/ports/secondary"
)

// Defaults for NegotiationOptions.
const (
	DefaultAdviceTimeout     = 30 * time.Second
	DefaultMaxParallelAdvice = 4
)

// NegotiationOptions tunes a NegotiationServiceImpl. Zero values select defaults.
type NegotiationOptions struct {
	AdviceTimeout     time.Duration
	MaxParallelAdvice int
	Logger            *zap.Logger
	Clock             func() time.Time
	NewID             func() string
}

// Ensure NegotiationServiceImpl implements the interface
var _ primary.NegotiationService = (*NegotiationServiceImpl)(nil)

// NegotiationServiceImpl implements the NegotiationService interface.
type NegotiationServiceImpl struct {
	sessionRepo secondary.SessionRepository
	eventLog    secondary.EventLog
	advisor     secondary.AdviceGenerator
	executor    EffectExecutor
	catalogue   catalogue.Catalogue

	adviceTimeout time.Duration
	maxParallel   int
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
	locks         *sessionLocks
}

// NewNegotiationService creates a new NegotiationService with injected dependencies.
// A nil advisor makes every advice request report "no recommendation yet".
func NewNegotiationService(
	sessionRepo secondary.SessionRepository,
	eventLog secondary.EventLog,
	advisor secondary.AdviceGenerator,
	executor EffectExecutor,
	cat catalogue.Catalogue,
	opts NegotiationOptions,
) *NegotiationServiceImpl {
	s := &NegotiationServiceImpl{
		sessionRepo:   sessionRepo,
		eventLog:      eventLog,
		advisor:       advisor,
		executor:      executor,
		catalogue:     cat,
		adviceTimeout: opts.AdviceTimeout,
		maxParallel:   opts.MaxParallelAdvice,
		logger:        opts.Logger,
		now:           opts.Clock,
		newID:         opts.NewID,
		locks:         newSessionLocks(),
	}
	if s.adviceTimeout <= 0 {
		s.adviceTimeout = DefaultAdviceTimeout
	}
	if s.maxParallel <= 0 {
		s.maxParallel = DefaultMaxParallelAdvice
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// InitializeSession creates a new session.
func (s *NegotiationServiceImpl) InitializeSession(ctx context.Context, req primary.InitializeSessionRequest) (*primary.Session, error) {
	pathwayID := strings.TrimSpace(req.PathwayID)
	if pathwayID == "" {
		pathwayID = s.catalogue.DefaultPathway
	}

	reference, err := s.sessionRepo.GetNextReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session reference: %w", err)
	}

	var seed []negotiation.AddClause
	if !req.SkipTemplates {
		for _, t := range s.catalogue.ClauseTemplates {
			seed = append(seed, negotiation.AddClause{Title: t.Title, Description: t.Description, Priority: t.Priority})
		}
	}

	out, err := negotiation.NewSession(s.env(), negotiation.NewSessionParams{
		ID:                s.newID(),
		Reference:         reference,
		RequestingCompany: req.RequestingCompany,
		FulfillingCompany: req.FulfillingCompany,
		PathwayID:         pathwayID,
		Clauses:           seed,
	})
	if err != nil {
		return nil, err
	}

	record := snapshotToRecord(out.Snapshot)
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	out.Snapshot.Session.Revision = record.Revision

	s.runEffects(ctx, out.Effects)
	s.logger.Info("session initialized",
		zap.String("session_id", record.ID),
		zap.String("reference", record.Reference),
		zap.String("pathway", pathwayID),
		zap.Int("clauses", len(out.Snapshot.Clauses)))

	return s.snapshotToSession(out.Snapshot), nil
}

// GetSession retrieves a session by ID or reference.
func (s *NegotiationServiceImpl) GetSession(ctx context.Context, sessionID string) (*primary.Session, error) {
	snap, err := s.loadSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(snap), nil
}

// ListSessions lists sessions with optional filters.
func (s *NegotiationServiceImpl) ListSessions(ctx context.Context, filters primary.SessionFilters) ([]*primary.SessionSummary, error) {
	if filters.Status != "" {
		if _, ok := negotiation.ParseStatus(filters.Status); !ok {
			return nil, &apperrors.ValidationError{Field: "status", Value: filters.Status, Reason: "must be draft, in_progress or completed"}
		}
	}
	records, err := s.sessionRepo.List(ctx, secondary.SessionFilters{
		Status:          filters.Status,
		IncludeArchived: filters.IncludeArchived,
		Limit:           filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]*primary.SessionSummary, 0, len(records))
	for _, r := range records {
		out = append(out, recordToSummary(r))
	}
	return out, nil
}

// ArchiveSession archives a session.
func (s *NegotiationServiceImpl) ArchiveSession(ctx context.Context, req primary.SessionRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.Archive{})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// AddClause appends a clause to a session.
func (s *NegotiationServiceImpl) AddClause(ctx context.Context, req primary.AddClauseRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.AddClause{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// SetClausePosition records one party's position on a clause.
func (s *NegotiationServiceImpl) SetClausePosition(ctx context.Context, req primary.SetClausePositionRequest) (*primary.Session, error) {
	p, err := party.Parse(req.Party)
	if err != nil {
		return nil, err
	}
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.SetPosition{
		ClauseID: req.ClauseID,
		Party:    p,
		Value:    req.Value,
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// SetClausePriority changes a clause's priority.
func (s *NegotiationServiceImpl) SetClausePriority(ctx context.Context, req primary.SetClausePriorityRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.SetClausePriority{
		ClauseID: req.ClauseID,
		Value:    req.Value,
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// SetClauseNotes replaces a clause's notes.
func (s *NegotiationServiceImpl) SetClauseNotes(ctx context.Context, req primary.SetClauseNotesRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.SetClauseNotes{
		ClauseID: req.ClauseID,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// SetPriorityWeight sets one dimension of a party's priority allocation.
func (s *NegotiationServiceImpl) SetPriorityWeight(ctx context.Context, req primary.SetPriorityWeightRequest) (*primary.Session, error) {
	p, err := party.Parse(req.Party)
	if err != nil {
		return nil, err
	}
	d, err := priority.ParseDimension(req.Dimension)
	if err != nil {
		return nil, err
	}
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.SetPriorityWeight{
		Party:     p,
		Dimension: d,
		Value:     req.Value,
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// SetLeverageFactors stores the leverage intake answers.
func (s *NegotiationServiceImpl) SetLeverageFactors(ctx context.Context, req primary.SetLeverageFactorsRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.SetLeverageFactors{
		Factors: factorsFromPrimary(req.Factors),
	})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// GetLeverage derives the leverage split of a session.
func (s *NegotiationServiceImpl) GetLeverage(ctx context.Context, sessionID string) (*primary.Leverage, error) {
	snap, err := s.loadSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return leverageToPrimary(snap.Factors), nil
}

// ComputeLeverage derives a leverage split without touching a session.
func (s *NegotiationServiceImpl) ComputeLeverage(factors primary.LeverageFactors) *primary.Leverage {
	return leverageToPrimary(factorsFromPrimary(factors))
}

// CompleteStage marks a stage completed. An empty stage means the current one.
func (s *NegotiationServiceImpl) CompleteStage(ctx context.Context, req primary.CompleteStageRequest) (*primary.Session, error) {
	stage := strings.TrimSpace(req.Stage)
	if stage == "" {
		snap, err := s.loadSnapshot(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		stage = snap.Pathway.Current
	}
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.CompleteStage{Stage: stage})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// AdvanceStage moves the session to its next stage.
func (s *NegotiationServiceImpl) AdvanceStage(ctx context.Context, req primary.SessionRequest) (*primary.AdvanceStageResponse, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.AdvanceStage{})
	if err != nil {
		var gateErr *apperrors.GateNotSatisfiedError
		if errors.As(err, &gateErr) {
			s.logger.Debug("stage gate not satisfied",
				zap.String("session_id", req.SessionID),
				zap.String("stage", gateErr.Stage),
				zap.String("condition", gateErr.Condition))
		}
		return nil, err
	}

	resp := &primary.AdvanceStageResponse{Session: s.snapshotToSession(out.Snapshot)}
	if out.Transition != nil {
		resp.Transition = &primary.Transition{
			ID:      out.Transition.ID,
			Title:   out.Transition.Title,
			Message: out.Transition.Message,
		}
	}
	return resp, nil
}

// ShouldShowTransition reports whether an interstitial should be displayed.
func (s *NegotiationServiceImpl) ShouldShowTransition(ctx context.Context, sessionID, transitionID string) (bool, error) {
	snap, err := s.loadSnapshot(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return pathway.ShouldShowTransition(s.catalogue.Catalogue, snap.Pathway, transitionID), nil
}

// MarkTransitionSeen records that an interstitial was displayed.
func (s *NegotiationServiceImpl) MarkTransitionSeen(ctx context.Context, req primary.MarkTransitionSeenRequest) (*primary.Session, error) {
	out, err := s.mutate(ctx, req.SessionID, req.ExpectedRevision, negotiation.MarkTransitionSeen{TransitionID: req.TransitionID})
	if err != nil {
		return nil, err
	}
	return s.snapshotToSession(out.Snapshot), nil
}

// GetHistory returns the audit trail of a session, newest first.
func (s *NegotiationServiceImpl) GetHistory(ctx context.Context, sessionID string, limit int) ([]*primary.SessionEvent, error) {
	record, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventLog.ListBySession(ctx, record.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	out := make([]*primary.SessionEvent, 0, len(events))
	for _, e := range events {
		out = append(out, &primary.SessionEvent{
			ID:        e.ID,
			Actor:     e.Actor,
			Operation: e.Operation,
			Target:    e.Target,
			Field:     e.FieldName,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// ============================================================================
// Advice
// ============================================================================

type adviceResult struct {
	clauseID   string
	requesting int
	fulfilling int
	advice     *secondary.Advice
	err        error
}

// RequestAdvice asks the advice generator about one clause.
func (s *NegotiationServiceImpl) RequestAdvice(ctx context.Context, req primary.RequestAdviceRequest) (*primary.AdviceResponse, error) {
	snap, err := s.loadSnapshot(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	clause, err := snap.Tracker().Get(req.ClauseID)
	if err != nil {
		return nil, err
	}

	result := s.advise(ctx, snap, clause)
	resp := &primary.AdviceResponse{ClauseID: clause.ID}
	current, applied, stale, err := s.applyAdvice(ctx, snap.Session.ID, result)
	if err != nil {
		return nil, err
	}
	resp.Session = s.snapshotToSession(current)
	resp.Available = applied
	resp.Stale = stale
	return resp, nil
}

// RequestAdviceForSession requests advice for every clause that is not
// aligned, with at most MaxParallelAdvice generator calls in flight.
func (s *NegotiationServiceImpl) RequestAdviceForSession(ctx context.Context, sessionID string) (*primary.BulkAdviceResponse, error) {
	snap, err := s.loadSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var targets []alignment.Clause
	for _, c := range snap.Clauses {
		if c.Category != alignment.CategoryAligned {
			targets = append(targets, c)
		}
	}

	results := make([]adviceResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, c := range targets {
		g.Go(func() error {
			results[i] = s.advise(gctx, snap, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &primary.BulkAdviceResponse{}
	current := snap
	for _, r := range results {
		next, applied, stale, err := s.applyAdvice(ctx, snap.Session.ID, r)
		if err != nil {
			return nil, err
		}
		current = next
		switch {
		case applied:
			resp.Advised = append(resp.Advised, r.clauseID)
		case stale:
			resp.Stale = append(resp.Stale, r.clauseID)
		default:
			resp.Unavailable = append(resp.Unavailable, r.clauseID)
		}
	}
	resp.Session = s.snapshotToSession(current)
	return resp, nil
}

// advise calls the generator under the advice timeout. It never blocks
// longer than the timeout and never returns an error to the caller's flow.
func (s *NegotiationServiceImpl) advise(ctx context.Context, snap negotiation.Snapshot, c alignment.Clause) adviceResult {
	result := adviceResult{
		clauseID:   c.ID,
		requesting: c.RequestingPosition,
		fulfilling: c.FulfillingPosition,
	}
	if s.advisor == nil {
		result.err = apperrors.ErrAdviceUnavailable
		return result
	}

	actx, cancel := context.WithTimeout(ctx, s.adviceTimeout)
	defer cancel()

	lev := snap.Leverage()
	advice, err := s.advisor.Advise(actx, secondary.AdviceRequest{
		SessionID:          snap.Session.ID,
		ClauseID:           c.ID,
		ClauseTitle:        c.Title,
		ClauseDescription:  c.Description,
		Notes:              c.Notes,
		RequestingCompany:  snap.Session.RequestingCompany,
		FulfillingCompany:  snap.Session.FulfillingCompany,
		RequestingPosition: c.RequestingPosition,
		FulfillingPosition: c.FulfillingPosition,
		Priority:           c.Priority,
		Category:           string(c.Category),
		RequestingLeverage: lev.Requesting,
		FulfillingLeverage: lev.Fulfilling,
		RequestingWeights:  fromDimensionMap(snap.Requesting.Weights()),
		FulfillingWeights:  fromDimensionMap(snap.Fulfilling.Weights()),
	})
	if err == nil && (advice == nil || strings.TrimSpace(advice.Recommendation) == "") {
		err = errors.New("empty advice")
	}
	if err != nil {
		result.err = fmt.Errorf("%w: %w", apperrors.ErrAdviceUnavailable, err)
		s.logger.Warn("advice unavailable",
			zap.String("session_id", snap.Session.ID),
			zap.String("clause_id", c.ID),
			zap.Error(err))
		return result
	}
	result.advice = advice
	return result
}

// applyAdvice stores a successful advice result. Unavailable and stale
// results leave the session untouched and are reported, not returned.
func (s *NegotiationServiceImpl) applyAdvice(ctx context.Context, sessionID string, r adviceResult) (snap negotiation.Snapshot, applied, stale bool, err error) {
	if r.err != nil {
		snap, err = s.loadSnapshot(ctx, sessionID)
		return snap, false, false, err
	}

	out, err := s.mutate(ctx, sessionID, 0, negotiation.ApplyAdvice{
		ClauseID:           r.clauseID,
		RequestingPosition: r.requesting,
		FulfillingPosition: r.fulfilling,
		Recommendation:     strings.TrimSpace(r.advice.Recommendation),
		Compromise:         validCompromise(r.advice.SuggestedCompromise),
	})
	if errors.Is(err, negotiation.ErrStaleAdvice) {
		s.logger.Info("discarding stale advice",
			zap.String("session_id", sessionID),
			zap.String("clause_id", r.clauseID))
		snap, err = s.loadSnapshot(ctx, sessionID)
		return snap, false, true, err
	}
	if err != nil {
		return negotiation.Snapshot{}, false, false, err
	}
	return out.Snapshot, true, false, nil
}

// validCompromise drops a suggested compromise outside the position scale;
// the recommendation text is still stored.
func validCompromise(v *int) *int {
	if v == nil || *v < alignment.MinPosition || *v > alignment.MaxPosition {
		return nil
	}
	c := *v
	return &c
}

// ============================================================================
// Load / mutate
// ============================================================================

func (s *NegotiationServiceImpl) env() negotiation.Env {
	return negotiation.Env{Catalogue: s.catalogue.Catalogue, Now: s.now()}
}

// loadRecord resolves a session by ID or by NEG- reference.
func (s *NegotiationServiceImpl) loadRecord(ctx context.Context, sessionID string) (*secondary.SessionRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, &apperrors.ValidationError{Field: "session", Reason: "is required"}
	}
	var (
		record *secondary.SessionRecord
		err    error
	)
	if negotiation.ParseReferenceNumber(sessionID) > 0 {
		record, err = s.sessionRepo.GetByReference(ctx, sessionID)
	} else {
		record, err = s.sessionRepo.GetByID(ctx, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return record, nil
}

func (s *NegotiationServiceImpl) loadSnapshot(ctx context.Context, sessionID string) (negotiation.Snapshot, error) {
	record, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return negotiation.Snapshot{}, err
	}
	return recordToSnapshot(record)
}

// mutate runs one command as an atomic read-modify-write on a session.
// expectedRevision zero skips the caller-side revision check; the store
// still rejects a write whose base revision is stale.
func (s *NegotiationServiceImpl) mutate(ctx context.Context, sessionID string, expectedRevision int64, cmd negotiation.Command) (negotiation.Outcome, error) {
	resolved, err := s.loadRecord(ctx, sessionID)
	if err != nil {
		return negotiation.Outcome{}, err
	}

	unlock := s.locks.Lock(resolved.ID)
	defer unlock()

	record, err := s.sessionRepo.GetByID(ctx, resolved.ID)
	if err != nil {
		return negotiation.Outcome{}, fmt.Errorf("failed to load session %s: %w", resolved.ID, err)
	}
	if expectedRevision != 0 && record.Revision != expectedRevision {
		return negotiation.Outcome{}, &apperrors.ConcurrencyConflictError{
			SessionID: record.ID,
			Expected:  expectedRevision,
			Actual:    record.Revision,
		}
	}

	snap, err := recordToSnapshot(record)
	if err != nil {
		return negotiation.Outcome{}, err
	}

	out, err := negotiation.Execute(s.env(), snap, cmd)
	if err != nil {
		return out, err
	}
	if out.Unchanged {
		return out, nil
	}

	next := snapshotToRecord(out.Snapshot)
	if err := s.sessionRepo.Save(ctx, next, record.Revision); err != nil {
		return negotiation.Outcome{}, fmt.Errorf("failed to save session %s: %w", record.ID, err)
	}
	out.Snapshot.Session.Revision = next.Revision

	s.runEffects(ctx, out.Effects)
	s.logger.Debug("session updated",
		zap.String("session_id", record.ID),
		zap.String("operation", cmd.Name()),
		zap.Int64("revision", next.Revision))
	return out, nil
}

// runEffects executes effects after a successful save. The state change is
// already durable, so failures are logged rather than returned.
func (s *NegotiationServiceImpl) runEffects(ctx context.Context, effs []effects.Effect) {
	if s.executor == nil || len(effs) == 0 {
		return
	}
	if err := s.executor.Execute(ctx, effs); err != nil {
		s.logger.Warn("failed to execute effects", zap.Error(err))
	}
}
