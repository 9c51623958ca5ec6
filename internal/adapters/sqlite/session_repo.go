// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/core/negotiation"
	"github.com/example/clarence/internal/ports/secondary"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const sessionColumns = `id, reference, requesting_company, fulfilling_company, pathway_id, current_stage,
	status, archived, revision, stages, completed_stages, skipped_stages, seen_transitions,
	pathway_finished, leverage_factors, created_at, updated_at, completed_at`

// SessionRepository implements secondary.SessionRepository with SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new session with its clauses and weights at revision 1.
// The record must have ID, Reference and Status pre-populated by the service layer.
func (r *SessionRepository) Create(ctx context.Context, session *secondary.SessionRecord) error {
	if session.ID == "" {
		return fmt.Errorf("session ID must be pre-populated by service layer")
	}
	if session.Reference == "" {
		return fmt.Errorf("session Reference must be pre-populated by service layer")
	}
	if session.Status == "" {
		return fmt.Errorf("session Status must be pre-populated by service layer")
	}

	cols, err := encodeSessionColumns(session)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Reference, session.RequestingCompany, session.FulfillingCompany,
		session.PathwayID, session.CurrentStage, session.Status, session.Archived,
		cols.stages, cols.completed, cols.skipped, cols.seen, session.PathwayFinished, cols.factors,
		timestampOrNow(session.CreatedAt), timestampOrNow(session.UpdatedAt), nullTimestamp(session.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if err := writeChildren(ctx, tx, session); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	session.Revision = 1
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*secondary.SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	return r.loadFull(ctx, row, id)
}

// GetByReference retrieves a session by its reference.
func (r *SessionRepository) GetByReference(ctx context.Context, reference string) (*secondary.SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE reference = ?", reference)
	return r.loadFull(ctx, row, reference)
}

func (r *SessionRepository) loadFull(ctx context.Context, row *sql.Row, key string) (*secondary.SessionRecord, error) {
	record, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if record.Clauses, err = loadClauses(ctx, r.db, record.ID); err != nil {
		return nil, err
	}
	if record.RequestingWeights, record.FulfillingWeights, err = loadWeights(ctx, r.db, record.ID); err != nil {
		return nil, err
	}
	return record, nil
}

// Save writes the session if its stored revision equals expectedRevision.
// Clauses and weights are replaced in the same transaction.
func (r *SessionRepository) Save(ctx context.Context, session *secondary.SessionRecord, expectedRevision int64) error {
	cols, err := encodeSessionColumns(session)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET
			requesting_company = ?, fulfilling_company = ?, current_stage = ?, status = ?,
			archived = ?, revision = revision + 1, stages = ?, completed_stages = ?,
			skipped_stages = ?, seen_transitions = ?, pathway_finished = ?, leverage_factors = ?,
			updated_at = ?, completed_at = ?
		WHERE id = ? AND revision = ?`,
		session.RequestingCompany, session.FulfillingCompany, session.CurrentStage, session.Status,
		session.Archived, cols.stages, cols.completed,
		cols.skipped, cols.seen, session.PathwayFinished, cols.factors,
		timestampOrNow(session.UpdatedAt), nullTimestamp(session.CompletedAt),
		session.ID, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var actual int64
		err := tx.QueryRowContext(ctx, "SELECT revision FROM sessions WHERE id = ?", session.ID).Scan(&actual)
		if err == sql.ErrNoRows {
			return fmt.Errorf("session %s: %w", session.ID, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read session revision: %w", err)
		}
		return &apperrors.ConcurrencyConflictError{SessionID: session.ID, Expected: expectedRevision, Actual: actual}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM clauses WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear clauses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM priority_weights WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear priority weights: %w", err)
	}
	if err := writeChildren(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	session.Revision = expectedRevision + 1
	return nil
}

// List retrieves sessions matching the given filters, most recently updated first.
func (r *SessionRepository) List(ctx context.Context, filters secondary.SessionFilters) ([]*secondary.SessionRecord, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE 1=1"
	args := []any{}

	if !filters.IncludeArchived {
		query += " AND archived = 0"
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY updated_at DESC, reference DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*secondary.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// GetNextReference returns the next available session reference.
// Uses core function for reference format to keep business logic in the functional core.
func (r *SessionRepository) GetNextReference(ctx context.Context) (string, error) {
	var maxNum int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(reference, 5) AS INTEGER)), 0) FROM sessions",
	).Scan(&maxNum)
	if err != nil {
		return "", fmt.Errorf("failed to get next session reference: %w", err)
	}

	return negotiation.GenerateReference(maxNum), nil
}

// ============================================================================
// Row helpers
// ============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*secondary.SessionRecord, error) {
	var (
		stages, completed, skipped, seen, factors string
		createdAt, updatedAt                      time.Time
		completedAt                               sql.NullTime
	)

	record := &secondary.SessionRecord{}
	err := s.Scan(
		&record.ID, &record.Reference, &record.RequestingCompany, &record.FulfillingCompany,
		&record.PathwayID, &record.CurrentStage, &record.Status, &record.Archived, &record.Revision,
		&stages, &completed, &skipped, &seen, &record.PathwayFinished, &factors,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{stages, &record.Stages},
		{completed, &record.CompletedStages},
		{skipped, &record.SkippedStages},
		{seen, &record.SeenTransitions},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode stage list: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(factors), &record.LeverageFactors); err != nil {
		return nil, fmt.Errorf("failed to decode leverage factors: %w", err)
	}

	record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	record.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.UTC().Format(time.RFC3339)
	}
	return record, nil
}

func loadClauses(ctx context.Context, q querier, sessionID string) ([]*secondary.ClauseRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, ordinal, title, description, requesting_position, fulfilling_position,
			priority, notes, recommendation, suggested_compromise
		FROM clauses WHERE session_id = ? ORDER BY ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load clauses: %w", err)
	}
	defer rows.Close()

	clauses := []*secondary.ClauseRecord{}
	for rows.Next() {
		var (
			desc, notes, recommendation sql.NullString
			compromise                  sql.NullInt64
		)
		c := &secondary.ClauseRecord{}
		if err := rows.Scan(&c.ID, &c.Position, &c.Title, &desc, &c.RequestingPosition, &c.FulfillingPosition,
			&c.Priority, &notes, &recommendation, &compromise); err != nil {
			return nil, fmt.Errorf("failed to scan clause: %w", err)
		}
		c.Description = desc.String
		c.Notes = notes.String
		c.Recommendation = recommendation.String
		if compromise.Valid {
			v := int(compromise.Int64)
			c.SuggestedCompromise = &v
		}
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}

func loadWeights(ctx context.Context, q querier, sessionID string) (requesting, fulfilling map[string]int, err error) {
	rows, err := q.QueryContext(ctx,
		"SELECT party, dimension, weight FROM priority_weights WHERE session_id = ?",
		sessionID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load priority weights: %w", err)
	}
	defer rows.Close()

	requesting = map[string]int{}
	fulfilling = map[string]int{}
	for rows.Next() {
		var p, dimension string
		var weight int
		if err := rows.Scan(&p, &dimension, &weight); err != nil {
			return nil, nil, fmt.Errorf("failed to scan priority weight: %w", err)
		}
		if p == "fulfilling" {
			fulfilling[dimension] = weight
		} else {
			requesting[dimension] = weight
		}
	}
	return requesting, fulfilling, rows.Err()
}

func writeChildren(ctx context.Context, q querier, session *secondary.SessionRecord) error {
	for i, c := range session.Clauses {
		var compromise sql.NullInt64
		if c.SuggestedCompromise != nil {
			compromise = sql.NullInt64{Int64: int64(*c.SuggestedCompromise), Valid: true}
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO clauses (session_id, id, ordinal, title, description, requesting_position,
				fulfilling_position, priority, notes, recommendation, suggested_compromise)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID, c.ID, i, c.Title, nullString(c.Description), c.RequestingPosition,
			c.FulfillingPosition, c.Priority, nullString(c.Notes), nullString(c.Recommendation), compromise,
		)
		if err != nil {
			return fmt.Errorf("failed to write clause %s: %w", c.ID, err)
		}
	}

	for _, w := range []struct {
		party   string
		weights map[string]int
	}{
		{"requesting", session.RequestingWeights},
		{"fulfilling", session.FulfillingWeights},
	} {
		dims := make([]string, 0, len(w.weights))
		for d := range w.weights {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		for _, d := range dims {
			_, err := q.ExecContext(ctx,
				"INSERT INTO priority_weights (session_id, party, dimension, weight) VALUES (?, ?, ?, ?)",
				session.ID, w.party, d, w.weights[d],
			)
			if err != nil {
				return fmt.Errorf("failed to write %s weight %s: %w", w.party, d, err)
			}
		}
	}
	return nil
}

type encodedColumns struct {
	stages, completed, skipped, seen, factors string
}

func encodeSessionColumns(session *secondary.SessionRecord) (encodedColumns, error) {
	var out encodedColumns
	for _, col := range []struct {
		value []string
		dest  *string
	}{
		{session.Stages, &out.stages},
		{session.CompletedStages, &out.completed},
		{session.SkippedStages, &out.skipped},
		{session.SeenTransitions, &out.seen},
	} {
		value := col.value
		if value == nil {
			value = []string{}
		}
		data, err := json.Marshal(value)
		if err != nil {
			return out, fmt.Errorf("failed to encode stage list: %w", err)
		}
		*col.dest = string(data)
	}

	factors := session.LeverageFactors
	if factors == nil {
		factors = map[string]string{}
	}
	data, err := json.Marshal(factors)
	if err != nil {
		return out, fmt.Errorf("failed to encode leverage factors: %w", err)
	}
	out.factors = string(data)
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timestampOrNow(s string) string {
	if s == "" {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return s
}

func nullTimestamp(s string) sql.NullString {
	return nullString(s)
}
