package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/clarence/internal/ports/secondary"
)

// EventLogRepository implements secondary.EventLog with SQLite.
type EventLogRepository struct {
	db *sql.DB
}

// NewEventLogRepository creates a new SQLite event log repository.
func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{db: db}
}

// Append records one audit event and assigns its ID.
func (r *EventLogRepository) Append(ctx context.Context, event *secondary.SessionEventRecord) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, actor, operation, target, field_name, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.SessionID,
		event.Actor,
		event.Operation,
		nullString(event.Target),
		nullString(event.FieldName),
		nullString(event.OldValue),
		nullString(event.NewValue),
		timestampOrNow(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append session event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session event id: %w", err)
	}
	event.ID = id
	return nil
}

// ListBySession returns a session's events, newest first. A limit of 0
// returns every event.
func (r *EventLogRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*secondary.SessionEventRecord, error) {
	query := `SELECT id, session_id, actor, operation, target, field_name, old_value, new_value, created_at
		FROM session_events WHERE session_id = ? ORDER BY id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.SessionEventRecord
	for rows.Next() {
		var (
			target, fieldName, oldValue, newValue sql.NullString
			createdAt                             time.Time
		)
		e := &secondary.SessionEventRecord{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Actor, &e.Operation,
			&target, &fieldName, &oldValue, &newValue, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		e.Target = target.String
		e.FieldName = fieldName.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		events = append(events, e)
	}
	return events, rows.Err()
}
