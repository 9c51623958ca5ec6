package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests use it
// via GetSchemaSQL() so repository code referencing a column that doesn't
// exist here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Sessions (one negotiation between a requesting and a fulfilling party)
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	reference TEXT NOT NULL UNIQUE,
	requesting_company TEXT NOT NULL,
	fulfilling_company TEXT NOT NULL,
	pathway_id TEXT NOT NULL,
	current_stage TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('draft', 'in_progress', 'completed')) DEFAULT 'draft',
	archived INTEGER NOT NULL DEFAULT 0,
	revision INTEGER NOT NULL DEFAULT 1,
	stages TEXT NOT NULL DEFAULT '[]',
	completed_stages TEXT NOT NULL DEFAULT '[]',
	skipped_stages TEXT NOT NULL DEFAULT '[]',
	seen_transitions TEXT NOT NULL DEFAULT '[]',
	pathway_finished INTEGER NOT NULL DEFAULT 0,
	leverage_factors TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

-- Clauses (ordered per session)
CREATE TABLE IF NOT EXISTS clauses (
	session_id TEXT NOT NULL,
	id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	requesting_position INTEGER NOT NULL CHECK(requesting_position BETWEEN 1 AND 10),
	fulfilling_position INTEGER NOT NULL CHECK(fulfilling_position BETWEEN 1 AND 10),
	priority INTEGER NOT NULL CHECK(priority BETWEEN 1 AND 10),
	notes TEXT,
	recommendation TEXT,
	suggested_compromise INTEGER,
	PRIMARY KEY (session_id, id),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

-- Priority weights (one row per party and dimension)
CREATE TABLE IF NOT EXISTS priority_weights (
	session_id TEXT NOT NULL,
	party TEXT NOT NULL CHECK(party IN ('requesting', 'fulfilling')),
	dimension TEXT NOT NULL CHECK(dimension IN ('cost', 'quality', 'speed', 'innovation', 'risk')),
	weight INTEGER NOT NULL CHECK(weight BETWEEN 0 AND 10),
	PRIMARY KEY (session_id, party, dimension),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

-- Session events (audit trail)
CREATE TABLE IF NOT EXISTS session_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	operation TEXT NOT NULL,
	target TEXT,
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
`

// InitSchema creates the schema on a fresh database and runs pending
// migrations on an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}
	if tableCount > 0 {
		return RunMigrations(db)
	}

	var sessionsCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sessions'").Scan(&sessionsCount)
	if err != nil {
		return err
	}
	if sessionsCount > 0 {
		// Pre-versioning database - bring it up through the migrations
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
