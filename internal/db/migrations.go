package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_sessions_clauses_and_weights",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_transitions_and_session_events",
		Up:      migrationV2,
	},
}

// LatestVersion returns the highest migration version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// migrationV1 creates the original session, clause and weight tables
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
			pathway_finished INTEGER NOT NULL DEFAULT 0,
			leverage_factors TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

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

		CREATE TABLE IF NOT EXISTS priority_weights (
			session_id TEXT NOT NULL,
			party TEXT NOT NULL CHECK(party IN ('requesting', 'fulfilling')),
			dimension TEXT NOT NULL CHECK(dimension IN ('cost', 'quality', 'speed', 'innovation', 'risk')),
			weight INTEGER NOT NULL CHECK(weight BETWEEN 0 AND 10),
			PRIMARY KEY (session_id, party, dimension),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);
	`)
	return err
}

// migrationV2 adds seen transition tracking and the audit trail
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE sessions ADD COLUMN seen_transitions TEXT NOT NULL DEFAULT '[]'`)
	if err != nil {
		return fmt.Errorf("failed to add seen_transitions: %w", err)
	}

	_, err = tx.Exec(`
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
	`)
	if err != nil {
		return fmt.Errorf("failed to create session_events: %w", err)
	}
	return nil
}
