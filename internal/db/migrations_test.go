package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func schemaVersion(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var v int
	if err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	return v
}

func hasColumn(t *testing.T, conn *sql.DB, table, column string) bool {
	t.Helper()
	var n int
	err := conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&n)
	if err != nil {
		t.Fatalf("failed to inspect %s: %v", table, err)
	}
	return n > 0
}

func TestInitSchema_FreshInstall(t *testing.T) {
	conn := openMemory(t)

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if got := schemaVersion(t, conn); got != LatestVersion() {
		t.Errorf("expected version %d, got %d", LatestVersion(), got)
	}
	if !hasColumn(t, conn, "sessions", "seen_transitions") {
		t.Error("expected seen_transitions column")
	}

	// Running again is a no-op.
	if err := InitSchema(conn); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestInitSchema_UpgradesPreVersioningDatabase(t *testing.T) {
	conn := openMemory(t)

	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatalf("migrationV1 failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	_, err = conn.Exec(`INSERT INTO sessions (id, reference, requesting_company, fulfilling_company, pathway_id, current_stage)
		VALUES ('sess-1', 'NEG-0001', 'Acme', 'Globex', 'full-negotiation', 'intake')`)
	if err != nil {
		t.Fatalf("failed to insert legacy session: %v", err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if got := schemaVersion(t, conn); got != LatestVersion() {
		t.Errorf("expected version %d, got %d", LatestVersion(), got)
	}

	var seen string
	if err := conn.QueryRow("SELECT seen_transitions FROM sessions WHERE id = 'sess-1'").Scan(&seen); err != nil {
		t.Fatalf("failed to read migrated session: %v", err)
	}
	if seen != "[]" {
		t.Errorf("expected default seen_transitions [], got %s", seen)
	}
	if !hasColumn(t, conn, "session_events", "operation") {
		t.Error("expected session_events table")
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clarence.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	var fk int
	if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Error("expected foreign keys enabled")
	}
}

func TestSeedFixtures(t *testing.T) {
	conn := openMemory(t)
	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	if err := SeedFixtures(conn); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}

	var sessions, clauses int
	if err := conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessions); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if err := conn.QueryRow("SELECT COUNT(*) FROM clauses").Scan(&clauses); err != nil {
		t.Fatalf("count clauses: %v", err)
	}
	if sessions != 3 || clauses != 7 {
		t.Errorf("expected 3 sessions and 7 clauses, got %d and %d", sessions, clauses)
	}
}
