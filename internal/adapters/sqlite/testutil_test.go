// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/clarence/internal/adapters/sqlite"
	"github.com/example/clarence/internal/db"
	"github.com/example/clarence/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// newSessionRecord builds a session record with n clauses at positions (5, 5).
func newSessionRecord(id, reference string, clauses int) *secondary.SessionRecord {
	rec := &secondary.SessionRecord{
		ID:                id,
		Reference:         reference,
		RequestingCompany: "Acme",
		FulfillingCompany: "Globex",
		PathwayID:         "full-negotiation",
		CurrentStage:      "intake",
		Status:            "draft",
		Stages:            []string{"intake", "foundation", "contract"},
		CompletedStages:   []string{},
		SkippedStages:     []string{},
		SeenTransitions:   []string{},
		LeverageFactors:   map[string]string{},
		RequestingWeights: map[string]int{},
		FulfillingWeights: map[string]int{},
		CreatedAt:         "2026-05-04T10:30:00Z",
		UpdatedAt:         "2026-05-04T10:30:00Z",
	}
	for i := 1; i <= clauses; i++ {
		rec.Clauses = append(rec.Clauses, &secondary.ClauseRecord{
			ID:                 fmt.Sprintf("CL-%03d", i),
			Position:           i - 1,
			Title:              fmt.Sprintf("Clause %d", i),
			RequestingPosition: 5,
			FulfillingPosition: 5,
			Priority:           5,
		})
	}
	return rec
}

// seedSession creates a session through the repository and returns it.
func seedSession(t *testing.T, testDB *sql.DB, id, reference string, clauses int) *secondary.SessionRecord {
	t.Helper()
	rec := newSessionRecord(id, reference, clauses)
	if err := sqlite.NewSessionRepository(testDB).Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return rec
}
