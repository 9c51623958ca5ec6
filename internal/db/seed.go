package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: three
// negotiations at different points of their pathways.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)

	sessions := []struct {
		id, ref, requesting, fulfilling, pathway, stage, status string
		stages, completed, skipped                              string
		finished                                                bool
	}{
		{
			"seed-0001", "NEG-0001", "Acme Logistics", "Globex Freight", "full-negotiation", "intake", "draft",
			`["intake","leverage","priorities","foundation","clauses","review","contract"]`, `[]`, `[]`, false,
		},
		{
			"seed-0002", "NEG-0002", "Initech", "Umbrella Supply", "fast-track", "foundation", "in_progress",
			`["intake","leverage","priorities","foundation","clauses","review","contract"]`, `["intake"]`, `["leverage","priorities"]`, false,
		},
		{
			"seed-0003", "NEG-0003", "Stark Components", "Wayne Industrial", "straight-to-contract", "contract", "completed",
			`["intake","leverage","priorities","foundation","clauses","review","contract"]`, `["intake","review","contract"]`, `["leverage","priorities","foundation","clauses"]`, true,
		},
	}
	for _, s := range sessions {
		var completedAt any
		if s.status == "completed" {
			completedAt = now
		}
		if _, err := database.Exec(
			`INSERT INTO sessions (id, reference, requesting_company, fulfilling_company, pathway_id, current_stage,
				status, stages, completed_stages, skipped_stages, pathway_finished, created_at, updated_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.id, s.ref, s.requesting, s.fulfilling, s.pathway, s.stage,
			s.status, s.stages, s.completed, s.skipped, s.finished, now, now, completedAt,
		); err != nil {
			return fmt.Errorf("seed sessions: %w", err)
		}
	}

	// Clauses: (session, id, title, requesting, fulfilling, priority)
	clauses := []struct {
		session, id, title string
		req, ful, priority int
	}{
		{"seed-0001", "CL-001", "Payment Terms", 3, 8, 9},
		{"seed-0001", "CL-002", "Delivery Schedule", 6, 6, 7},
		{"seed-0001", "CL-003", "Liability Cap", 2, 9, 8},
		{"seed-0002", "CL-001", "Payment Terms", 5, 6, 9},
		{"seed-0002", "CL-002", "Warranty Period", 4, 7, 6},
		{"seed-0002", "CL-003", "Termination Notice", 7, 7, 5},
		{"seed-0003", "CL-001", "Pricing", 6, 6, 10},
	}
	ordinals := map[string]int{}
	for _, c := range clauses {
		if _, err := database.Exec(
			`INSERT INTO clauses (session_id, id, ordinal, title, requesting_position, fulfilling_position, priority)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.session, c.id, ordinals[c.session], c.title, c.req, c.ful, c.priority,
		); err != nil {
			return fmt.Errorf("seed clauses: %w", err)
		}
		ordinals[c.session]++
	}

	weights := []struct {
		session, party, dimension string
		weight                    int
	}{
		{"seed-0002", "requesting", "cost", 9},
		{"seed-0002", "requesting", "quality", 8},
		{"seed-0002", "requesting", "speed", 6},
		{"seed-0002", "fulfilling", "quality", 7},
		{"seed-0002", "fulfilling", "risk", 5},
	}
	for _, w := range weights {
		if _, err := database.Exec(
			"INSERT INTO priority_weights (session_id, party, dimension, weight) VALUES (?, ?, ?, ?)",
			w.session, w.party, w.dimension, w.weight,
		); err != nil {
			return fmt.Errorf("seed priority weights: %w", err)
		}
	}

	if _, err := database.Exec(
		`INSERT INTO session_events (session_id, actor, operation, created_at) VALUES
			('seed-0001', 'system', 'initialize', ?),
			('seed-0002', 'system', 'initialize', ?),
			('seed-0003', 'system', 'initialize', ?)`,
		now, now, now,
	); err != nil {
		return fmt.Errorf("seed session events: %w", err)
	}

	return nil
}
