package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/clarence/internal/adapters/sqlite"
	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/ports/secondary"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	rec := newSessionRecord("sess-1", "NEG-0001", 3)
	compromise := 6
	rec.Clauses[1].Notes = "net 30 preferred"
	rec.Clauses[1].Recommendation = "Meet at 6"
	rec.Clauses[1].SuggestedCompromise = &compromise
	rec.RequestingWeights = map[string]int{"cost": 8, "quality": 7}
	rec.LeverageFactors = map[string]string{"alternative_suppliers": "many"}

	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.Revision != 1 {
		t.Errorf("expected revision 1, got %d", rec.Revision)
	}

	got, err := repo.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Reference != "NEG-0001" {
		t.Errorf("expected reference NEG-0001, got %s", got.Reference)
	}
	if got.Revision != 1 {
		t.Errorf("expected revision 1, got %d", got.Revision)
	}
	if len(got.Clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(got.Clauses))
	}
	for i, c := range got.Clauses {
		if c.Position != i {
			t.Errorf("clause %s: expected ordinal %d, got %d", c.ID, i, c.Position)
		}
	}
	second := got.Clauses[1]
	if second.Notes != "net 30 preferred" || second.Recommendation != "Meet at 6" {
		t.Errorf("clause advice fields not round-tripped: %+v", second)
	}
	if second.SuggestedCompromise == nil || *second.SuggestedCompromise != 6 {
		t.Errorf("expected suggested compromise 6, got %v", second.SuggestedCompromise)
	}
	if got.Clauses[0].SuggestedCompromise != nil {
		t.Error("expected nil compromise on untouched clause")
	}
	if got.RequestingWeights["cost"] != 8 || got.RequestingWeights["quality"] != 7 {
		t.Errorf("unexpected requesting weights: %v", got.RequestingWeights)
	}
	if len(got.FulfillingWeights) != 0 {
		t.Errorf("expected no fulfilling weights, got %v", got.FulfillingWeights)
	}
	if got.LeverageFactors["alternative_suppliers"] != "many" {
		t.Errorf("unexpected leverage factors: %v", got.LeverageFactors)
	}
	if len(got.Stages) != 3 || got.Stages[0] != "intake" {
		t.Errorf("unexpected stages: %v", got.Stages)
	}
	if got.CreatedAt != "2026-05-04T10:30:00Z" {
		t.Errorf("expected created_at 2026-05-04T10:30:00Z, got %s", got.CreatedAt)
	}
	if got.CompletedAt != "" {
		t.Errorf("expected empty completed_at, got %s", got.CompletedAt)
	}

	byRef, err := repo.GetByReference(ctx, "NEG-0001")
	if err != nil {
		t.Fatalf("GetByReference failed: %v", err)
	}
	if byRef.ID != "sess-1" {
		t.Errorf("expected sess-1, got %s", byRef.ID)
	}
}

func TestSessionRepository_CreateRequiresFields(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)

	rec := newSessionRecord("", "NEG-0001", 0)
	if err := repo.Create(context.Background(), rec); err == nil {
		t.Error("expected error for missing ID")
	}
}

func TestSessionRepository_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = repo.GetByReference(ctx, "NEG-9999")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_Save(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	seedSession(t, db, "sess-1", "NEG-0001", 2)

	rec, err := repo.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	rec.Status = "completed"
	rec.CurrentStage = "contract"
	rec.CompletedStages = []string{"intake", "foundation", "contract"}
	rec.SeenTransitions = []string{"foundation-agreed"}
	rec.PathwayFinished = true
	rec.CompletedAt = "2026-05-04T11:00:00Z"
	rec.UpdatedAt = "2026-05-04T11:00:00Z"
	rec.Clauses = append(rec.Clauses[1:], &secondary.ClauseRecord{
		ID: "CL-003", Title: "Warranty", RequestingPosition: 2, FulfillingPosition: 9, Priority: 8,
	})
	rec.FulfillingWeights = map[string]int{"speed": 10}

	if err := repo.Save(ctx, rec, 1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.Revision != 2 {
		t.Errorf("expected revision 2 after save, got %d", rec.Revision)
	}

	got, err := repo.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Revision != 2 {
		t.Errorf("expected stored revision 2, got %d", got.Revision)
	}
	if got.Status != "completed" || !got.PathwayFinished {
		t.Errorf("status not saved: %s finished=%v", got.Status, got.PathwayFinished)
	}
	if got.CompletedAt != "2026-05-04T11:00:00Z" {
		t.Errorf("expected completed_at 2026-05-04T11:00:00Z, got %s", got.CompletedAt)
	}
	if len(got.SeenTransitions) != 1 || got.SeenTransitions[0] != "foundation-agreed" {
		t.Errorf("unexpected seen transitions: %v", got.SeenTransitions)
	}
	if len(got.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(got.Clauses))
	}
	if got.Clauses[0].ID != "CL-002" || got.Clauses[1].ID != "CL-003" {
		t.Errorf("unexpected clause order: %s, %s", got.Clauses[0].ID, got.Clauses[1].ID)
	}
	if got.FulfillingWeights["speed"] != 10 {
		t.Errorf("unexpected fulfilling weights: %v", got.FulfillingWeights)
	}
}

func TestSessionRepository_SaveStaleRevision(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	seedSession(t, db, "sess-1", "NEG-0001", 1)

	first, _ := repo.GetByID(ctx, "sess-1")
	second, _ := repo.GetByID(ctx, "sess-1")

	first.Clauses[0].RequestingPosition = 9
	if err := repo.Save(ctx, first, first.Revision); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second.Clauses[0].FulfillingPosition = 1
	err := repo.Save(ctx, second, second.Revision)
	var conflict *apperrors.ConcurrencyConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConcurrencyConflictError, got %v", err)
	}
	if conflict.Expected != 1 || conflict.Actual != 2 {
		t.Errorf("expected conflict 1 vs 2, got %d vs %d", conflict.Expected, conflict.Actual)
	}

	got, _ := repo.GetByID(ctx, "sess-1")
	if got.Clauses[0].RequestingPosition != 9 || got.Clauses[0].FulfillingPosition != 5 {
		t.Errorf("losing write leaked into store: %+v", got.Clauses[0])
	}
}

func TestSessionRepository_SaveMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)

	rec := newSessionRecord("ghost", "NEG-0042", 0)
	err := repo.Save(context.Background(), rec, 1)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	seedSession(t, db, "sess-1", "NEG-0001", 2)
	second := seedSession(t, db, "sess-2", "NEG-0002", 0)
	third := seedSession(t, db, "sess-3", "NEG-0003", 0)

	second.Status = "in_progress"
	second.UpdatedAt = "2026-05-05T09:00:00Z"
	if err := repo.Save(ctx, second, 1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	third.Archived = true
	if err := repo.Save(ctx, third, 1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sessions, err := repo.List(ctx, secondary.SessionFilters{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 unarchived sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "sess-2" {
		t.Errorf("expected most recently updated first, got %s", sessions[0].ID)
	}
	if sessions[1].Clauses != nil {
		t.Error("List must not load clauses")
	}

	all, err := repo.List(ctx, secondary.SessionFilters{IncludeArchived: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 sessions including archived, got %d", len(all))
	}

	active, err := repo.List(ctx, secondary.SessionFilters{Status: "in_progress"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "sess-2" {
		t.Errorf("expected only sess-2 in progress, got %d sessions", len(active))
	}

	limited, err := repo.List(ctx, secondary.SessionFilters{IncludeArchived: true, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 session with limit, got %d", len(limited))
	}
}

func TestSessionRepository_GetNextReference(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	ref, err := repo.GetNextReference(ctx)
	if err != nil {
		t.Fatalf("GetNextReference failed: %v", err)
	}
	if ref != "NEG-0001" {
		t.Errorf("expected NEG-0001, got %s", ref)
	}

	seedSession(t, db, "sess-1", "NEG-0001", 0)
	seedSession(t, db, "sess-7", "NEG-0007", 0)

	ref, err = repo.GetNextReference(ctx)
	if err != nil {
		t.Fatalf("GetNextReference failed: %v", err)
	}
	if ref != "NEG-0008" {
		t.Errorf("expected NEG-0008, got %s", ref)
	}
}

func TestSessionRepository_ClauseConstraints(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSessionRepository(db)
	ctx := context.Background()

	rec := newSessionRecord("sess-1", "NEG-0001", 1)
	rec.Clauses[0].RequestingPosition = 11
	if err := repo.Create(ctx, rec); err == nil {
		t.Fatal("expected CHECK constraint failure for position 11")
	}

	// The failed transaction must not leave a partial session behind.
	if _, err := repo.GetByID(ctx, "sess-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}
