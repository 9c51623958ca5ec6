package alignment

import (
	"errors"
	"testing"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/core/party"
)

func intPtr(v int) *int { return &v }

func newClause(id string, req, ful int) Clause {
	return Clause{ID: id, Title: "Clause " + id, RequestingPosition: req, FulfillingPosition: ful, Priority: 5}
}

func TestCategorize(t *testing.T) {
	for req := MinPosition; req <= MaxPosition; req++ {
		for ful := MinPosition; ful <= MaxPosition; ful++ {
			gap := req - ful
			if gap < 0 {
				gap = -gap
			}
			var want Category
			switch {
			case gap <= 1:
				want = CategoryAligned
			case gap <= 3:
				want = CategoryClose
			default:
				want = CategoryFar
			}
			if got := Categorize(req, ful); got != want {
				t.Errorf("Categorize(%d, %d) = %q, want %q", req, ful, got, want)
			}
		}
	}
}

func TestTracker_OverallAlignment(t *testing.T) {
	tests := []struct {
		name    string
		clauses []Clause
		want    int
	}{
		{name: "empty clause set is zero", clauses: nil, want: 0},
		{
			name:    "all gaps within two is 100",
			clauses: []Clause{newClause("CL-001", 5, 5), newClause("CL-002", 3, 5), newClause("CL-003", 9, 8)},
			want:    100,
		},
		{
			name:    "gap of two counts even though the category is close",
			clauses: []Clause{newClause("CL-001", 4, 6)},
			want:    100,
		},
		{
			name:    "gap of three does not count",
			clauses: []Clause{newClause("CL-001", 2, 5)},
			want:    0,
		},
		{
			name:    "rounds to nearest percent",
			clauses: []Clause{newClause("CL-001", 5, 5), newClause("CL-002", 1, 10), newClause("CL-003", 1, 10)},
			want:    33,
		},
		{
			name:    "two of three rounds up",
			clauses: []Clause{newClause("CL-001", 5, 5), newClause("CL-002", 5, 6), newClause("CL-003", 1, 10)},
			want:    67,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(tt.clauses)
			if got := tr.OverallAlignment(); got != tt.want {
				t.Errorf("OverallAlignment() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTracker_SetPosition(t *testing.T) {
	tests := []struct {
		name         string
		party        party.Party
		value        int
		wantErr      bool
		wantCategory Category
	}{
		{name: "requesting within range", party: party.Requesting, value: 7, wantCategory: CategoryClose},
		{name: "fulfilling far apart", party: party.Fulfilling, value: 10, wantCategory: CategoryFar},
		{name: "below range rejected", party: party.Requesting, value: 0, wantErr: true},
		{name: "above range rejected", party: party.Fulfilling, value: 11, wantErr: true},
		{name: "unknown party rejected", party: party.Party("broker"), value: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker([]Clause{newClause("CL-001", 5, 5)})
			err := tr.SetPosition("CL-001", tt.party, tt.value)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("SetPosition() error = %v, want ValidationError", err)
				}
				c, _ := tr.Get("CL-001")
				if c.RequestingPosition != 5 || c.FulfillingPosition != 5 {
					t.Errorf("rejected SetPosition() changed positions to (%d,%d)", c.RequestingPosition, c.FulfillingPosition)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetPosition() unexpected error: %v", err)
			}
			c, _ := tr.Get("CL-001")
			if c.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", c.Category, tt.wantCategory)
			}
		})
	}
}

func TestTracker_SetPositionClearsRecommendation(t *testing.T) {
	tr := NewTracker([]Clause{newClause("CL-001", 5, 5)})

	c, _ := tr.Get("CL-001")
	if c.Category != CategoryAligned {
		t.Fatalf("initial Category = %q, want %q", c.Category, CategoryAligned)
	}

	if err := tr.SetRecommendation("CL-001", "Meet in the middle", intPtr(5)); err != nil {
		t.Fatalf("SetRecommendation() error: %v", err)
	}
	if err := tr.SetPosition("CL-001", party.Fulfilling, 9); err != nil {
		t.Fatalf("SetPosition() error: %v", err)
	}

	c, _ = tr.Get("CL-001")
	if c.Gap() != 4 {
		t.Errorf("Gap() = %d, want 4", c.Gap())
	}
	if c.Category != CategoryFar {
		t.Errorf("Category = %q, want %q", c.Category, CategoryFar)
	}
	if c.Recommendation != "" {
		t.Errorf("Recommendation = %q, want empty", c.Recommendation)
	}
	if c.SuggestedCompromise != nil {
		t.Errorf("SuggestedCompromise = %v, want nil", *c.SuggestedCompromise)
	}
}

func TestTracker_SetPositionUnknownClause(t *testing.T) {
	tr := NewTracker(nil)
	err := tr.SetPosition("CL-404", party.Requesting, 5)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("SetPosition() error = %v, want ErrNotFound", err)
	}
}

func TestTracker_Add(t *testing.T) {
	tests := []struct {
		name    string
		clause  Clause
		wantErr bool
	}{
		{name: "valid clause", clause: newClause("CL-002", 3, 8)},
		{name: "duplicate id", clause: newClause("CL-001", 3, 8), wantErr: true},
		{name: "missing title", clause: Clause{ID: "CL-003", RequestingPosition: 5, FulfillingPosition: 5, Priority: 5}, wantErr: true},
		{name: "position out of range", clause: newClause("CL-004", 0, 5), wantErr: true},
		{name: "priority out of range", clause: Clause{ID: "CL-005", Title: "x", RequestingPosition: 5, FulfillingPosition: 5, Priority: 11}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker([]Clause{newClause("CL-001", 5, 5)})
			err := tr.Add(tt.clause)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				c, err := tr.Get(tt.clause.ID)
				if err != nil {
					t.Fatalf("Get() error: %v", err)
				}
				if c.Category != CategoryFar {
					t.Errorf("Category = %q, want %q", c.Category, CategoryFar)
				}
			}
		})
	}
}

func TestTracker_SetPriorityAndNotes(t *testing.T) {
	tr := NewTracker([]Clause{newClause("CL-001", 5, 5)})

	if err := tr.SetPriority("CL-001", 9); err != nil {
		t.Fatalf("SetPriority() error: %v", err)
	}
	if err := tr.SetPriority("CL-001", 0); err == nil {
		t.Error("SetPriority(0) error = nil, want ValidationError")
	}
	if err := tr.SetNotes("CL-001", "legal to review"); err != nil {
		t.Fatalf("SetNotes() error: %v", err)
	}

	c, _ := tr.Get("CL-001")
	if c.Priority != 9 {
		t.Errorf("Priority = %d, want 9", c.Priority)
	}
	if c.Notes != "legal to review" {
		t.Errorf("Notes = %q, want %q", c.Notes, "legal to review")
	}
}

func TestTracker_CloneIsIndependent(t *testing.T) {
	tr := NewTracker([]Clause{newClause("CL-001", 5, 5)})
	_ = tr.SetRecommendation("CL-001", "hold", intPtr(5))

	clone := tr.Clone()
	_ = clone.SetPosition("CL-001", party.Requesting, 1)

	c, _ := tr.Get("CL-001")
	if c.RequestingPosition != 5 || c.Recommendation != "hold" {
		t.Errorf("original clause mutated through clone: %+v", c)
	}
}

func TestNewTracker_RecomputesCategory(t *testing.T) {
	stale := newClause("CL-001", 1, 10)
	stale.Category = CategoryAligned

	tr := NewTracker([]Clause{stale})
	c, _ := tr.Get("CL-001")
	if c.Category != CategoryFar {
		t.Errorf("Category = %q, want %q", c.Category, CategoryFar)
	}
}
