// Package alignment contains the pure business logic for clause alignment.
// A Tracker owns the clause set and keeps every clause's derived category in
// step with its two positions.
package alignment

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/clarence/internal/apperrors"
	"github.com/example/clarence/internal/core/party"
)

// Category is the per-clause alignment signal.
type Category string

const (
	CategoryAligned Category = "aligned"
	CategoryClose   Category = "close"
	CategoryFar     Category = "far"
)

// Gap thresholds. AlignedGap/CloseGap drive the per-clause category;
// CountedGap drives the aggregate percentage used for pathway gating.
// The two are intentionally different.
const (
	AlignedGap = 1
	CloseGap   = 3
	CountedGap = 2
)

// Position and priority bounds.
const (
	MinPosition = 1
	MaxPosition = 10
	MinPriority = 1
	MaxPriority = 10
)

// Clause is one negotiable term.
type Clause struct {
	ID                  string
	Title               string
	Description         string
	RequestingPosition  int
	FulfillingPosition  int
	Priority            int
	Category            Category
	Notes               string
	Recommendation      string
	SuggestedCompromise *int
}

// Gap returns the absolute distance between the two positions.
func (c Clause) Gap() int {
	gap := c.RequestingPosition - c.FulfillingPosition
	if gap < 0 {
		return -gap
	}
	return gap
}

// HasRecommendation reports whether advice is attached to the clause.
func (c Clause) HasRecommendation() bool {
	return c.Recommendation != "" || c.SuggestedCompromise != nil
}

// Position returns the position held by p.
func (c Clause) Position(p party.Party) int {
	if p == party.Fulfilling {
		return c.FulfillingPosition
	}
	return c.RequestingPosition
}

// Categorize maps a position pair to its category.
func Categorize(requesting, fulfilling int) Category {
	gap := requesting - fulfilling
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap <= AlignedGap:
		return CategoryAligned
	case gap <= CloseGap:
		return CategoryClose
	default:
		return CategoryFar
	}
}

// Tracker maintains the clause set of one session.
type Tracker struct {
	clauses []Clause
}

// NewTracker builds a tracker over existing clauses, recomputing every
// category so a loaded snapshot can never carry a stale one.
func NewTracker(clauses []Clause) *Tracker {
	t := &Tracker{clauses: make([]Clause, len(clauses))}
	copy(t.clauses, clauses)
	for i := range t.clauses {
		t.clauses[i].Category = Categorize(t.clauses[i].RequestingPosition, t.clauses[i].FulfillingPosition)
	}
	return t
}

// Clone returns a deep copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	out := &Tracker{clauses: make([]Clause, len(t.clauses))}
	copy(out.clauses, t.clauses)
	for i := range out.clauses {
		if sc := out.clauses[i].SuggestedCompromise; sc != nil {
			v := *sc
			out.clauses[i].SuggestedCompromise = &v
		}
	}
	return out
}

// Clauses returns a copy of the clause set in insertion order.
func (t *Tracker) Clauses() []Clause {
	out := make([]Clause, len(t.clauses))
	copy(out, t.clauses)
	return out
}

// Len returns the number of clauses.
func (t *Tracker) Len() int {
	return len(t.clauses)
}

// Get returns the clause with the given id.
func (t *Tracker) Get(clauseID string) (Clause, error) {
	i, err := t.index(clauseID)
	if err != nil {
		return Clause{}, err
	}
	return t.clauses[i], nil
}

// Add appends a clause. Positions and priority are validated the same way
// the setters validate them.
func (t *Tracker) Add(c Clause) error {
	if strings.TrimSpace(c.ID) == "" {
		return &apperrors.ValidationError{Field: "clause id", Reason: "is required"}
	}
	if strings.TrimSpace(c.Title) == "" {
		return &apperrors.ValidationError{Field: "clause title", Reason: "is required"}
	}
	if _, err := t.index(c.ID); err == nil {
		return &apperrors.ValidationError{Field: "clause id", Value: c.ID, Reason: "already exists"}
	}
	if err := validatePosition(c.RequestingPosition); err != nil {
		return err
	}
	if err := validatePosition(c.FulfillingPosition); err != nil {
		return err
	}
	if err := validatePriority(c.Priority); err != nil {
		return err
	}
	c.Category = Categorize(c.RequestingPosition, c.FulfillingPosition)
	t.clauses = append(t.clauses, c)
	return nil
}

// SetPosition updates one party's position on a clause, recomputes its
// category and drops any recommendation computed for the old position pair.
func (t *Tracker) SetPosition(clauseID string, p party.Party, value int) error {
	if !p.Valid() {
		return &apperrors.ValidationError{Field: "party", Value: string(p), Reason: "must be requesting or fulfilling"}
	}
	if err := validatePosition(value); err != nil {
		return err
	}
	i, err := t.index(clauseID)
	if err != nil {
		return err
	}

	c := &t.clauses[i]
	if p == party.Requesting {
		c.RequestingPosition = value
	} else {
		c.FulfillingPosition = value
	}
	c.Category = Categorize(c.RequestingPosition, c.FulfillingPosition)
	c.Recommendation = ""
	c.SuggestedCompromise = nil
	return nil
}

// SetPriority updates a clause's priority (1-10).
func (t *Tracker) SetPriority(clauseID string, value int) error {
	if err := validatePriority(value); err != nil {
		return err
	}
	i, err := t.index(clauseID)
	if err != nil {
		return err
	}
	t.clauses[i].Priority = value
	return nil
}

// SetNotes replaces a clause's free-text notes.
func (t *Tracker) SetNotes(clauseID, notes string) error {
	i, err := t.index(clauseID)
	if err != nil {
		return err
	}
	t.clauses[i].Notes = notes
	return nil
}

// SetRecommendation attaches advice to a clause. A nil compromise leaves the
// suggested compromise unset.
func (t *Tracker) SetRecommendation(clauseID, text string, compromise *int) error {
	i, err := t.index(clauseID)
	if err != nil {
		return err
	}
	if compromise != nil {
		if err := validatePosition(*compromise); err != nil {
			return err
		}
		v := *compromise
		compromise = &v
	}
	t.clauses[i].Recommendation = text
	t.clauses[i].SuggestedCompromise = compromise
	return nil
}

// OverallAlignment returns the share of clauses whose gap is within
// CountedGap, as a rounded percentage. It is recomputed on every call.
func (t *Tracker) OverallAlignment() int {
	if len(t.clauses) == 0 {
		return 0
	}
	counted := 0
	for _, c := range t.clauses {
		if c.Gap() <= CountedGap {
			counted++
		}
	}
	return int(math.Round(100 * float64(counted) / float64(len(t.clauses))))
}

// CategoryCounts tallies clauses per category.
func (t *Tracker) CategoryCounts() map[Category]int {
	counts := map[Category]int{
		CategoryAligned: 0,
		CategoryClose:   0,
		CategoryFar:     0,
	}
	for _, c := range t.clauses {
		counts[c.Category]++
	}
	return counts
}

func (t *Tracker) index(clauseID string) (int, error) {
	for i := range t.clauses {
		if t.clauses[i].ID == clauseID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("clause %s: %w", clauseID, apperrors.ErrNotFound)
}

func validatePosition(v int) error {
	if v < MinPosition || v > MaxPosition {
		return &apperrors.ValidationError{
			Field:  "position",
			Value:  v,
			Reason: fmt.Sprintf("must be between %d and %d", MinPosition, MaxPosition),
		}
	}
	return nil
}

func validatePriority(v int) error {
	if v < MinPriority || v > MaxPriority {
		return &apperrors.ValidationError{
			Field:  "priority",
			Value:  v,
			Reason: fmt.Sprintf("must be between %d and %d", MinPriority, MaxPriority),
		}
	}
	return nil
}
