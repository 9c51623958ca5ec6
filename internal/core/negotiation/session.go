// Package negotiation contains the NegotiationSession aggregate.
// This is part of the Functional Core - no I/O, only pure functions.
// A Snapshot is the complete state of one session; commands take a snapshot
// and return a new one plus the effects the shell must carry out.
package negotiation

import (
	"time"

	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/leverage"
	"github.com/example/clarence/internal/core/party"
	"github.com/example/clarence/internal/core/pathway"
	"github.com/example/clarence/internal/core/priority"
)

// Session identifies one negotiation instance.
type Session struct {
	ID                string
	Reference         string
	RequestingCompany string
	FulfillingCompany string
	PathwayID         string
	CurrentStage      string
	Status            Status
	Archived          bool
	Revision          int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// Snapshot is everything a session owns.
type Snapshot struct {
	Session    Session
	Pathway    pathway.State
	Clauses    []alignment.Clause
	Requesting priority.Allocation
	Fulfilling priority.Allocation
	Factors    leverage.Factors
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Pathway = s.Pathway.Clone()
	out.Clauses = alignment.NewTracker(s.Clauses).Clone().Clauses()
	out.Requesting = s.Requesting.Clone()
	out.Fulfilling = s.Fulfilling.Clone()
	if s.Session.CompletedAt != nil {
		t := *s.Session.CompletedAt
		out.Session.CompletedAt = &t
	}
	return out
}

// Tracker returns an alignment tracker over the snapshot's clauses.
func (s Snapshot) Tracker() *alignment.Tracker {
	return alignment.NewTracker(s.Clauses)
}

// OverallAlignment returns the aggregate alignment percentage.
func (s Snapshot) OverallAlignment() int {
	return s.Tracker().OverallAlignment()
}

// Leverage derives the leverage split from the stored factors.
func (s Snapshot) Leverage() leverage.Result {
	return leverage.Compute(s.Factors)
}

// Allocation returns the priority allocation of p.
func (s Snapshot) Allocation(p party.Party) priority.Allocation {
	if p == party.Fulfilling {
		return s.Fulfilling
	}
	return s.Requesting
}

// GateInput builds the inputs pathway gates evaluate.
func (s Snapshot) GateInput() pathway.GateInput {
	input := pathway.GateInput{OverallAlignment: s.OverallAlignment()}
	if res := priority.CanProceed(s.Requesting, s.Fulfilling); !res.Allowed {
		input.BudgetViolation = res.Reason
	}
	return input
}
