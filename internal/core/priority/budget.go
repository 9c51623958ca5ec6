// Package priority contains the pure business logic for priority budgets.
// A party spreads a fixed number of points across the priority dimensions;
// over-allocation is reported, never corrected.
package priority

import (
	"fmt"

	"github.com/example/clarence/internal/apperrors"
)

// Dimension is one axis a party can weight.
type Dimension string

const (
	Cost       Dimension = "cost"
	Quality    Dimension = "quality"
	Speed      Dimension = "speed"
	Innovation Dimension = "innovation"
	Risk       Dimension = "risk"
)

// Budget is the total number of points a party may allocate.
const Budget = 25

// Weight bounds per dimension.
const (
	MinWeight = 0
	MaxWeight = 10
)

// Dimensions returns the fixed dimension set in display order.
func Dimensions() []Dimension {
	return []Dimension{Cost, Quality, Speed, Innovation, Risk}
}

// ParseDimension validates a dimension name.
func ParseDimension(raw string) (Dimension, error) {
	for _, d := range Dimensions() {
		if string(d) == raw {
			return d, nil
		}
	}
	return "", &apperrors.ValidationError{Field: "dimension", Value: raw, Reason: "unknown priority dimension"}
}

// Allocation is one party's weighting across the dimensions.
type Allocation struct {
	weights map[Dimension]int
}

// NewAllocation returns an empty allocation (all weights zero).
func NewAllocation() Allocation {
	return Allocation{weights: map[Dimension]int{}}
}

// AllocationFrom builds an allocation from stored weights. Unknown
// dimensions are dropped; out-of-range weights are kept as stored so the
// over-budget state stays visible.
func AllocationFrom(weights map[Dimension]int) Allocation {
	a := NewAllocation()
	for _, d := range Dimensions() {
		if v, ok := weights[d]; ok {
			a.weights[d] = v
		}
	}
	return a
}

// Clone returns an independent copy.
func (a Allocation) Clone() Allocation {
	return AllocationFrom(a.weights)
}

// SetWeight sets the weight for a dimension. It only rejects values outside
// [MinWeight, MaxWeight]; exceeding the budget is allowed and reported by
// RemainingBudget/IsValid.
func (a *Allocation) SetWeight(d Dimension, value int) error {
	if _, err := ParseDimension(string(d)); err != nil {
		return err
	}
	if value < MinWeight || value > MaxWeight {
		return &apperrors.ValidationError{
			Field:  "weight",
			Value:  value,
			Reason: fmt.Sprintf("must be between %d and %d", MinWeight, MaxWeight),
		}
	}
	if a.weights == nil {
		a.weights = map[Dimension]int{}
	}
	a.weights[d] = value
	return nil
}

// Weight returns the weight of a dimension (zero when unset).
func (a Allocation) Weight(d Dimension) int {
	return a.weights[d]
}

// Weights returns a copy of all weights, including zero entries for unset dimensions.
func (a Allocation) Weights() map[Dimension]int {
	out := make(map[Dimension]int, len(Dimensions()))
	for _, d := range Dimensions() {
		out[d] = a.weights[d]
	}
	return out
}

// Total returns the sum of all weights.
func (a Allocation) Total() int {
	total := 0
	for _, v := range a.weights {
		total += v
	}
	return total
}

// RemainingBudget returns Budget minus the total. It may be negative.
func (a Allocation) RemainingBudget() int {
	return Budget - a.Total()
}

// IsValid reports whether the allocation fits in the budget.
func (a Allocation) IsValid() bool {
	return a.RemainingBudget() >= 0
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &apperrors.ValidationError{Field: "priorities", Reason: r.Reason}
}

// CanProceed evaluates whether both parties' allocations fit the budget.
// Rules:
// - Each allocation's remaining budget must be >= 0
func CanProceed(requesting, fulfilling Allocation) GuardResult {
	if !requesting.IsValid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("requesting party is %d point(s) over the %d point budget", -requesting.RemainingBudget(), Budget),
		}
	}
	if !fulfilling.IsValid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("fulfilling party is %d point(s) over the %d point budget", -fulfilling.RemainingBudget(), Budget),
		}
	}
	return GuardResult{Allowed: true}
}
