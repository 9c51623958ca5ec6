// Package advice contains AdviceGenerator implementations.
package advice

import (
	"context"
	"fmt"
	"math"

	"github.com/example/clarence/internal/ports/secondary"
)

// OfflineGenerator produces deterministic advice without a model: the
// suggested compromise sits between the two positions, pulled toward the
// party holding more leverage.
type OfflineGenerator struct{}

// NewOfflineGenerator creates an offline advice generator.
func NewOfflineGenerator() *OfflineGenerator {
	return &OfflineGenerator{}
}

// Advise implements secondary.AdviceGenerator.
func (g *OfflineGenerator) Advise(ctx context.Context, req secondary.AdviceRequest) (*secondary.Advice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compromise := WeightedCompromise(req)
	favoured := req.RequestingCompany
	if req.FulfillingLeverage > req.RequestingLeverage {
		favoured = req.FulfillingCompany
	}

	var text string
	switch {
	case req.RequestingLeverage == req.FulfillingLeverage:
		text = fmt.Sprintf("Leverage is balanced on %q. Meet in the middle at %d.", req.ClauseTitle, compromise)
	case req.Priority >= 8:
		text = fmt.Sprintf("%q is high priority and %s holds more leverage. Settle at %d and trade concessions on lower-priority clauses.",
			req.ClauseTitle, favoured, compromise)
	default:
		text = fmt.Sprintf("%s holds more leverage on %q. Settle at %d.", favoured, req.ClauseTitle, compromise)
	}

	return &secondary.Advice{Recommendation: text, SuggestedCompromise: &compromise}, nil
}

// WeightedCompromise returns the leverage-weighted point between the two
// positions, rounded and kept on the 1-10 scale.
func WeightedCompromise(req secondary.AdviceRequest) int {
	total := req.RequestingLeverage + req.FulfillingLeverage
	if total <= 0 {
		return clamp(int(math.Round(float64(req.RequestingPosition+req.FulfillingPosition) / 2)))
	}
	weighted := float64(req.RequestingPosition*req.RequestingLeverage+req.FulfillingPosition*req.FulfillingLeverage) / float64(total)
	return clamp(int(math.Round(weighted)))
}

func clamp(v int) int {
	return max(1, min(10, v))
}
