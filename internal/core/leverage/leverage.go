// Package leverage contains the pure business logic for leverage scoring.
// This is part of the Functional Core - no I/O, only pure functions.
package leverage

// Bounds and centre of the requesting-party leverage scale.
const (
	Base  = 50
	Floor = 20
	Ceil  = 80
)

// Factors holds the intake signals leverage is derived from.
// Empty or unrecognised values contribute no adjustment.
type Factors struct {
	Competitors    string `json:"competitors,omitempty"`
	Criticality    string `json:"criticality,omitempty"`
	Alternatives   string `json:"alternatives,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	MarketPosition string `json:"market_position,omitempty"`
	SwitchingCosts string `json:"switching_costs,omitempty"`
}

// Result is the bounded leverage split between the two parties.
// Requesting + Fulfilling is always 100.
type Result struct {
	Requesting int `json:"requesting"`
	Fulfilling int `json:"fulfilling"`
}

// Contribution is one factor's delta in a leverage computation.
type Contribution struct {
	Factor string
	Value  string
	Delta  int
}

// Factor names as reported in a Breakdown.
const (
	FactorCompetitors    = "competitors"
	FactorCriticality    = "criticality"
	FactorAlternatives   = "alternatives"
	FactorTimeline       = "timeline"
	FactorMarketPosition = "market_position"
	FactorSwitchingCosts = "switching_costs"
)

// Deltas are expressed from the requesting party's point of view.
var (
	competitorDeltas = map[string]int{
		"sole-source": -20,
		"few":         -5,
		"several":     10,
		"many":        20,
	}
	criticalityDeltas = map[string]int{
		"low":              15,
		"medium":           5,
		"high":             -5,
		"mission-critical": -15,
	}
	alternativeDeltas = map[string]int{
		"none":     -15,
		"weak":     -5,
		"moderate": 5,
		"strong":   15,
	}
	timelineDeltas = map[string]int{
		"immediate": -10,
		"short":     -5,
		"normal":    0,
		"flexible":  10,
	}
	marketPositionDeltas = map[string]int{
		"small":    -5,
		"average":  0,
		"large":    5,
		"dominant": 10,
	}
	switchingCostDeltas = map[string]int{
		"high":     -10,
		"moderate": -5,
		"low":      5,
		"none":     10,
	}
)

// Breakdown returns the per-factor contributions in a fixed order.
func Breakdown(f Factors) []Contribution {
	return []Contribution{
		{Factor: FactorCompetitors, Value: f.Competitors, Delta: competitorDeltas[f.Competitors]},
		{Factor: FactorCriticality, Value: f.Criticality, Delta: criticalityDeltas[f.Criticality]},
		{Factor: FactorAlternatives, Value: f.Alternatives, Delta: alternativeDeltas[f.Alternatives]},
		{Factor: FactorTimeline, Value: f.Timeline, Delta: timelineDeltas[f.Timeline]},
		{Factor: FactorMarketPosition, Value: f.MarketPosition, Delta: marketPositionDeltas[f.MarketPosition]},
		{Factor: FactorSwitchingCosts, Value: f.SwitchingCosts, Delta: switchingCostDeltas[f.SwitchingCosts]},
	}
}

// Compute derives the leverage split from the given factors.
// The deltas are summed first and the total is clamped once, so the result
// stays inside [Floor, Ceil] however the individual factors combine.
func Compute(f Factors) Result {
	score := Base
	for _, c := range Breakdown(f) {
		score += c.Delta
	}
	score = clamp(score, Floor, Ceil)
	return Result{
		Requesting: score,
		Fulfilling: 100 - score,
	}
}

// KnownValues lists the accepted values for each factor, for prompts and help text.
func KnownValues() map[string][]string {
	return map[string][]string{
		FactorCompetitors:    {"sole-source", "few", "several", "many"},
		FactorCriticality:    {"low", "medium", "high", "mission-critical"},
		FactorAlternatives:   {"none", "weak", "moderate", "strong"},
		FactorTimeline:       {"immediate", "short", "normal", "flexible"},
		FactorMarketPosition: {"small", "average", "large", "dominant"},
		FactorSwitchingCosts: {"high", "moderate", "low", "none"},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
