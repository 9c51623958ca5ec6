package pathway

import "slices"

// ShouldShowTransition reports whether the interstitial transitionID should
// be shown for a session in state s. Both endpoints must be stages the
// session visits. It is a pure lookup and never records the transition as seen.
func ShouldShowTransition(cat Catalogue, s State, transitionID string) bool {
	t, ok := cat.Transition(transitionID)
	if !ok {
		return false
	}
	if !t.AppliesTo(s.PathwayID) {
		return false
	}
	if !visits(s, t.From) || !visits(s, t.To) {
		return false
	}
	if t.ShowOnce && slices.Contains(s.SeenTransitions, transitionID) {
		return false
	}
	return true
}

func visits(s State, stage string) bool {
	return slices.Contains(s.Stages, stage) && !s.IsSkipped(stage)
}

// TransitionBetween returns the interstitial configured for the from->to
// step on a pathway, if any.
func TransitionBetween(cat Catalogue, pathwayID, from, to string) (TransitionDefinition, bool) {
	for _, t := range cat.Transitions {
		if t.From == from && t.To == to && t.AppliesTo(pathwayID) {
			return t, true
		}
	}
	return TransitionDefinition{}, false
}

// MarkTransitionSeen records that the interstitial has been shown.
// Marking twice is a no-op.
func MarkTransitionSeen(s State, transitionID string) State {
	if slices.Contains(s.SeenTransitions, transitionID) {
		return s
	}
	out := s.Clone()
	out.SeenTransitions = append(out.SeenTransitions, transitionID)
	return out
}
