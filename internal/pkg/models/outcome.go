package models

// Outcome is one result of a fixture. The set of valid outcomes is fixed
// per sport: three-way sports use home/draw/away, W5L-style basketball
// pools use win/close/loss.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"

	OutcomeWin   Outcome = "win"
	OutcomeClose Outcome = "close"
	OutcomeLoss  Outcome = "loss"
)

// OutcomeSet describes the fixed outcome universe of one sport.
// Order is the canonical iteration order: every computation that walks
// outcomes uses it, so results don't depend on map iteration.
type OutcomeSet struct {
	Order []Outcome
	// NearTie is the outcome that represents a draw or a narrow margin.
	// Empty if the sport has no such outcome.
	NearTie Outcome
}

// Contains reports whether o belongs to the set.
func (s OutcomeSet) Contains(o Outcome) bool {
	for _, c := range s.Order {
		if c == o {
			return true
		}
	}
	return false
}

// OutcomesForSport returns the outcome set for a sport identifier.
// Unknown sports fall back to the three-way football set.
func OutcomesForSport(sport string) OutcomeSet {
	switch sport {
	case "basketball_w5l", "w5l":
		return OutcomeSet{
			Order:   []Outcome{OutcomeWin, OutcomeClose, OutcomeLoss},
			NearTie: OutcomeClose,
		}
	default:
		return OutcomeSet{
			Order:   []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway},
			NearTie: OutcomeDraw,
		}
	}
}
