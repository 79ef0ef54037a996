package engine

import (
	"math"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// ValueAssessment scores one outcome's model probability against the
// best offered price. Valid=false is the explicit "no assessment" state
// (missing or unusable odds), distinct from a zero edge.
type ValueAssessment struct {
	Outcome            models.Outcome `json:"outcome"`
	Bookmaker          string         `json:"bookmaker,omitempty"`
	Odds               float64        `json:"odds,omitempty"`
	ModelProbability   float64        `json:"model_probability"`
	ImpliedProbability float64        `json:"implied_probability,omitempty"`
	Score              float64        `json:"score"`
	Valid              bool           `json:"valid"`
}

// ImpliedProbability converts a decimal odd to its break-even
// probability 1/odds. The second return is false for absent or
// non-positive odds.
func ImpliedProbability(odds float64) (float64, bool) {
	if odds <= 0 || math.IsInf(odds, 0) || math.IsNaN(odds) {
		return 0, false
	}
	return 1.0 / odds, true
}

// ValueScore is the edge of a model probability against a price:
// modelProb*odds - 1, rounded to 4 decimals. Positive means positive
// expected value per unit staked.
func ValueScore(modelProb, odds float64) (float64, bool) {
	if _, ok := ImpliedProbability(odds); !ok {
		return 0, false
	}
	return round4(modelProb*odds - 1), true
}

// BestPrice is the highest offered odd for one outcome and where it was
// found.
type BestPrice struct {
	Bookmaker string  `json:"bookmaker"`
	Odds      float64 `json:"odds"`
}

// BestPrices returns the maximum valid odd per outcome across all quotes
// of a snapshot. Outcomes nobody offers are absent from the result.
// Ties go to the quote seen first, so results are stable for a given
// quote order.
func BestPrices(snap models.FixtureOddsSnapshot, set models.OutcomeSet) map[models.Outcome]BestPrice {
	best := make(map[models.Outcome]BestPrice, len(set.Order))
	for _, o := range set.Order {
		for _, q := range snap.Quotes {
			odd, ok := q.ValidOdd(o)
			if !ok {
				continue
			}
			if cur, seen := best[o]; !seen || odd > cur.Odds {
				best[o] = BestPrice{Bookmaker: q.Bookmaker, Odds: odd}
			}
		}
	}
	return best
}

// PickBestValue computes the value score per outcome at the best offered
// price and selects the outcome with the maximum score. An outcome with
// no usable odds is never selected over one with any numeric score; if
// every outcome is undefined the first outcome in canonical order is
// returned with Valid=false.
func PickBestValue(probs map[models.Outcome]float64, best map[models.Outcome]BestPrice, set models.OutcomeSet) ValueAssessment {
	pick := ValueAssessment{}
	for _, o := range set.Order {
		a := ValueAssessment{
			Outcome:          o,
			ModelProbability: probs[o],
		}
		if bp, ok := best[o]; ok {
			if score, ok := ValueScore(probs[o], bp.Odds); ok {
				imp, _ := ImpliedProbability(bp.Odds)
				a.Bookmaker = bp.Bookmaker
				a.Odds = bp.Odds
				a.ImpliedProbability = imp
				a.Score = score
				a.Valid = true
			}
		}
		if pick.Outcome == "" {
			pick = a
			continue
		}
		if a.Valid && (!pick.Valid || a.Score > pick.Score) {
			pick = a
		}
	}
	return pick
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
