package models

import (
	"fmt"
	"math"
	"time"
)

// probabilitySumTolerance is the allowed deviation of a prediction's
// probability vector from 1.0.
const probabilitySumTolerance = 1e-3

// OddsQuote is one bookmaker's decimal prices for a fixture.
// Missing outcomes mean the bookmaker doesn't offer them; values <= 1.0
// are treated as absent by all consumers.
type OddsQuote struct {
	Bookmaker string              `json:"bookmaker"`
	Odds      map[Outcome]float64 `json:"odds"`
}

// ValidOdd reports whether the quote offers a usable price for the outcome.
func (q OddsQuote) ValidOdd(o Outcome) (float64, bool) {
	odd, ok := q.Odds[o]
	if !ok || !IsValidOdd(odd) {
		return 0, false
	}
	return odd, true
}

// IsValidOdd checks if a value is a usable decimal odd (> 1.0).
func IsValidOdd(v float64) bool {
	return v > 1.000001 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// FixtureOddsSnapshot is the full set of bookmaker quotes for one fixture
// at one point in time.
type FixtureOddsSnapshot struct {
	FixtureID string      `json:"fixture_id"`
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	Sport     string      `json:"sport"`
	StartTime time.Time   `json:"start_time"`
	Quotes    []OddsQuote `json:"quotes"`
}

// Name returns a human-readable fixture label.
func (s FixtureOddsSnapshot) Name() string {
	return s.HomeTeam + " vs " + s.AwayTeam
}

// ModelPrediction is one model's probability vector for a fixture.
// Confidence is optional; nil means the model reports none and it is
// excluded from confidence-based scoring.
type ModelPrediction struct {
	ModelID       string              `json:"model_id"`
	Probabilities map[Outcome]float64 `json:"probabilities"`
	Confidence    *float64            `json:"confidence,omitempty"`
}

// Validate checks that the probability vector covers the outcome set and
// sums to 1 within tolerance.
func (p ModelPrediction) Validate(set OutcomeSet) error {
	sum := 0.0
	for _, o := range set.Order {
		prob, ok := p.Probabilities[o]
		if !ok {
			return fmt.Errorf("model %s: missing probability for outcome %s", p.ModelID, o)
		}
		if prob < 0 || prob > 1 {
			return fmt.Errorf("model %s: probability for %s out of range: %v", p.ModelID, o, prob)
		}
		sum += prob
	}
	if math.Abs(sum-1.0) > probabilitySumTolerance {
		return fmt.Errorf("model %s: probabilities sum to %v, want 1.0", p.ModelID, sum)
	}
	return nil
}

// ModelPredictionSet is every model's prediction for one fixture.
type ModelPredictionSet struct {
	FixtureID   string            `json:"fixture_id"`
	Predictions []ModelPrediction `json:"predictions"`
}

// LiveSnapshot is the in-play state of one fixture: scoreboard, clock,
// live statistics and live prices.
type LiveSnapshot struct {
	FixtureID string              `json:"fixture_id"`
	Sport     string              `json:"sport"`
	HomeScore int                 `json:"home_score"`
	AwayScore int                 `json:"away_score"`
	Minute    int                 `json:"minute"`
	Stats     map[string]float64  `json:"stats"`
	Odds      map[Outcome]float64 `json:"odds"`
}
