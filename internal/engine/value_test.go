package engine

import (
	"math"
	"testing"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		odds   float64
		want   float64
		wantOK bool
	}{
		{2.0, 0.5, true},
		{4.0, 0.25, true},
		{1.0, 1.0, true},
		{0, 0, false},
		{-1.5, 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, ok := ImpliedProbability(tt.odds)
		if ok != tt.wantOK || (ok && !floatEq(got, tt.want)) {
			t.Errorf("ImpliedProbability(%v) = (%v, %v), want (%v, %v)", tt.odds, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValueScore_SignMatchesEdge(t *testing.T) {
	tests := []struct {
		prob, odds float64
		want       float64
		wantOK     bool
	}{
		{0.55, 2.0, 0.10, true},
		{0.40, 2.0, -0.20, true},
		{0.50, 2.0, 0.0, true},
		{0.55, 0, 0, false},
		{0.55, -2, 0, false},
	}
	for _, tt := range tests {
		got, ok := ValueScore(tt.prob, tt.odds)
		if ok != tt.wantOK || (ok && !floatEq(got, tt.want)) {
			t.Errorf("ValueScore(%v, %v) = (%v, %v), want (%v, %v)", tt.prob, tt.odds, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBestPrices_MaxAcrossBookmakers(t *testing.T) {
	set := models.OutcomesForSport("football")
	snap := models.FixtureOddsSnapshot{
		Sport: "football",
		Quotes: []models.OddsQuote{
			{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
				models.OutcomeHome: 2.10, models.OutcomeDraw: 3.30,
			}},
			{Bookmaker: "beta", Odds: map[models.Outcome]float64{
				models.OutcomeHome: 2.05, models.OutcomeDraw: 3.60, models.OutcomeAway: 3.90,
			}},
			{Bookmaker: "gamma", Odds: map[models.Outcome]float64{
				models.OutcomeAway: 0.9, // invalid, treated as absent
			}},
		},
	}

	best := BestPrices(snap, set)

	if bp := best[models.OutcomeHome]; bp.Bookmaker != "alpha" || !floatEq(bp.Odds, 2.10) {
		t.Errorf("best home = %+v, want alpha 2.10", bp)
	}
	if bp := best[models.OutcomeDraw]; bp.Bookmaker != "beta" || !floatEq(bp.Odds, 3.60) {
		t.Errorf("best draw = %+v, want beta 3.60", bp)
	}
	if bp := best[models.OutcomeAway]; bp.Bookmaker != "beta" || !floatEq(bp.Odds, 3.90) {
		t.Errorf("best away = %+v, want beta 3.90 (gamma's 0.9 is invalid)", bp)
	}
}

func TestPickBestValue(t *testing.T) {
	set := models.OutcomesForSport("football")
	probs := map[models.Outcome]float64{
		models.OutcomeHome: 0.50,
		models.OutcomeDraw: 0.30,
		models.OutcomeAway: 0.20,
	}
	best := map[models.Outcome]BestPrice{
		models.OutcomeHome: {Bookmaker: "alpha", Odds: 2.0},  // score 0.0
		models.OutcomeDraw: {Bookmaker: "beta", Odds: 3.8},   // score 0.14
		models.OutcomeAway: {Bookmaker: "gamma", Odds: 4.50}, // score -0.10
	}

	pick := PickBestValue(probs, best, set)
	if pick.Outcome != models.OutcomeDraw || !pick.Valid {
		t.Fatalf("pick = %+v, want valid draw", pick)
	}
	if !floatEq(pick.Score, 0.14) {
		t.Errorf("pick.Score = %v, want 0.14", pick.Score)
	}
	if pick.Bookmaker != "beta" {
		t.Errorf("pick.Bookmaker = %q, want beta", pick.Bookmaker)
	}
}

func TestPickBestValue_UndefinedNeverBeatsNumeric(t *testing.T) {
	set := models.OutcomesForSport("football")
	probs := map[models.Outcome]float64{
		models.OutcomeHome: 0.10,
		models.OutcomeDraw: 0.10,
		models.OutcomeAway: 0.80,
	}
	// Away (high probability) has no offered odds; home has a deeply
	// negative score but is still preferred over no assessment.
	best := map[models.Outcome]BestPrice{
		models.OutcomeHome: {Bookmaker: "alpha", Odds: 1.5},
	}

	pick := PickBestValue(probs, best, set)
	if pick.Outcome != models.OutcomeHome || !pick.Valid {
		t.Errorf("pick = %+v, want home (only priced outcome)", pick)
	}
}

func TestPickBestValue_AllUndefined(t *testing.T) {
	set := models.OutcomesForSport("football")
	probs := map[models.Outcome]float64{
		models.OutcomeHome: 0.4, models.OutcomeDraw: 0.3, models.OutcomeAway: 0.3,
	}

	pick := PickBestValue(probs, map[models.Outcome]BestPrice{}, set)
	if pick.Valid {
		t.Fatalf("pick with no prices should be invalid: %+v", pick)
	}
	// Deterministic: first outcome in canonical order.
	if pick.Outcome != models.OutcomeHome {
		t.Errorf("pick.Outcome = %v, want home", pick.Outcome)
	}
}
