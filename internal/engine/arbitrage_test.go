package engine

import (
	"math"
	"testing"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

func threeWaySnapshot(quotes ...models.OddsQuote) models.FixtureOddsSnapshot {
	return models.FixtureOddsSnapshot{
		FixtureID: "football|arsenal|liverpool",
		HomeTeam:  "Arsenal",
		AwayTeam:  "Liverpool",
		Sport:     "football",
		Quotes:    quotes,
	}
}

func TestDetect_NoOpportunityWhenImpliedSumAboveOne(t *testing.T) {
	d := NewArbitrageDetector(ArbitrageConfig{})

	// Best odds {2.10, 3.40, 4.00}: implied sum 1.0203.
	snap := threeWaySnapshot(models.OddsQuote{
		Bookmaker: "alpha",
		Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.10,
			models.OutcomeDraw: 3.40,
			models.OutcomeAway: 4.00,
		},
	})

	if opp := d.Detect(snap); opp != nil {
		t.Errorf("implied sum >= 1 must yield no opportunity, got %+v", opp)
	}
}

func TestDetect_Opportunity(t *testing.T) {
	d := NewArbitrageDetector(ArbitrageConfig{TotalStake: 100})

	// Best odds across books: {home 2.20 alpha, draw 3.60 beta, away 4.20 alpha}.
	snap := threeWaySnapshot(
		models.OddsQuote{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.20,
			models.OutcomeDraw: 3.30,
			models.OutcomeAway: 4.20,
		}},
		models.OddsQuote{Bookmaker: "beta", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.05,
			models.OutcomeDraw: 3.60,
			models.OutcomeAway: 3.90,
		}},
	)

	opp := d.Detect(snap)
	if opp == nil {
		t.Fatal("expected an opportunity for implied sum 0.9704")
	}

	if !floatEq(opp.ProfitMargin, 3.05) {
		t.Errorf("margin = %v, want 3.05", opp.ProfitMargin)
	}

	if opp.Stakes[models.OutcomeHome].Bookmaker != "alpha" ||
		opp.Stakes[models.OutcomeDraw].Bookmaker != "beta" ||
		opp.Stakes[models.OutcomeAway].Bookmaker != "alpha" {
		t.Errorf("stake split picked wrong bookmakers: %+v", opp.Stakes)
	}

	total := 0.0
	for _, s := range opp.Stakes {
		total += s.Amount
	}
	if math.Abs(total-opp.TotalStake) > 0.05 {
		t.Errorf("stake split sums to %v, want %v within rounding", total, opp.TotalStake)
	}
}

func TestDetect_PayoutInvariance(t *testing.T) {
	d := NewArbitrageDetector(ArbitrageConfig{})

	snap := threeWaySnapshot(
		models.OddsQuote{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.20,
			models.OutcomeDraw: 3.60,
			models.OutcomeAway: 4.20,
		}},
	)

	opp := d.Detect(snap)
	if opp == nil {
		t.Fatal("expected an opportunity")
	}

	// Whichever outcome occurs, net profit must match the guarantee.
	for o, s := range opp.Stakes {
		profit := s.Amount*s.Odds - opp.TotalStake
		if math.Abs(profit-opp.GuaranteedProfit) > 0.05 {
			t.Errorf("outcome %s: profit %v, want %v within rounding", o, profit, opp.GuaranteedProfit)
		}
	}
}

func TestDetect_MissingOutcomeMeansNoOpportunity(t *testing.T) {
	d := NewArbitrageDetector(ArbitrageConfig{})

	// Nobody offers the draw; required outcome missing.
	snap := threeWaySnapshot(
		models.OddsQuote{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 3.00,
			models.OutcomeAway: 3.00,
		}},
		models.OddsQuote{Bookmaker: "beta", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 3.10,
			models.OutcomeDraw: 0.8, // invalid price, treated as absent
		}},
	)

	if opp := d.Detect(snap); opp != nil {
		t.Errorf("missing outcome must yield no opportunity, got %+v", opp)
	}
}

func TestDetectAll_FiltersByMinMargin(t *testing.T) {
	arb := threeWaySnapshot(
		models.OddsQuote{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.20,
			models.OutcomeDraw: 3.60,
			models.OutcomeAway: 4.20,
		}},
	)
	flat := threeWaySnapshot(
		models.OddsQuote{Bookmaker: "alpha", Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.10,
			models.OutcomeDraw: 3.40,
			models.OutcomeAway: 4.00,
		}},
	)

	low := NewArbitrageDetector(ArbitrageConfig{MinProfitMargin: 1.0})
	if got := low.DetectAll([]models.FixtureOddsSnapshot{arb, flat}); len(got) != 1 {
		t.Errorf("got %d opportunities, want 1", len(got))
	}

	high := NewArbitrageDetector(ArbitrageConfig{MinProfitMargin: 5.0})
	if got := high.DetectAll([]models.FixtureOddsSnapshot{arb, flat}); len(got) != 0 {
		t.Errorf("margin 3.05 must not pass a 5%% filter, got %d", len(got))
	}
}
