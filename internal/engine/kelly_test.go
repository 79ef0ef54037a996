package engine

import (
	"errors"
	"testing"
)

func TestKellyStake_NoBetOnNegativeFraction(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{})

	// p=0.5, o=1.9: f* = (0.9*0.5 - 0.5)/0.9 < 0.
	rec, err := k.Stake(0.5, 1.9, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RiskLevel != "None" || rec.RecommendedStake != 0 || rec.KellyPercentage != 0 ||
		rec.FullKellyStake != 0 || rec.FractionalKellyStake != 0 {
		t.Errorf("want all-zero no-bet recommendation, got %+v", rec)
	}
}

func TestKellyStake_PositiveCase(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{Fraction: 0.25, MaxBetPct: 0.05})

	// p=0.6, o=2.0: b=1, f*=0.2, fractional 0.05, stake 50.00.
	rec, err := k.Stake(0.6, 2.0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !floatEq(rec.RecommendedStake, 50.00) {
		t.Errorf("stake = %v, want 50.00", rec.RecommendedStake)
	}
	if !floatEq(rec.KellyPercentage, 5.00) {
		t.Errorf("kelly pct = %v, want 5.00", rec.KellyPercentage)
	}
	if !floatEq(rec.FullKellyStake, 200.00) {
		t.Errorf("full kelly = %v, want 200.00", rec.FullKellyStake)
	}
	if !floatEq(rec.FractionalKellyStake, 50.00) {
		t.Errorf("fractional kelly = %v, want 50.00", rec.FractionalKellyStake)
	}
	if !floatEq(rec.ExpectedROI, 20.00) {
		t.Errorf("roi = %v, want 20.00", rec.ExpectedROI)
	}
	if !floatEq(rec.ExpectedValue, 10.00) {
		t.Errorf("ev = %v, want 10.00", rec.ExpectedValue)
	}
	if rec.RiskLevel != "High" {
		t.Errorf("risk = %q, want High (5%% of bankroll)", rec.RiskLevel)
	}
}

func TestKellyStake_MaxBetCap(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{Fraction: 1.0, MaxBetPct: 0.02})

	// Full Kelly would be 20% of bankroll; the cap wins.
	rec, err := k.Stake(0.6, 2.0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !floatEq(rec.RecommendedStake, 20.00) {
		t.Errorf("stake = %v, want capped 20.00", rec.RecommendedStake)
	}
	if rec.RiskLevel != "Medium" {
		t.Errorf("risk = %q, want Medium (2%%)", rec.RiskLevel)
	}
}

func TestKellyStake_MinEdge(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{MinEdge: 0.25})

	// ev = 0.2 <= minEdge: profitable but below the configured floor.
	rec, err := k.Stake(0.6, 2.0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RiskLevel != "None" || rec.RecommendedStake != 0 {
		t.Errorf("want no-bet below min edge, got %+v", rec)
	}
}

func TestKellyStake_InvalidOdds(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{})

	for _, odds := range []float64{1.0, 0.5, 0, -2} {
		rec, err := k.Stake(0.6, odds, 1000)
		if err != nil {
			t.Fatalf("odds %v: unexpected error: %v", odds, err)
		}
		if rec.RiskLevel != "None" {
			t.Errorf("odds %v: want no-bet, got %+v", odds, rec)
		}
	}
}

func TestKellyStake_NegativeBankroll(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{})

	_, err := k.Stake(0.6, 2.0, -100)
	if !errors.Is(err, ErrInvalidBankroll) {
		t.Errorf("err = %v, want ErrInvalidBankroll", err)
	}
}

func TestKellyStake_ZeroBankroll(t *testing.T) {
	k := NewKellyCriterion(KellyConfig{})

	rec, err := k.Stake(0.6, 2.0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RecommendedStake != 0 {
		t.Errorf("zero bankroll must stake zero, got %v", rec.RecommendedStake)
	}
	if rec.RiskLevel == "None" {
		t.Errorf("zero bankroll with a real edge is still a sized (zero) bet, got %+v", rec)
	}
}
