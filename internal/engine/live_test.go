package engine

import (
	"testing"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

func liveSnapshot(home, away, minute int, homeAttacks, awayAttacks float64, odds map[models.Outcome]float64) models.LiveSnapshot {
	return models.LiveSnapshot{
		FixtureID: "football|arsenal|liverpool",
		Sport:     "football",
		HomeScore: home,
		AwayScore: away,
		Minute:    minute,
		Stats: map[string]float64{
			"home_dangerous_attacks": homeAttacks,
			"away_dangerous_attacks": awayAttacks,
		},
		Odds: odds,
	}
}

func TestAnalyze_Momentum(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	tests := []struct {
		home, away float64
		want       string
	}{
		{60, 50, MomentumHome},
		{50, 60, MomentumAway},
		{55, 52, MomentumNeutral},
		{0, 0, MomentumNeutral},
	}
	for _, tt := range tests {
		res := e.Analyze(liveSnapshot(0, 0, 30, tt.home, tt.away, nil))
		if res.Momentum != tt.want {
			t.Errorf("attacks %v/%v: momentum = %q, want %q", tt.home, tt.away, res.Momentum, tt.want)
		}
	}
}

func TestAnalyze_FavoriteLosingTrigger(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	// Home trails 0-1, priced 2.0 (still the favorite), dominating play,
	// minute 60.
	res := e.Analyze(liveSnapshot(0, 1, 60, 62, 48, map[models.Outcome]float64{
		models.OutcomeHome: 2.0,
		models.OutcomeDraw: 3.4,
		models.OutcomeAway: 4.5,
	}))

	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(res.Candidates), res.Candidates)
	}
	c := res.Candidates[0]
	if c.Outcome != models.OutcomeHome || !floatEq(c.Edge, 15.0) || !floatEq(c.Odds, 2.0) {
		t.Errorf("candidate = %+v, want home with edge 15 at 2.0", c)
	}
	if res.TimingScore != 80 {
		t.Errorf("timing = %d, want 80", res.TimingScore)
	}
}

func TestAnalyze_FavoriteLosingAwaySide(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	// Away trails 2-1 while priced 2.4 and pressing.
	res := e.Analyze(liveSnapshot(2, 1, 70, 40, 55, map[models.Outcome]float64{
		models.OutcomeHome: 3.6,
		models.OutcomeDraw: 3.5,
		models.OutcomeAway: 2.4,
	}))

	if len(res.Candidates) != 1 || res.Candidates[0].Outcome != models.OutcomeAway {
		t.Fatalf("want away candidate, got %+v", res.Candidates)
	}
}

func TestAnalyze_FavoriteTriggerSuppressed(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	base := map[models.Outcome]float64{
		models.OutcomeHome: 2.0,
		models.OutcomeDraw: 3.4,
		models.OutcomeAway: 4.5,
	}

	tests := []struct {
		name string
		snap models.LiveSnapshot
	}{
		{"too late", liveSnapshot(0, 1, 85, 62, 48, base)},
		{"no momentum", liveSnapshot(0, 1, 60, 50, 50, base)},
		{"trailing side is the underdog", liveSnapshot(0, 1, 60, 62, 48, map[models.Outcome]float64{
			models.OutcomeHome: 4.5,
			models.OutcomeDraw: 3.4,
			models.OutcomeAway: 1.8,
		})},
	}
	for _, tt := range tests {
		res := e.Analyze(tt.snap)
		if len(res.Candidates) != 0 {
			t.Errorf("%s: want no candidates, got %+v", tt.name, res.Candidates)
		}
		if res.TimingScore != 50 {
			t.Errorf("%s: timing = %d, want neutral 50", tt.name, res.TimingScore)
		}
	}
}

func TestAnalyze_DrawScalpTrigger(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	res := e.Analyze(liveSnapshot(1, 1, 80, 51, 49, map[models.Outcome]float64{
		models.OutcomeDraw: 2.2,
	}))

	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(res.Candidates), res.Candidates)
	}
	c := res.Candidates[0]
	if c.Outcome != models.OutcomeDraw || !floatEq(c.Edge, 10.0) {
		t.Errorf("candidate = %+v, want draw with edge 10", c)
	}
	if res.TimingScore != 75 {
		t.Errorf("timing = %d, want 75", res.TimingScore)
	}
}

func TestAnalyze_DrawScalpNeedsNeutralMomentum(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})

	res := e.Analyze(liveSnapshot(1, 1, 80, 65, 45, map[models.Outcome]float64{
		models.OutcomeDraw: 2.2,
	}))
	if len(res.Candidates) != 0 {
		t.Errorf("one-sided pressure must suppress the draw scalp: %+v", res.Candidates)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	e := NewLiveBettingEngine(LiveConfig{})
	snap := liveSnapshot(0, 1, 60, 62, 48, map[models.Outcome]float64{
		models.OutcomeHome: 2.0,
	})

	a := e.Analyze(snap)
	b := e.Analyze(snap)
	if a.Momentum != b.Momentum || a.TimingScore != b.TimingScore || len(a.Candidates) != len(b.Candidates) {
		t.Errorf("repeated calls diverged: %+v vs %+v", a, b)
	}
}
