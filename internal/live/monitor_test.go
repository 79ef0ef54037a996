package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/models"
)

func trailingFavoriteSnapshot(fixtureID string) models.LiveSnapshot {
	return models.LiveSnapshot{
		FixtureID: fixtureID,
		Sport:     "football",
		HomeScore: 0,
		AwayScore: 1,
		Minute:    60,
		Stats: map[string]float64{
			"home_dangerous_attacks": 62,
			"away_dangerous_attacks": 48,
		},
		Odds: map[models.Outcome]float64{
			models.OutcomeHome: 2.0,
			models.OutcomeDraw: 3.4,
			models.OutcomeAway: 4.5,
		},
	}
}

func TestMonitor_TracksLatestResultPerFixture(t *testing.T) {
	m := NewMonitor(engine.NewLiveBettingEngine(engine.LiveConfig{}), nil, nil)

	first := trailingFavoriteSnapshot("football|arsenal|liverpool")
	m.process(context.Background(), first)

	// A later snapshot for the same fixture replaces the earlier result.
	later := first
	later.Minute = 85
	m.process(context.Background(), later)

	other := trailingFavoriteSnapshot("football|spurs|everton")
	m.process(context.Background(), other)

	results := m.Latest()
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	var arsenal *engine.LiveAnalysisResult
	for i := range results {
		if results[i].FixtureID == "football|arsenal|liverpool" {
			arsenal = &results[i]
		}
	}
	if arsenal == nil {
		t.Fatal("arsenal fixture missing from results")
	}
	// Minute 85 is past the comeback window, so the replacement result
	// has no candidates.
	if len(arsenal.Candidates) != 0 {
		t.Errorf("stale candidates survived replacement: %+v", arsenal.Candidates)
	}
}

func TestMonitor_ResultsEndpoint(t *testing.T) {
	m := NewMonitor(engine.NewLiveBettingEngine(engine.LiveConfig{}), nil, nil)
	m.process(context.Background(), trailingFavoriteSnapshot("football|arsenal|liverpool"))

	mux := http.NewServeMux()
	m.RegisterHTTP(mux)

	req := httptest.NewRequest(http.MethodGet, "/live/results", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var results []engine.LiveAnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if len(results[0].Candidates) != 1 || results[0].Candidates[0].Outcome != models.OutcomeHome {
		t.Errorf("expected a home comeback candidate, got %+v", results[0])
	}
}
