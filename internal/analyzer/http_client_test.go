package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/models"
)

func providerStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/odds", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"boards": [
				{
					"sport": "football",
					"home_team": "FC Arsenal",
					"away_team": "FC Chelsea",
					"start_time": "2026-03-01T15:00:00Z",
					"bookmaker": "alpha",
					"odds": {"home": 2.1, "draw": 3.4, "away": 3.6}
				},
				{
					"sport": "football",
					"home_team": "Arsenal",
					"away_team": "Chelsea",
					"start_time": "2026-03-01T15:10:00Z",
					"bookmaker": "beta",
					"odds": {"home": 2.2, "draw": 3.3, "away": 3.8}
				}
			],
			"meta": {"count": 2, "source": "stub"}
		}`))
	})
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"predictions": [
				{
					"sport": "football",
					"home_team": "Arsenal",
					"away_team": "Chelsea",
					"start_time": "2026-03-01T15:00:00Z",
					"model_id": "elo",
					"probabilities": {"home": 0.55, "draw": 0.25, "away": 0.20}
				},
				{
					"sport": "football",
					"home_team": "FC Arsenal",
					"away_team": "FC Chelsea",
					"start_time": "2026-03-01T15:05:00Z",
					"model_id": "poisson",
					"probabilities": {"home": 0.50, "draw": 0.30, "away": 0.20},
					"confidence": 0.7
				}
			]
		}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSnapshots_GroupsBookmakersByFixture(t *testing.T) {
	srv := providerStub(t)
	client := NewProviderClient(srv.URL, 5*time.Second)

	snaps, err := client.GetSnapshots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Both boards name the same teams within the same 30-minute bucket.
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1: %+v", len(snaps), snaps)
	}
	if len(snaps[0].Quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(snaps[0].Quotes))
	}
	if odd := snaps[0].Quotes[1].Odds[models.OutcomeHome]; odd != 2.2 {
		t.Errorf("beta home odd = %v, want 2.2", odd)
	}
}

func TestGetPredictions_GroupsModelsByFixture(t *testing.T) {
	srv := providerStub(t)
	client := NewProviderClient(srv.URL, 5*time.Second)

	preds, err := client.GetPredictions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 1 {
		t.Fatalf("got %d prediction sets, want 1", len(preds))
	}
	for _, set := range preds {
		if len(set.Predictions) != 2 {
			t.Fatalf("got %d predictions, want 2", len(set.Predictions))
		}
		if set.Predictions[1].Confidence == nil || *set.Predictions[1].Confidence != 0.7 {
			t.Errorf("poisson confidence not carried: %+v", set.Predictions[1])
		}
	}
}

func TestScan_EndToEnd(t *testing.T) {
	srv := providerStub(t)
	client := NewProviderClient(srv.URL, 5*time.Second)

	eng, err := engine.New(engine.Config{
		ModelWeights: map[string]float64{"elo": 0.5, "poisson": 0.5},
		Bankroll:     1000,
	})
	if err != nil {
		t.Fatal(err)
	}

	a := New(eng, client, nil, nil, nil)

	recs, err := a.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	rec := recs[0]
	if rec.BestValue.Outcome != models.OutcomeHome {
		t.Errorf("best value outcome = %q, want home", rec.BestValue.Outcome)
	}
	if rec.Kelly.RecommendedStake <= 0 {
		t.Errorf("expected a positive stake, got %+v", rec.Kelly)
	}
}

func TestGetSnapshots_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewProviderClient(srv.URL, 5*time.Second)
	if _, err := client.GetSnapshots(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
