package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Vodeneev/betengine/internal/engine"
)

// RegisterHTTP registers analyzer endpoints onto mux.
func (a *Analyzer) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/recommendations/top", a.handleTopRecommendations)
	mux.HandleFunc("/arbitrage/top", a.handleTopArbitrages)
	mux.HandleFunc("/status", a.handleStatus)
	mux.HandleFunc("/async/stop", a.handleStopAsync)
	mux.HandleFunc("/async/start", a.handleStartAsync)
}

func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > max {
				n = max
			}
			limit = n
		}
	}
	return limit
}

// handleTopRecommendations runs a fresh scan and returns the top
// recommendations by value score.
func (a *Analyzer) handleTopRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 5, 50)

	if a.client == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "provider URL is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	recs, err := a.Scan(ctx)
	if err != nil {
		slog.Error("Failed to scan in handleTopRecommendations", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to fetch data from provider", "details": err.Error()})
		return
	}

	sort.Slice(recs, func(i, j int) bool {
		si, sj := -1.0, -1.0
		if recs[i].BestValue.Valid {
			si = recs[i].BestValue.Score
		}
		if recs[j].BestValue.Valid {
			sj = recs[j].BestValue.Score
		}
		return si > sj
	})

	if limit > len(recs) {
		limit = len(recs)
	}

	w.Header().Set("Content-Type", "application/json")
	if len(recs) > 0 {
		_ = json.NewEncoder(w).Encode(recs[:limit])
	} else {
		_ = json.NewEncoder(w).Encode([]engine.FixtureRecommendation{})
	}
}

// handleTopArbitrages returns recent stored arbitrages ordered by margin.
func (a *Analyzer) handleTopArbitrages(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 5, 50)

	if a.arbStorage == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "arbitrage storage is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opps, err := a.arbStorage.GetTopArbitrages(ctx, limit)
	if err != nil {
		slog.Error("Failed to load arbitrages", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to load arbitrages", "details": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(opps) > 0 {
		_ = json.NewEncoder(w).Encode(opps)
	} else {
		_ = json.NewEncoder(w).Encode([]engine.ArbitrageOpportunity{})
	}
}

// handleStatus returns analyzer status information.
func (a *Analyzer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":              "ok",
		"provider_configured": a.client != nil,
		"storage_configured":  a.recStorage != nil,
		"async_running":       a.IsAsyncRunning(),
		"alert_queue_length":  a.notifier.QueueLen(),
	}
	if a.client == nil {
		status["error"] = "provider URL is not configured"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleStartAsync starts asynchronous processing.
func (a *Analyzer) handleStartAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed, use POST"})
		return
	}

	if a.IsAsyncRunning() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "already_running",
			"message": "Async processing is already running",
		})
		return
	}

	if err := a.StartAsync(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "failed to start async processing",
			"message": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "started",
		"message": "Async processing started successfully",
	})
}

// handleStopAsync stops asynchronous processing.
func (a *Analyzer) handleStopAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed, use POST"})
		return
	}

	if !a.IsAsyncRunning() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "already_stopped",
			"message": "Async processing is not running",
		})
		return
	}

	a.StopAsync()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "stopped",
		"message": "Async processing stopped successfully",
	})
}
