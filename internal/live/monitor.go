package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Vodeneev/betengine/internal/analyzer"
	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/config"
	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// Monitor consumes live snapshots, runs the in-play engine on each and
// keeps the latest result per fixture for the HTTP endpoint. Candidates
// above the edge threshold are alerted with a per-fixture cooldown.
type Monitor struct {
	engine   *engine.LiveBettingEngine
	cfg      *config.LiveFeedConfig
	notifier *analyzer.TelegramNotifier

	mu      sync.RWMutex
	latest  map[string]engine.LiveAnalysisResult
	minutes map[string]int

	alertMu sync.Mutex
	alerts  map[string]time.Time
}

// NewMonitor creates a monitor. A nil notifier disables alerting.
func NewMonitor(eng *engine.LiveBettingEngine, cfg *config.LiveFeedConfig, notifier *analyzer.TelegramNotifier) *Monitor {
	return &Monitor{
		engine:   eng,
		cfg:      cfg,
		notifier: notifier,
		latest:   make(map[string]engine.LiveAnalysisResult),
		minutes:  make(map[string]int),
		alerts:   make(map[string]time.Time),
	}
}

// Run consumes snapshots until ctx is cancelled or the channel closes.
func (m *Monitor) Run(ctx context.Context, snaps <-chan models.LiveSnapshot) {
	for {
		select {
		case <-ctx.Done():
			log.Println("live monitor: stopping")
			return
		case snap, ok := <-snaps:
			if !ok {
				log.Println("live monitor: snapshot channel closed")
				return
			}
			m.process(ctx, snap)
		}
	}
}

func (m *Monitor) process(ctx context.Context, snap models.LiveSnapshot) {
	result := m.engine.Analyze(snap)

	m.mu.Lock()
	m.latest[snap.FixtureID] = result
	m.minutes[snap.FixtureID] = snap.Minute
	m.mu.Unlock()

	for _, c := range result.Candidates {
		m.maybeAlert(ctx, snap, c)
	}
}

// maybeAlert sends a Telegram alert for a candidate above the edge
// threshold, at most once per fixture per cooldown window.
func (m *Monitor) maybeAlert(ctx context.Context, snap models.LiveSnapshot, c engine.LiveCandidate) {
	if m.notifier == nil || m.cfg == nil {
		return
	}

	minEdge := m.cfg.AlertMinEdge
	if minEdge <= 0 {
		minEdge = 10
	}
	if c.Edge < minEdge {
		return
	}

	cooldownMinutes := m.cfg.AlertCooldownMinutes
	if cooldownMinutes <= 0 {
		cooldownMinutes = 15
	}

	m.alertMu.Lock()
	last, seen := m.alerts[snap.FixtureID]
	if seen && time.Since(last) < time.Duration(cooldownMinutes)*time.Minute {
		m.alertMu.Unlock()
		return
	}
	m.alerts[snap.FixtureID] = time.Now()
	m.alertMu.Unlock()

	if err := m.notifier.SendLiveAlert(ctx, snap.FixtureID, c, snap.Minute); err != nil {
		log.Printf("live monitor: failed to send alert: %v", err)
	}
}

// Latest returns the most recent analysis for every tracked fixture.
func (m *Monitor) Latest() []engine.LiveAnalysisResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]engine.LiveAnalysisResult, 0, len(m.latest))
	for _, res := range m.latest {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].FixtureID < results[j].FixtureID
	})
	return results
}

// RegisterHTTP registers live monitor endpoints onto mux.
func (m *Monitor) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/live/results", m.handleResults)
	mux.HandleFunc("/live/status", m.handleStatus)
}

// handleResults returns the latest analysis per fixture. Fixtures with
// candidates sort first.
func (m *Monitor) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	results := m.Latest()
	sort.SliceStable(results, func(i, j int) bool {
		return len(results[i].Candidates) > len(results[j].Candidates)
	})
	if limit > len(results) {
		limit = len(results)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results[:limit])
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	tracked := len(m.latest)
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":           "ok",
		"tracked_fixtures": tracked,
	})
}
