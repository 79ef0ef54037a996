package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/config"
	"github.com/Vodeneev/betengine/internal/pkg/storage"
)

// Analyzer fetches odds and predictions from the provider, runs the
// recommendation pipeline over every fixture and persists the results.
// Can also run asynchronously to scan periodically and send alerts.
type Analyzer struct {
	engine     *engine.Engine
	client     *ProviderClient
	cfg        *config.AnalyzerConfig
	recStorage storage.RecommendationStorage
	arbStorage storage.ArbitrageStorage
	notifier   *TelegramNotifier

	asyncTicker  *time.Ticker
	asyncMu      sync.RWMutex
	asyncStopped bool
	asyncCtx     context.Context
	asyncCancel  context.CancelFunc

	// Last upset alert per fixture, for cooldown checks.
	upsetMu     sync.Mutex
	upsetAlerts map[string]time.Time
}

// New creates an analyzer. The notifier is only created when async
// processing and Telegram credentials are configured.
func New(eng *engine.Engine, client *ProviderClient, cfg *config.AnalyzerConfig, recStorage storage.RecommendationStorage, arbStorage storage.ArbitrageStorage) *Analyzer {
	var notifier *TelegramNotifier
	if cfg != nil && cfg.AsyncEnabled && cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		notifier = NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}

	return &Analyzer{
		engine:      eng,
		client:      client,
		cfg:         cfg,
		recStorage:  recStorage,
		arbStorage:  arbStorage,
		notifier:    notifier,
		upsetAlerts: make(map[string]time.Time),
	}
}

// Start runs the analyzer until ctx is cancelled. Async scanning starts
// only when enabled in config; on-demand HTTP endpoints work either way.
func (a *Analyzer) Start(ctx context.Context) error {
	if a.cfg != nil && a.cfg.AsyncEnabled {
		a.asyncMu.Lock()
		a.asyncCtx, a.asyncCancel = context.WithCancel(ctx)
		a.asyncMu.Unlock()

		if err := a.StartAsync(); err != nil {
			return err
		}
	} else {
		log.Println("analyzer: async processing disabled, running in on-demand mode")
	}

	<-ctx.Done()

	a.StopAsync()
	if a.notifier != nil {
		a.notifier.Stop()
	}
	return nil
}

// StartAsync starts or restarts the periodic scan loop.
func (a *Analyzer) StartAsync() error {
	a.asyncMu.Lock()
	defer a.asyncMu.Unlock()

	if a.cfg == nil || !a.cfg.AsyncEnabled {
		return fmt.Errorf("async processing is not enabled in config")
	}

	if a.asyncTicker != nil && !a.asyncStopped {
		log.Println("analyzer: async processing is already running")
		return nil
	}

	if a.asyncCancel != nil {
		a.asyncCancel()
	}
	a.asyncCtx, a.asyncCancel = context.WithCancel(context.Background())

	interval, err := time.ParseDuration(a.cfg.AsyncInterval)
	if err != nil {
		interval = 30 * time.Second
		log.Printf("analyzer: invalid async_interval, using default 30s")
	}

	a.asyncStopped = false
	if a.asyncTicker != nil {
		a.asyncTicker.Stop()
	}
	a.asyncTicker = time.NewTicker(interval)

	log.Printf("analyzer: starting async processing with interval %v", interval)
	go a.runAsyncProcessing(a.asyncCtx)

	return nil
}

func (a *Analyzer) runAsyncProcessing(ctx context.Context) {
	// Run immediately on start
	a.processFixtures(ctx)

	for {
		a.asyncMu.RLock()
		stopped := a.asyncStopped
		a.asyncMu.RUnlock()
		if stopped {
			log.Println("analyzer: async processing stopped by user")
			return
		}

		select {
		case <-ctx.Done():
			log.Println("analyzer: stopping async processing")
			return
		case <-a.asyncTicker.C:
			a.asyncMu.RLock()
			stopped = a.asyncStopped
			a.asyncMu.RUnlock()
			if stopped {
				log.Println("analyzer: async processing stopped by user")
				return
			}
			a.processFixtures(ctx)
		}
	}
}

// StopAsync stops the periodic scan loop.
func (a *Analyzer) StopAsync() {
	a.asyncMu.Lock()
	defer a.asyncMu.Unlock()

	if !a.asyncStopped && a.asyncTicker != nil {
		a.asyncStopped = true
		a.asyncTicker.Stop()
		if a.asyncCancel != nil {
			a.asyncCancel()
		}
		log.Println("analyzer: async processing stopped")
	}
}

// IsAsyncRunning reports whether the scan loop is currently active.
func (a *Analyzer) IsAsyncRunning() bool {
	a.asyncMu.RLock()
	defer a.asyncMu.RUnlock()
	return a.asyncTicker != nil && !a.asyncStopped
}

// Scan runs one full pipeline pass: fetch odds and predictions, analyze
// every fixture, return the successful recommendations. Per-fixture
// failures are logged and skipped.
func (a *Analyzer) Scan(ctx context.Context) ([]engine.FixtureRecommendation, error) {
	if a.client == nil {
		return nil, fmt.Errorf("provider URL not configured")
	}

	snaps, err := a.client.GetSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds: %w", err)
	}
	preds, err := a.client.GetPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}

	results := a.engine.AnalyzeAll(snaps, preds)

	recs := make([]engine.FixtureRecommendation, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			log.Printf("analyzer: fixture %s skipped: %v", res.FixtureID, res.Err)
			continue
		}
		recs = append(recs, *res.Recommendation)
	}
	return recs, nil
}

// processFixtures runs one scan, persists the results and dispatches
// arbitrage and upset alerts.
func (a *Analyzer) processFixtures(ctx context.Context) {
	log.Println("analyzer: async: scanning fixtures...")

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	recs, err := a.Scan(reqCtx)
	if err != nil {
		log.Printf("analyzer: async: scan failed: %v", err)
		return
	}

	log.Printf("analyzer: async: analyzed %d fixtures, storing and checking for alerts...", len(recs))

	if a.recStorage != nil {
		if err := a.recStorage.StoreRecommendations(ctx, recs); err != nil {
			log.Printf("analyzer: async: failed to store recommendations: %v", err)
		}
	}

	alertCount := 0
	for _, rec := range recs {
		if rec.Arbitrage != nil {
			if a.handleArbitrage(ctx, rec.Arbitrage) {
				alertCount++
			}
		}
		if a.handleUpset(ctx, rec) {
			alertCount++
		}
	}

	log.Printf("analyzer: async: processing complete, sent %d alerts", alertCount)
}

// handleArbitrage stores the opportunity and decides whether to alert:
// always on first sight, on cooldown expiry, or on a significant margin
// increase before the cooldown runs out.
func (a *Analyzer) handleArbitrage(ctx context.Context, opp *engine.ArbitrageOpportunity) bool {
	cooldownMinutes := 60
	if a.cfg != nil && a.cfg.AlertCooldownMinutes > 0 {
		cooldownMinutes = a.cfg.AlertCooldownMinutes
	}
	minIncrease := 1.0
	if a.cfg != nil && a.cfg.AlertMinIncrease > 0 {
		minIncrease = a.cfg.AlertMinIncrease
	}

	shouldSendAlert := false
	if a.notifier != nil {
		if a.arbStorage == nil {
			shouldSendAlert = true
		} else {
			last, err := a.arbStorage.GetLastArbitrage(ctx, opp.FixtureID)
			switch {
			case err != nil:
				log.Printf("analyzer: async: failed to get last arbitrage: %v", err)
				// Better to send a duplicate than miss one
				shouldSendAlert = true
			case last == nil:
				shouldSendAlert = true
			case time.Since(last.CreatedAt) > time.Duration(cooldownMinutes)*time.Minute:
				shouldSendAlert = true
			case opp.ProfitMargin-last.Opportunity.ProfitMargin >= minIncrease:
				log.Printf("analyzer: async: margin increased for %s (%.2f%% -> %.2f%%), alerting early",
					opp.FixtureName, last.Opportunity.ProfitMargin, opp.ProfitMargin)
				shouldSendAlert = true
			}
		}
	}

	if a.arbStorage != nil {
		if err := a.arbStorage.StoreArbitrage(ctx, *opp); err != nil {
			log.Printf("analyzer: async: failed to store arbitrage: %v", err)
		}
	}

	if shouldSendAlert {
		if err := a.notifier.SendArbitrageAlert(ctx, opp); err != nil {
			log.Printf("analyzer: async: failed to send arbitrage alert: %v", err)
			return false
		}
		return true
	}
	return false
}

// handleUpset alerts when the upset score crosses the configured
// threshold, with an in-memory per-fixture cooldown.
func (a *Analyzer) handleUpset(ctx context.Context, rec engine.FixtureRecommendation) bool {
	if a.notifier == nil || a.cfg == nil {
		return false
	}
	threshold := a.cfg.UpsetAlertThreshold
	if threshold <= 0 {
		threshold = 70
	}
	if rec.Upset.Score < threshold {
		return false
	}

	cooldownMinutes := 60
	if a.cfg.AlertCooldownMinutes > 0 {
		cooldownMinutes = a.cfg.AlertCooldownMinutes
	}

	a.upsetMu.Lock()
	last, seen := a.upsetAlerts[rec.FixtureID]
	if seen && time.Since(last) < time.Duration(cooldownMinutes)*time.Minute {
		a.upsetMu.Unlock()
		return false
	}
	a.upsetAlerts[rec.FixtureID] = time.Now()
	a.upsetMu.Unlock()

	if err := a.notifier.SendUpsetAlert(ctx, rec.FixtureName, rec.Upset.Score, rec.Upset.Signals); err != nil {
		log.Printf("analyzer: async: failed to send upset alert: %v", err)
		return false
	}
	return true
}
