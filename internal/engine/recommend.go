package engine

import (
	"fmt"
	"sync"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// FixtureRecommendation is the full per-fixture decision: consensus
// probabilities, upset score, the best value pick and its Kelly stake,
// plus the arbitrage split when one exists (absent otherwise).
type FixtureRecommendation struct {
	FixtureID   string                `json:"fixture_id"`
	FixtureName string                `json:"fixture_name"`
	Sport       string                `json:"sport"`
	Ensemble    *EnsembleResult       `json:"ensemble"`
	Upset       UpsetAssessment       `json:"upset"`
	BestValue   ValueAssessment       `json:"best_value"`
	Kelly       KellyRecommendation   `json:"kelly"`
	Arbitrage   *ArbitrageOpportunity `json:"arbitrage,omitempty"`
}

// FixtureResult pairs a fixture's recommendation with its error so a
// multi-fixture scan can report per-fixture failures without aborting
// the rest.
type FixtureResult struct {
	FixtureID      string
	Recommendation *FixtureRecommendation
	Err            error
}

// Engine evaluates the full recommendation pipeline for fixtures. All
// state is immutable configuration; every method is safe for concurrent
// use.
type Engine struct {
	weights   map[string]float64
	bankroll  float64
	kelly     *KellyCriterion
	upset     UpsetConfig
	arbitrage *ArbitrageDetector
	live      *LiveBettingEngine
}

// New validates cfg and builds an engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	weights := make(map[string]float64, len(cfg.ModelWeights))
	for id, w := range cfg.ModelWeights {
		weights[id] = w
	}
	return &Engine{
		weights:   weights,
		bankroll:  cfg.Bankroll,
		kelly:     NewKellyCriterion(cfg.Kelly),
		upset:     cfg.Upset.withDefaults(),
		arbitrage: NewArbitrageDetector(cfg.Arbitrage),
		live:      NewLiveBettingEngine(cfg.Live),
	}, nil
}

// Arbitrage exposes the detector for callers that scan quotes without
// the rest of the pipeline.
func (e *Engine) Arbitrage() *ArbitrageDetector { return e.arbitrage }

// Live exposes the in-play engine.
func (e *Engine) Live() *LiveBettingEngine { return e.live }

// AnalyzeFixture runs the whole pipeline for one fixture: aggregate the
// model predictions, pick the best value outcome at the best offered
// price, size the stake, score the upset risk and check for arbitrage.
// Missing or invalid individual prices only degrade that outcome's value
// contribution; an empty prediction set fails the fixture.
func (e *Engine) AnalyzeFixture(snap models.FixtureOddsSnapshot, preds models.ModelPredictionSet) (*FixtureRecommendation, error) {
	set := models.OutcomesForSport(snap.Sport)

	ensemble, err := AggregatePredictions(preds.Predictions, e.weights, set)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", snap.FixtureID, err)
	}

	best := BestPrices(snap, set)
	pick := PickBestValue(ensemble.Probabilities, best, set)

	kelly := noBet()
	if pick.Valid {
		kelly, err = e.kelly.Stake(pick.ModelProbability, pick.Odds, e.bankroll)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", snap.FixtureID, err)
		}
	}

	upset := ScoreUpset(ensemble, preds.Predictions, e.upset, set)

	return &FixtureRecommendation{
		FixtureID:   snap.FixtureID,
		FixtureName: snap.Name(),
		Sport:       snap.Sport,
		Ensemble:    ensemble,
		Upset:       upset,
		BestValue:   pick,
		Kelly:       kelly,
		Arbitrage:   e.arbitrage.Detect(snap),
	}, nil
}

// AnalyzeAll evaluates every fixture concurrently. Each fixture's
// pipeline is independent; failures stay attached to their fixture and
// never abort the others. Results keep the input order.
func (e *Engine) AnalyzeAll(snaps []models.FixtureOddsSnapshot, preds map[string]models.ModelPredictionSet) []FixtureResult {
	results := make([]FixtureResult, len(snaps))

	var wg sync.WaitGroup
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap := snaps[i]
			rec, err := e.AnalyzeFixture(snap, preds[snap.FixtureID])
			results[i] = FixtureResult{FixtureID: snap.FixtureID, Recommendation: rec, Err: err}
		}(i)
	}
	wg.Wait()

	return results
}
