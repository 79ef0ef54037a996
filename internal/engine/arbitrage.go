package engine

import (
	"sync"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// ArbitrageStake is one leg of a riskless split: how much to place at
// which bookmaker.
type ArbitrageStake struct {
	Bookmaker string  `json:"bookmaker"`
	Odds      float64 `json:"odds"`
	Amount    float64 `json:"amount"`
}

// ArbitrageOpportunity is a cross-bookmaker stake split guaranteeing the
// same net profit regardless of outcome (within rounding). Exists only
// when the implied probability sum of the best prices is below 1;
// otherwise the detector returns nil, never a zero-filled value.
type ArbitrageOpportunity struct {
	FixtureID        string                            `json:"fixture_id"`
	FixtureName      string                            `json:"fixture_name"`
	Sport            string                            `json:"sport"`
	ProfitMargin     float64                           `json:"profit_margin"`
	GuaranteedProfit float64                           `json:"guaranteed_profit"`
	TotalStake       float64                           `json:"total_stake"`
	Stakes           map[models.Outcome]ArbitrageStake `json:"stakes"`
}

// ArbitrageDetector scans one fixture's quotes for a guaranteed-profit
// split across bookmakers.
type ArbitrageDetector struct {
	cfg ArbitrageConfig
}

// NewArbitrageDetector builds a detector with defaults applied
// (100-unit reference stake).
func NewArbitrageDetector(cfg ArbitrageConfig) *ArbitrageDetector {
	return &ArbitrageDetector{cfg: cfg.withDefaults()}
}

// Detect finds the best offered odds per outcome across all quotes and
// checks the arbitrage existence condition impliedSum < 1. Every outcome
// of the fixture's sport must be offered by at least one bookmaker;
// otherwise no opportunity exists.
func (d *ArbitrageDetector) Detect(snap models.FixtureOddsSnapshot) *ArbitrageOpportunity {
	set := models.OutcomesForSport(snap.Sport)
	best := BestPrices(snap, set)

	impliedSum := 0.0
	for _, o := range set.Order {
		bp, ok := best[o]
		if !ok {
			return nil
		}
		impliedSum += 1.0 / bp.Odds
	}

	if impliedSum >= 1.0 {
		return nil
	}

	margin := (1 - impliedSum) / impliedSum * 100
	totalStake := d.cfg.TotalStake
	payout := totalStake / impliedSum

	stakes := make(map[models.Outcome]ArbitrageStake, len(set.Order))
	for _, o := range set.Order {
		bp := best[o]
		stakes[o] = ArbitrageStake{
			Bookmaker: bp.Bookmaker,
			Odds:      bp.Odds,
			Amount:    round2(payout / bp.Odds),
		}
	}

	return &ArbitrageOpportunity{
		FixtureID:        snap.FixtureID,
		FixtureName:      snap.Name(),
		Sport:            snap.Sport,
		ProfitMargin:     round2(margin),
		GuaranteedProfit: round2(payout - totalStake),
		TotalStake:       totalStake,
		Stakes:           stakes,
	}
}

// DetectAll runs the detector over many fixtures concurrently (each
// fixture is independent) and filters by the configured minimum profit
// margin. Results keep the input order.
func (d *ArbitrageDetector) DetectAll(snaps []models.FixtureOddsSnapshot) []ArbitrageOpportunity {
	found := make([]*ArbitrageOpportunity, len(snaps))

	var wg sync.WaitGroup
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			found[i] = d.Detect(snaps[i])
		}(i)
	}
	wg.Wait()

	opps := make([]ArbitrageOpportunity, 0, len(snaps))
	for _, opp := range found {
		if opp == nil || opp.ProfitMargin < d.cfg.MinProfitMargin {
			continue
		}
		opps = append(opps, *opp)
	}
	return opps
}
