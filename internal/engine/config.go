package engine

import (
	"fmt"
	"math"
)

// Config is the full engine configuration. All numeric thresholds are
// tuned operational parameters, overridable through the YAML config,
// never ambient globals.
type Config struct {
	// ModelWeights maps model identifier to its weight in the ensemble.
	// Must sum to 1 across the complete model roster; weights are
	// renormalized per fixture over the models actually present.
	ModelWeights map[string]float64 `yaml:"model_weights"`

	// Bankroll used for Kelly stake sizing.
	Bankroll float64 `yaml:"bankroll"`

	Kelly     KellyConfig     `yaml:"kelly"`
	Upset     UpsetConfig     `yaml:"upset"`
	Arbitrage ArbitrageConfig `yaml:"arbitrage"`
	Live      LiveConfig      `yaml:"live"`
}

const weightSumTolerance = 1e-3

// Validate checks the weight table and bankroll.
func (c *Config) Validate() error {
	if len(c.ModelWeights) == 0 {
		return fmt.Errorf("model_weights must not be empty")
	}
	sum := 0.0
	for id, w := range c.ModelWeights {
		if w <= 0 || w > 1 {
			return fmt.Errorf("model_weights[%s] = %v, want (0,1]", id, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("model_weights sum to %v, want 1.0", sum)
	}
	if c.Bankroll < 0 {
		return fmt.Errorf("bankroll must not be negative: %v", c.Bankroll)
	}
	return nil
}

// KellyConfig holds the fractional-Kelly sizing parameters.
type KellyConfig struct {
	// Fraction scales the full Kelly stake down (e.g. 0.25 = quarter Kelly).
	Fraction float64 `yaml:"fraction"`
	// MaxBetPct caps the final bankroll fraction.
	MaxBetPct float64 `yaml:"max_bet_pct"`
	// MinEdge is the minimum expected value per unit below which no bet
	// is recommended.
	MinEdge float64 `yaml:"min_edge"`
	// Risk bucket boundaries on the final bankroll fraction.
	HighRiskPct   float64 `yaml:"high_risk_pct"`
	MediumRiskPct float64 `yaml:"medium_risk_pct"`
}

func (c KellyConfig) withDefaults() KellyConfig {
	if c.Fraction <= 0 || c.Fraction > 1 {
		c.Fraction = 0.25
	}
	if c.MaxBetPct <= 0 || c.MaxBetPct > 1 {
		c.MaxBetPct = 0.05
	}
	if c.MinEdge < 0 {
		c.MinEdge = 0
	}
	if c.HighRiskPct <= 0 {
		c.HighRiskPct = 0.03
	}
	if c.MediumRiskPct <= 0 {
		c.MediumRiskPct = 0.015
	}
	return c
}

// UpsetStep is one threshold of an upset signal bucket. Steps are
// evaluated in slice order (most severe first); the first satisfied step
// contributes its score and the bucket stops.
type UpsetStep struct {
	Threshold float64 `yaml:"threshold"`
	Score     int     `yaml:"score"`
}

// UpsetConfig holds the four signal buckets of the upset scorer.
// Gap, confidence and agreement buckets fire when the value is below the
// step threshold; the near-tie bucket fires when the value is at or
// above it.
type UpsetConfig struct {
	ProbabilityGap []UpsetStep `yaml:"probability_gap"`
	Confidence     []UpsetStep `yaml:"confidence"`
	Agreement      []UpsetStep `yaml:"agreement"`
	NearTie        []UpsetStep `yaml:"near_tie"`
}

func (c UpsetConfig) withDefaults() UpsetConfig {
	if len(c.ProbabilityGap) == 0 {
		c.ProbabilityGap = []UpsetStep{
			{0.10, 50}, {0.15, 40}, {0.20, 30}, {0.25, 20}, {0.30, 10},
		}
	}
	if len(c.Confidence) == 0 {
		c.Confidence = []UpsetStep{
			{0.40, 40}, {0.45, 30}, {0.50, 20}, {0.55, 10},
		}
	}
	if len(c.Agreement) == 0 {
		c.Agreement = []UpsetStep{
			{0.40, 35}, {0.50, 25}, {0.60, 15}, {0.70, 5},
		}
	}
	if len(c.NearTie) == 0 {
		c.NearTie = []UpsetStep{
			{0.30, 25}, {0.25, 15}, {0.20, 5},
		}
	}
	return c
}

// ArbitrageConfig holds the detector parameters.
type ArbitrageConfig struct {
	// TotalStake is the reference amount split across outcomes.
	TotalStake float64 `yaml:"total_stake"`
	// MinProfitMargin filters multi-fixture scans (percent).
	MinProfitMargin float64 `yaml:"min_profit_margin"`
}

func (c ArbitrageConfig) withDefaults() ArbitrageConfig {
	if c.TotalStake <= 0 {
		c.TotalStake = 100
	}
	if c.MinProfitMargin < 0 {
		c.MinProfitMargin = 0
	}
	return c
}

// LiveConfig holds the in-play engine thresholds.
type LiveConfig struct {
	// MomentumThreshold is the attack-intensity differential beyond
	// which momentum is attributed to one side.
	MomentumThreshold float64 `yaml:"momentum_threshold"`
	// FavoriteOddsCutoff: a trailing side priced below this is still
	// considered the favorite.
	FavoriteOddsCutoff float64 `yaml:"favorite_odds_cutoff"`
	// FavoriteLateMinute: the favorite-losing trigger only fires before
	// this minute.
	FavoriteLateMinute int `yaml:"favorite_late_minute"`
	// DrawLateMinute: the draw-scalp trigger only fires after this minute.
	DrawLateMinute int `yaml:"draw_late_minute"`

	// Illustrative edges attached to emitted candidates (percent).
	FavoriteEdge float64 `yaml:"favorite_edge"`
	DrawEdge     float64 `yaml:"draw_edge"`

	// Timing scores per trigger and the neutral default.
	FavoriteTiming int `yaml:"favorite_timing"`
	DrawTiming     int `yaml:"draw_timing"`
	NeutralTiming  int `yaml:"neutral_timing"`
}

func (c LiveConfig) withDefaults() LiveConfig {
	if c.MomentumThreshold <= 0 {
		c.MomentumThreshold = 5
	}
	if c.FavoriteOddsCutoff <= 0 {
		c.FavoriteOddsCutoff = 3.0
	}
	if c.FavoriteLateMinute <= 0 {
		c.FavoriteLateMinute = 80
	}
	if c.DrawLateMinute <= 0 {
		c.DrawLateMinute = 75
	}
	if c.FavoriteEdge <= 0 {
		c.FavoriteEdge = 15.0
	}
	if c.DrawEdge <= 0 {
		c.DrawEdge = 10.0
	}
	if c.FavoriteTiming <= 0 {
		c.FavoriteTiming = 80
	}
	if c.DrawTiming <= 0 {
		c.DrawTiming = 75
	}
	if c.NeutralTiming <= 0 {
		c.NeutralTiming = 50
	}
	return c
}
