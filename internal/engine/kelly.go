package engine

// KellyRecommendation is a capped, fractional optimal stake for one
// outcome. The all-zero recommendation with RiskLevel "None" is a valid
// terminal value (no edge), not an error. Monetary and percentage fields
// are rounded to 2 decimals; percentages are reported x100.
type KellyRecommendation struct {
	RecommendedStake     float64 `json:"recommended_stake"`
	KellyPercentage      float64 `json:"kelly_percentage"`
	ExpectedValue        float64 `json:"expected_value"`
	ExpectedROI          float64 `json:"expected_roi"`
	RiskLevel            string  `json:"risk_level"`
	MaxLoss              float64 `json:"max_loss"`
	FullKellyStake       float64 `json:"full_kelly_stake"`
	FractionalKellyStake float64 `json:"fractional_kelly_stake"`
}

// KellyCriterion sizes stakes with a capped fractional Kelly formula.
type KellyCriterion struct {
	cfg KellyConfig
}

// NewKellyCriterion builds a sizer with defaults applied to missing
// config fields (quarter Kelly, 5% cap).
func NewKellyCriterion(cfg KellyConfig) *KellyCriterion {
	return &KellyCriterion{cfg: cfg.withDefaults()}
}

// Stake computes the recommended bet for a win probability, decimal odds
// and bankroll.
//
//	f* = (b*p - q) / b   with b = odds-1, q = 1-p
//	ev = p*b - q
//
// Returns the no-bet recommendation when f* <= 0, ev <= minEdge, or
// odds <= 1. A negative bankroll is rejected with ErrInvalidBankroll.
func (k *KellyCriterion) Stake(winProb, odds, bankroll float64) (KellyRecommendation, error) {
	if bankroll < 0 {
		return KellyRecommendation{}, ErrInvalidBankroll
	}
	if odds <= 1 {
		return noBet(), nil
	}

	b := odds - 1
	p := winProb
	q := 1 - p

	fStar := (b*p - q) / b
	ev := p*b - q

	if fStar <= 0 || ev <= k.cfg.MinEdge {
		return noBet(), nil
	}

	fractional := fStar * k.cfg.Fraction
	final := fractional
	if final > k.cfg.MaxBetPct {
		final = k.cfg.MaxBetPct
	}

	stake := bankroll * final

	risk := "Low"
	if final > k.cfg.HighRiskPct {
		risk = "High"
	} else if final > k.cfg.MediumRiskPct {
		risk = "Medium"
	}

	return KellyRecommendation{
		RecommendedStake:     round2(stake),
		KellyPercentage:      round2(final * 100),
		ExpectedValue:        round2(stake * ev),
		ExpectedROI:          round2(ev * 100),
		RiskLevel:            risk,
		MaxLoss:              round2(stake),
		FullKellyStake:       round2(bankroll * fStar),
		FractionalKellyStake: round2(bankroll * fractional),
	}, nil
}

func noBet() KellyRecommendation {
	return KellyRecommendation{RiskLevel: "None"}
}
