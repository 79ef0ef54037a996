package engine

import "github.com/Vodeneev/betengine/internal/pkg/models"

// UpsetAssessment is a heuristic [0,100] measure of how likely the
// consensus favorite is to be wrong. Higher means the caller should
// widen its uncertainty; it is not a probability and never replaces the
// ensemble vector.
type UpsetAssessment struct {
	Score   int            `json:"score"`
	Signals map[string]int `json:"signals"`
}

// Signal bucket names in the contributing-signal breakdown.
const (
	signalProbabilityGap = "probability_gap"
	signalConfidence     = "confidence"
	signalAgreement      = "agreement"
	signalNearTie        = "near_tie"
)

// ScoreUpset computes the additive upset score from four independent
// signal buckets. Each bucket evaluates its steps from most severe to
// least severe and contributes the first satisfied step only; the total
// is clamped at 100.
func ScoreUpset(res *EnsembleResult, preds []models.ModelPrediction, cfg UpsetConfig, set models.OutcomeSet) UpsetAssessment {
	cfg = cfg.withDefaults()
	signals := make(map[string]int, 4)

	if s := scoreBelow(res.ProbabilityGap, cfg.ProbabilityGap); s > 0 {
		signals[signalProbabilityGap] = s
	}
	if mean, ok := meanConfidence(preds); ok {
		if s := scoreBelow(mean, cfg.Confidence); s > 0 {
			signals[signalConfidence] = s
		}
	}
	if s := scoreBelow(res.Agreement, cfg.Agreement); s > 0 {
		signals[signalAgreement] = s
	}
	if set.NearTie != "" {
		if s := scoreAtLeast(res.Probabilities[set.NearTie], cfg.NearTie); s > 0 {
			signals[signalNearTie] = s
		}
	}

	total := 0
	for _, s := range signals {
		total += s
	}
	if total > 100 {
		total = 100
	}
	return UpsetAssessment{Score: total, Signals: signals}
}

// scoreBelow returns the first step whose threshold the value is below.
func scoreBelow(v float64, steps []UpsetStep) int {
	for _, st := range steps {
		if v < st.Threshold {
			return st.Score
		}
	}
	return 0
}

// scoreAtLeast returns the first step whose threshold the value meets.
func scoreAtLeast(v float64, steps []UpsetStep) int {
	for _, st := range steps {
		if v >= st.Threshold {
			return st.Score
		}
	}
	return 0
}

// meanConfidence averages confidence over the models that report one.
// The second return is false when no model does.
func meanConfidence(preds []models.ModelPrediction) (float64, bool) {
	sum, n := 0.0, 0
	for _, p := range preds {
		if p.Confidence == nil {
			continue
		}
		sum += *p.Confidence
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
