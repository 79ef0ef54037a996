package engine

import (
	"math"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// EnsembleResult is the consensus of all model predictions for one
// fixture. Immutable once computed.
type EnsembleResult struct {
	// Probabilities is the weighted consensus vector, normalized to sum 1.
	Probabilities map[models.Outcome]float64 `json:"probabilities"`
	// ProbabilityGap is the difference between the two largest consensus
	// probabilities.
	ProbabilityGap float64 `json:"probability_gap"`
	// Agreement measures how closely the individual model vectors cluster
	// around the consensus: 1 minus the mean total-variation distance of
	// each model vector to the consensus, clamped to [0,1]. More
	// divergent models yield strictly lower agreement.
	Agreement float64 `json:"agreement"`
}

// AggregatePredictions combines model probability vectors into one
// consensus vector, weighted by the static model-weight table. Weights
// are renormalized over the models actually present for the fixture.
// An empty prediction set returns ErrInsufficientData; a single model is
// valid and degenerates to that model with agreement 1.0.
func AggregatePredictions(preds []models.ModelPrediction, weights map[string]float64, set models.OutcomeSet) (*EnsembleResult, error) {
	if len(preds) == 0 {
		return nil, ErrInsufficientData
	}

	totalWeight := 0.0
	for _, p := range preds {
		totalWeight += weightFor(p.ModelID, weights)
	}
	if totalWeight <= 0 {
		return nil, ErrInsufficientData
	}

	consensus := make(map[models.Outcome]float64, len(set.Order))
	for _, o := range set.Order {
		sum := 0.0
		for _, p := range preds {
			sum += p.Probabilities[o] * weightFor(p.ModelID, weights)
		}
		consensus[o] = sum / totalWeight
	}

	// Floating error can leave the vector slightly off 1; renormalize.
	vectorSum := 0.0
	for _, o := range set.Order {
		vectorSum += consensus[o]
	}
	if vectorSum > 0 {
		for _, o := range set.Order {
			consensus[o] /= vectorSum
		}
	}

	first, second := topTwo(consensus, set)

	agreement := 1.0
	if len(preds) > 1 {
		agreement = agreementScore(preds, consensus, set)
	}

	return &EnsembleResult{
		Probabilities:  consensus,
		ProbabilityGap: first - second,
		Agreement:      agreement,
	}, nil
}

// weightFor returns a model's static weight, defaulting to 1.0 for
// models outside the configured roster.
func weightFor(modelID string, weights map[string]float64) float64 {
	if w, ok := weights[modelID]; ok && w > 0 {
		return w
	}
	return 1.0
}

func topTwo(probs map[models.Outcome]float64, set models.OutcomeSet) (first, second float64) {
	for _, o := range set.Order {
		p := probs[o]
		if p > first {
			first, second = p, first
		} else if p > second {
			second = p
		}
	}
	return first, second
}

// agreementScore is 1 minus the mean total-variation distance of each
// model vector to the consensus. TV distance is half the L1 distance,
// already in [0,1] for probability vectors.
func agreementScore(preds []models.ModelPrediction, consensus map[models.Outcome]float64, set models.OutcomeSet) float64 {
	meanTV := 0.0
	for _, p := range preds {
		tv := 0.0
		for _, o := range set.Order {
			tv += math.Abs(p.Probabilities[o] - consensus[o])
		}
		meanTV += tv / 2
	}
	meanTV /= float64(len(preds))

	a := 1.0 - meanTV
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
