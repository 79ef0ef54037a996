package storage

import (
	"context"
	"time"

	"github.com/Vodeneev/betengine/internal/engine"
)

// StoredArbitrage is an arbitrage row as persisted, with its insert time
// for cooldown checks.
type StoredArbitrage struct {
	Opportunity engine.ArbitrageOpportunity
	CreatedAt   time.Time
}

// RecommendationStorage persists per-fixture recommendations.
type RecommendationStorage interface {
	// StoreRecommendations saves one scan's recommendations
	StoreRecommendations(ctx context.Context, recs []engine.FixtureRecommendation) error

	// GetTopRecommendations returns the latest recommendations ordered by
	// value score descending
	GetTopRecommendations(ctx context.Context, limit int) ([]engine.FixtureRecommendation, error)

	// Close closes the database connection
	Close() error
}

// ArbitrageStorage persists detected arbitrage opportunities.
type ArbitrageStorage interface {
	// StoreArbitrage saves a found arbitrage
	StoreArbitrage(ctx context.Context, opp engine.ArbitrageOpportunity) error

	// GetLastArbitrage returns the most recent stored arbitrage for a
	// fixture, or nil when none exists
	GetLastArbitrage(ctx context.Context, fixtureID string) (*StoredArbitrage, error)

	// GetTopArbitrages returns recent arbitrages ordered by profit margin
	// descending
	GetTopArbitrages(ctx context.Context, limit int) ([]engine.ArbitrageOpportunity, error)

	// CleanArbitrages removes rows older than the cutoff and reports how
	// many were deleted
	CleanArbitrages(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the database connection
	Close() error
}
