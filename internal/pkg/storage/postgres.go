package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/config"
)

// Ensure PostgresStorage implements both storage interfaces
var _ RecommendationStorage = (*PostgresStorage)(nil)
var _ ArbitrageStorage = (*PostgresStorage)(nil)

// PostgresStorage stores recommendations and arbitrages in PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a PostgreSQL storage and initializes the schema.
func NewPostgresStorage(cfg *config.PostgresConfig) (*PostgresStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL storage initialized")
	return storage, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS recommendations (
		id SERIAL PRIMARY KEY,
		fixture_id VARCHAR(500) NOT NULL,
		fixture_name VARCHAR(500) NOT NULL,
		sport VARCHAR(100) NOT NULL,
		value_score DECIMAL(10, 4) NOT NULL,
		upset_score INTEGER NOT NULL,
		recommended_stake DECIMAL(12, 2) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_fixture_id ON recommendations(fixture_id);
	CREATE INDEX IF NOT EXISTS idx_recommendations_value_score ON recommendations(value_score DESC);
	CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at DESC);

	CREATE TABLE IF NOT EXISTS arbitrages (
		id SERIAL PRIMARY KEY,
		fixture_id VARCHAR(500) NOT NULL,
		fixture_name VARCHAR(500) NOT NULL,
		sport VARCHAR(100) NOT NULL,
		profit_margin DECIMAL(10, 4) NOT NULL,
		guaranteed_profit DECIMAL(12, 2) NOT NULL,
		total_stake DECIMAL(12, 2) NOT NULL,
		stakes JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_arbitrages_fixture_id ON arbitrages(fixture_id);
	CREATE INDEX IF NOT EXISTS idx_arbitrages_profit_margin ON arbitrages(profit_margin DESC);
	CREATE INDEX IF NOT EXISTS idx_arbitrages_created_at ON arbitrages(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreRecommendations inserts one scan's recommendations in a single
// transaction so a partial scan never lands.
func (s *PostgresStorage) StoreRecommendations(ctx context.Context, recs []engine.FixtureRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO recommendations (
		fixture_id, fixture_name, sport,
		value_score, upset_score, recommended_stake, payload
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal recommendation: %w", err)
		}

		valueScore := 0.0
		if rec.BestValue.Valid {
			valueScore = rec.BestValue.Score
		}

		_, err = tx.ExecContext(ctx, query,
			rec.FixtureID,
			rec.FixtureName,
			rec.Sport,
			valueScore,
			rec.Upset.Score,
			rec.Kelly.RecommendedStake,
			payload,
		)
		if err != nil {
			return fmt.Errorf("failed to store recommendation: %w", err)
		}
	}

	return tx.Commit()
}

// GetTopRecommendations returns the most recent recommendation per fixture,
// ordered by value score descending.
func (s *PostgresStorage) GetTopRecommendations(ctx context.Context, limit int) ([]engine.FixtureRecommendation, error) {
	query := `
	SELECT DISTINCT ON (fixture_id) payload
	FROM recommendations
	ORDER BY fixture_id, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []engine.FixtureRecommendation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}

		var rec engine.FixtureRecommendation
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sortByValueScore(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func sortByValueScore(recs []engine.FixtureRecommendation) {
	score := func(r engine.FixtureRecommendation) float64 {
		if r.BestValue.Valid {
			return r.BestValue.Score
		}
		return -1
	}
	sort.Slice(recs, func(i, j int) bool {
		return score(recs[i]) > score(recs[j])
	})
}

// StoreArbitrage saves a found arbitrage.
func (s *PostgresStorage) StoreArbitrage(ctx context.Context, opp engine.ArbitrageOpportunity) error {
	stakes, err := json.Marshal(opp.Stakes)
	if err != nil {
		return fmt.Errorf("failed to marshal stakes: %w", err)
	}

	query := `
	INSERT INTO arbitrages (
		fixture_id, fixture_name, sport,
		profit_margin, guaranteed_profit, total_stake, stakes
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query,
		opp.FixtureID,
		opp.FixtureName,
		opp.Sport,
		opp.ProfitMargin,
		opp.GuaranteedProfit,
		opp.TotalStake,
		stakes,
	)
	if err != nil {
		return fmt.Errorf("failed to store arbitrage: %w", err)
	}
	return nil
}

// GetLastArbitrage returns the most recent stored arbitrage for a fixture.
func (s *PostgresStorage) GetLastArbitrage(ctx context.Context, fixtureID string) (*StoredArbitrage, error) {
	query := `
	SELECT fixture_id, fixture_name, sport,
	       profit_margin, guaranteed_profit, total_stake, stakes, created_at
	FROM arbitrages
	WHERE fixture_id = $1
	ORDER BY created_at DESC
	LIMIT 1
	`

	stored, err := scanArbitrage(s.db.QueryRowContext(ctx, query, fixtureID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last arbitrage: %w", err)
	}
	return stored, nil
}

// GetTopArbitrages returns recent arbitrages ordered by profit margin.
func (s *PostgresStorage) GetTopArbitrages(ctx context.Context, limit int) ([]engine.ArbitrageOpportunity, error) {
	query := `
	SELECT fixture_id, fixture_name, sport,
	       profit_margin, guaranteed_profit, total_stake, stakes, created_at
	FROM arbitrages
	ORDER BY profit_margin DESC, created_at DESC
	LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query arbitrages: %w", err)
	}
	defer rows.Close()

	var opps []engine.ArbitrageOpportunity
	for rows.Next() {
		stored, err := scanArbitrage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan arbitrage: %w", err)
		}
		opps = append(opps, stored.Opportunity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return opps, nil
}

// CleanArbitrages removes arbitrage rows older than the cutoff.
func (s *PostgresStorage) CleanArbitrages(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM arbitrages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean arbitrages: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArbitrage(row rowScanner) (*StoredArbitrage, error) {
	var stored StoredArbitrage
	var stakes []byte

	err := row.Scan(
		&stored.Opportunity.FixtureID,
		&stored.Opportunity.FixtureName,
		&stored.Opportunity.Sport,
		&stored.Opportunity.ProfitMargin,
		&stored.Opportunity.GuaranteedProfit,
		&stored.Opportunity.TotalStake,
		&stakes,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stakes, &stored.Opportunity.Stakes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stakes: %w", err)
	}
	return &stored, nil
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
