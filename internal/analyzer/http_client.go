package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/betengine/internal/pkg/models"
)

// ProviderClient fetches odds boards and model predictions from the
// provider's HTTP API.
type ProviderClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProviderClient creates an HTTP client for the provider API.
func NewProviderClient(baseURL string, timeout time.Duration) *ProviderClient {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ProviderClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// oddsBoard is one bookmaker's quote for one fixture as the provider
// reports it.
type oddsBoard struct {
	Sport     string             `json:"sport"`
	HomeTeam  string             `json:"home_team"`
	AwayTeam  string             `json:"away_team"`
	StartTime time.Time          `json:"start_time"`
	Bookmaker string             `json:"bookmaker"`
	Odds      map[string]float64 `json:"odds"`
}

type oddsResponse struct {
	Boards []oddsBoard `json:"boards"`
	Meta   struct {
		Count  int    `json:"count"`
		Source string `json:"source"`
	} `json:"meta"`
}

// providerPrediction is one model's probability vector for one fixture.
type providerPrediction struct {
	Sport         string             `json:"sport"`
	HomeTeam      string             `json:"home_team"`
	AwayTeam      string             `json:"away_team"`
	StartTime     time.Time          `json:"start_time"`
	ModelID       string             `json:"model_id"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    *float64           `json:"confidence,omitempty"`
}

type predictionsResponse struct {
	Predictions []providerPrediction `json:"predictions"`
}

// GetSnapshots fetches all odds boards and groups them per fixture.
// Boards from different bookmakers that normalize to the same fixture
// key land in one snapshot.
func (c *ProviderClient) GetSnapshots(ctx context.Context) ([]models.FixtureOddsSnapshot, error) {
	if c == nil {
		return nil, fmt.Errorf("provider client is not configured")
	}

	var resp oddsResponse
	if err := c.getJSON(ctx, "/odds", &resp); err != nil {
		return nil, err
	}

	byFixture := make(map[string]*models.FixtureOddsSnapshot)
	var order []string

	for _, board := range resp.Boards {
		id := models.CanonicalFixtureID(board.Sport, board.HomeTeam, board.AwayTeam, board.StartTime)

		snap, ok := byFixture[id]
		if !ok {
			snap = &models.FixtureOddsSnapshot{
				FixtureID: id,
				HomeTeam:  board.HomeTeam,
				AwayTeam:  board.AwayTeam,
				Sport:     board.Sport,
				StartTime: board.StartTime,
			}
			byFixture[id] = snap
			order = append(order, id)
		}

		odds := make(map[models.Outcome]float64, len(board.Odds))
		for outcome, v := range board.Odds {
			odds[models.Outcome(outcome)] = v
		}
		snap.Quotes = append(snap.Quotes, models.OddsQuote{
			Bookmaker: board.Bookmaker,
			Odds:      odds,
		})
	}

	snaps := make([]models.FixtureOddsSnapshot, 0, len(order))
	for _, id := range order {
		snaps = append(snaps, *byFixture[id])
	}
	return snaps, nil
}

// GetPredictions fetches all model predictions grouped per fixture key.
func (c *ProviderClient) GetPredictions(ctx context.Context) (map[string]models.ModelPredictionSet, error) {
	if c == nil {
		return nil, fmt.Errorf("provider client is not configured")
	}

	var resp predictionsResponse
	if err := c.getJSON(ctx, "/predictions", &resp); err != nil {
		return nil, err
	}

	sets := make(map[string]models.ModelPredictionSet)
	for _, p := range resp.Predictions {
		id := models.CanonicalFixtureID(p.Sport, p.HomeTeam, p.AwayTeam, p.StartTime)

		probs := make(map[models.Outcome]float64, len(p.Probabilities))
		for outcome, v := range p.Probabilities {
			probs[models.Outcome(outcome)] = v
		}

		set := sets[id]
		set.FixtureID = id
		set.Predictions = append(set.Predictions, models.ModelPrediction{
			ModelID:       p.ModelID,
			Probabilities: probs,
			Confidence:    p.Confidence,
		})
		sets[id] = set
	}
	return sets, nil
}

func (c *ProviderClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
