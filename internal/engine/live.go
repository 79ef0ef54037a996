package engine

import "github.com/Vodeneev/betengine/internal/pkg/models"

// Momentum labels.
const (
	MomentumHome    = "home"
	MomentumAway    = "away"
	MomentumNeutral = "neutral"
)

// Live stats keys consumed by the momentum classifier.
const (
	statHomeDangerousAttacks = "home_dangerous_attacks"
	statAwayDangerousAttacks = "away_dangerous_attacks"
)

// LiveCandidate is one in-play value-bet suggestion with its heuristic
// edge (percent) and the reason it triggered.
type LiveCandidate struct {
	Outcome models.Outcome `json:"outcome"`
	Odds    float64        `json:"odds"`
	Edge    float64        `json:"edge"`
	Reason  string         `json:"reason"`
}

// LiveAnalysisResult is the in-play assessment of one snapshot.
// Recomputed on every call; the engine keeps no history.
type LiveAnalysisResult struct {
	FixtureID   string          `json:"fixture_id"`
	Momentum    string          `json:"momentum"`
	Candidates  []LiveCandidate `json:"candidates"`
	TimingScore int             `json:"timing_score"`
}

// LiveBettingEngine derives momentum and in-play value-bet candidates
// from a live snapshot. Pure function of its input.
type LiveBettingEngine struct {
	cfg LiveConfig
}

// NewLiveBettingEngine builds an engine with defaults applied.
func NewLiveBettingEngine(cfg LiveConfig) *LiveBettingEngine {
	return &LiveBettingEngine{cfg: cfg.withDefaults()}
}

// Analyze classifies momentum and evaluates both triggers. The triggers
// fire independently; candidates are appended, not mutually exclusive.
// Absent any trigger the timing score is the neutral default.
func (e *LiveBettingEngine) Analyze(snap models.LiveSnapshot) LiveAnalysisResult {
	set := models.OutcomesForSport(snap.Sport)
	momentum := e.momentum(snap.Stats)

	result := LiveAnalysisResult{
		FixtureID:   snap.FixtureID,
		Momentum:    momentum,
		TimingScore: e.cfg.NeutralTiming,
	}

	// Trigger A: the favorite trails but dominates play, early enough to
	// come back.
	if side, outcome, ok := e.trailingFavorite(snap, set); ok {
		if momentum == side && snap.Minute < e.cfg.FavoriteLateMinute {
			result.Candidates = append(result.Candidates, LiveCandidate{
				Outcome: outcome,
				Odds:    snap.Odds[outcome],
				Edge:    e.cfg.FavoriteEdge,
				Reason:  "favorite losing but dominating play",
			})
			if e.cfg.FavoriteTiming > result.TimingScore {
				result.TimingScore = e.cfg.FavoriteTiming
			}
		}
	}

	// Trigger B: late-game stalemate with no side pressing.
	if snap.HomeScore == snap.AwayScore && snap.Minute > e.cfg.DrawLateMinute &&
		momentum == MomentumNeutral && set.NearTie != "" {
		result.Candidates = append(result.Candidates, LiveCandidate{
			Outcome: set.NearTie,
			Odds:    snap.Odds[set.NearTie],
			Edge:    e.cfg.DrawEdge,
			Reason:  "late game stalemate",
		})
		if e.cfg.DrawTiming > result.TimingScore {
			result.TimingScore = e.cfg.DrawTiming
		}
	}

	return result
}

// momentum classifies the attack-intensity differential over the recent
// window.
func (e *LiveBettingEngine) momentum(stats map[string]float64) string {
	diff := stats[statHomeDangerousAttacks] - stats[statAwayDangerousAttacks]
	switch {
	case diff > e.cfg.MomentumThreshold:
		return MomentumHome
	case diff < -e.cfg.MomentumThreshold:
		return MomentumAway
	default:
		return MomentumNeutral
	}
}

// trailingFavorite reports which side trails on the scoreboard while
// still priced below the favorite cutoff.
func (e *LiveBettingEngine) trailingFavorite(snap models.LiveSnapshot, set models.OutcomeSet) (side string, outcome models.Outcome, ok bool) {
	if len(set.Order) < 3 {
		return "", "", false
	}
	homeOutcome, awayOutcome := set.Order[0], set.Order[2]

	switch {
	case snap.HomeScore < snap.AwayScore:
		if odd, valid := validLiveOdd(snap.Odds, homeOutcome); valid && odd < e.cfg.FavoriteOddsCutoff {
			return MomentumHome, homeOutcome, true
		}
	case snap.AwayScore < snap.HomeScore:
		if odd, valid := validLiveOdd(snap.Odds, awayOutcome); valid && odd < e.cfg.FavoriteOddsCutoff {
			return MomentumAway, awayOutcome, true
		}
	}
	return "", "", false
}

func validLiveOdd(odds map[models.Outcome]float64, o models.Outcome) (float64, bool) {
	odd, ok := odds[o]
	if !ok || !models.IsValidOdd(odd) {
		return 0, false
	}
	return odd, true
}
