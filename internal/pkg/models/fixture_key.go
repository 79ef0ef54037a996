package models

import (
	"strings"
	"time"
)

// CanonicalFixtureID builds a stable cross-bookmaker fixture identifier.
//
// IMPORTANT: this assumes team names are in the same language across
// sources; keep all providers in English.
// Format: sport|home|away|start_time (start rounded to tolerate small
// differences between provider clocks).
func CanonicalFixtureID(sport, homeTeam, awayTeam string, startTime time.Time) string {
	home := NormalizeTeam(homeTeam)
	away := NormalizeTeam(awayTeam)
	if home == "" || away == "" {
		return ""
	}

	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" {
		sport = "unknown"
	}

	if startTime.IsZero() {
		// No start time: group only by teams.
		return sport + "|" + home + "|" + away
	}
	t := startTime.UTC().Truncate(30 * time.Minute)
	return sport + "|" + home + "|" + away + "|" + t.Format(time.RFC3339)
}

// teamNamePrefixes are stripped for grouping so "RC Hades" and "Hades"
// resolve to the same fixture.
var teamNamePrefixes = []string{
	"r.c. ", "rc ", "k.s.k. ", "ksk ", "f.c. ", "fc ", "f.k. ", "fk ",
	"c.f. ", "cf ", "s.c. ", "sc ", "s.s.c. ", "ssc ", "a.c. ", "ac ", "a.s. ", "as ",
	"u.d. ", "ud ", "c.d. ", "cd ", "n.k. ", "nk ", "b.c. ", "bc ", "bk ",
}

// NormalizeTeam normalizes a team name for comparison and grouping.
// Strips common club prefixes and collapses whitespace.
func NormalizeTeam(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, p := range teamNamePrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	s = strings.ReplaceAll(s, "|", " ")
	return strings.Join(strings.Fields(s), " ")
}
