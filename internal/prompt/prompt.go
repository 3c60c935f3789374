// Package prompt renders the instructions sent to the model for a best-of-seven
// Finals simulation between two drafted rosters.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
)

const (
	DefaultTeam1Name = "Team A"
	DefaultTeam2Name = "Team B"
)

// Names are the display names of the two seats. On the wire they are keyed
// by seat number: {"1": "...", "2": "..."}.
type Names struct {
	Team1 string
	Team2 string
}

func (n Names) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"1": n.Team1, "2": n.Team2})
}

// UnmarshalJSON also accepts {"team1": ..., "team2": ...}.
func (n *Names) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.Team1 = firstNonEmpty(raw["1"], raw["team1"])
	n.Team2 = firstNonEmpty(raw["2"], raw["team2"])
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (n Names) withDefaults() Names {
	if strings.TrimSpace(n.Team1) == "" {
		n.Team1 = DefaultTeam1Name
	}
	if strings.TrimSpace(n.Team2) == "" {
		n.Team2 = DefaultTeam2Name
	}
	return n
}

func season(p nba.Player) string {
	if p.PeakSeason == "" {
		return "unknown"
	}
	return p.PeakSeason
}

// FormatRoster renders one line per filled slot in lineup order.
func FormatRoster(r nba.Roster) string {
	lines := make([]string, 0, len(nba.Positions))
	for _, pos := range nba.Positions {
		p, ok := r[pos]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s season %s (%s)", pos.Label(), season(p), p.Name, p.NameEn))
	}
	return strings.Join(lines, "\n")
}

// FormatPlayerList renders the compact one-line list used in the closing reminder.
func FormatPlayerList(r nba.Roster) string {
	out := make([]string, 0, len(nba.Positions))
	for _, pos := range nba.Positions {
		p, ok := r[pos]
		if !ok {
			continue
		}
		out = append(out, fmt.Sprintf("%s season %s", season(p), p.Name))
	}
	return strings.Join(out, ", ")
}

// BuildSeriesPrompt is the single user turn of a battle.
func BuildSeriesPrompt(team1, team2 nba.Roster, names Names) string {
	n := names.withDefaults()
	return fmt.Sprintf(seriesTemplate,
		n.Team1, FormatRoster(team1),
		n.Team2, FormatRoster(team2),
		n.Team1, n.Team2,
		n.Team1, FormatPlayerList(team1),
		n.Team2, FormatPlayerList(team2),
	)
}
