package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/battle"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
)

// ExportBattle appends a text record of a finished series to filename.
func ExportBattle(filename string, v View, req battle.Request, out *battle.Outcome) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(filename); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	if fileExists {
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf("NBA Legend Finals - Room %s\n", v.RoomID))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	if out != nil {
		sb.WriteString(fmt.Sprintf("Battle: %s (%s, %s)\n", out.ID, out.Parsed, out.Duration.Round(time.Second)))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	names := req.Names
	writeRoster(&sb, nameOr(names.Team1, "Team A"), req.Team1, v.Teams[SeatOne].Budget)
	writeRoster(&sb, nameOr(names.Team2, "Team B"), req.Team2, v.Teams[SeatTwo].Budget)

	if out != nil {
		res := out.Result
		winner := championName(names, res.Champion())
		w1, w2 := res.SeriesScore()
		sb.WriteString(fmt.Sprintf("Champion: %s\n", winner))
		sb.WriteString(fmt.Sprintf("Series: %d-%d\n", w1, w2))
		if fmvp := res.FMVP(); fmvp != "" {
			sb.WriteString(fmt.Sprintf("Finals MVP: %s\n", fmvp))
		}
		if summary := res.Summary(); summary != "" {
			sb.WriteString("\n" + summary + "\n")
		}
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func writeRoster(sb *strings.Builder, name string, r nba.Roster, budgetLeft int) {
	sb.WriteString(fmt.Sprintf("%s (budget left %d):\n", name, budgetLeft))
	for _, pos := range nba.Positions {
		p, ok := r[pos]
		if !ok {
			sb.WriteString(fmt.Sprintf("- %s: (empty)\n", pos))
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %s %s (cost %d)\n", pos, p.PeakSeason, p.NameEn, p.Cost))
	}
	sb.WriteString("\n")
}

func championName(n prompt.Names, champion int) string {
	if champion == 2 {
		return nameOr(n.Team2, "Team B")
	}
	return nameOr(n.Team1, "Team A")
}

func nameOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
