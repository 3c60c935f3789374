package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/rs/zerolog/log"
)

// Seed imports a JSON array of players into an empty catalog. A missing
// file or a non-empty catalog is not an error; it returns 0.
func (s *Store) Seed(ctx context.Context, path string) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("catalog seed not found, starting empty")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}

	var players []nba.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return 0, fmt.Errorf("parse seed: %w", err)
	}

	imported := 0
	for _, p := range players {
		if _, err := s.Create(ctx, p); err != nil {
			log.Warn().Err(err).Str("player", p.NameEn).Msg("skipping seed entry")
			continue
		}
		imported++
	}
	log.Info().Int("players", imported).Str("path", path).Msg("catalog seeded")
	return imported, nil
}
