package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
)

var (
	ErrNotFound = errors.New("player not found")
	ErrInvalid  = errors.New("invalid player")
)

type Store struct {
	db *sql.DB
}

func (s *Store) Close() error { return s.db.Close() }

// Patch carries the fields of a partial update. Nil fields are left alone.
type Patch struct {
	Name          *string         `json:"name"`
	NameEn        *string         `json:"nameEn"`
	Cost          *int            `json:"cost"`
	Positions     *[]nba.Position `json:"positions"`
	Team          *string         `json:"team"`
	PeakSeason    *string         `json:"peakSeason"`
	Championships *int            `json:"championships"`
	AllStar       *int            `json:"allStar"`
	MVP           *int            `json:"mvp"`
	FMVP          *int            `json:"fmvp"`
}

func (p Patch) apply(pl *nba.Player) {
	if p.Name != nil {
		pl.Name = *p.Name
	}
	if p.NameEn != nil {
		pl.NameEn = *p.NameEn
	}
	if p.Cost != nil {
		pl.Cost = *p.Cost
	}
	if p.Positions != nil {
		pl.Positions = *p.Positions
	}
	if p.Team != nil {
		pl.Team = *p.Team
	}
	if p.PeakSeason != nil {
		pl.PeakSeason = *p.PeakSeason
	}
	if p.Championships != nil {
		pl.Championships = *p.Championships
	}
	if p.AllStar != nil {
		pl.AllStar = *p.AllStar
	}
	if p.MVP != nil {
		pl.MVP = *p.MVP
	}
	if p.FMVP != nil {
		pl.FMVP = *p.FMVP
	}
}

func Validate(p nba.Player) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.NameEn) == "" {
		return fmt.Errorf("%w: name and nameEn are required", ErrInvalid)
	}
	if p.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalid)
	}
	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: at least one position is required", ErrInvalid)
	}
	for _, pos := range p.Positions {
		if !pos.Valid() {
			return fmt.Errorf("%w: unknown position %q", ErrInvalid, pos)
		}
	}
	if !nba.KnownFranchise(p.Team) {
		return fmt.Errorf("%w: unknown team code %s", ErrInvalid, p.Team)
	}
	if p.Championships < 0 || p.AllStar < 0 || p.MVP < 0 || p.FMVP < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalid)
	}
	return nil
}

const selectPlayer = `
	SELECT id, name, name_en, cost, positions, team, peak_season, championships, all_star, mvp, fmvp
	FROM players
`

// List returns all players, or only one franchise's when team is set.
func (s *Store) List(ctx context.Context, team string) ([]nba.Player, error) {
	query := selectPlayer
	args := []any{}
	if team != "" {
		query += " WHERE team = ?"
		args = append(args, team)
	}
	query += " ORDER BY team, cost DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []nba.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (nba.Player, error) {
	row := s.db.QueryRowContext(ctx, selectPlayer+" WHERE id = ?", id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nba.Player{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, err
}

// Create inserts p and returns its new id. A numeric p.ID is kept, which
// lets a seed file preserve the ids the front end already knows.
func (s *Store) Create(ctx context.Context, p nba.Player) (int64, error) {
	if err := Validate(p); err != nil {
		return 0, err
	}
	positions, err := json.Marshal(p.Positions)
	if err != nil {
		return 0, err
	}

	var id any
	if n, err := strconv.ParseInt(string(p.ID), 10, 64); err == nil && n > 0 {
		id = n
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, name_en, cost, positions, team, peak_season, championships, all_star, mvp, fmvp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.Name, p.NameEn, p.Cost, string(positions), p.Team, p.PeakSeason, p.Championships, p.AllStar, p.MVP, p.FMVP)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Update(ctx context.Context, id int64, patch Patch) (nba.Player, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nba.Player{}, err
	}
	patch.apply(&p)
	if err := Validate(p); err != nil {
		return nba.Player{}, err
	}
	positions, err := json.Marshal(p.Positions)
	if err != nil {
		return nba.Player{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE players
		SET name = ?, name_en = ?, cost = ?, positions = ?, team = ?, peak_season = ?,
		    championships = ?, all_star = ?, mvp = ?, fmvp = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.Name, p.NameEn, p.Cost, string(positions), p.Team, p.PeakSeason, p.Championships, p.AllStar, p.MVP, p.FMVP, id)
	if err != nil {
		return nba.Player{}, err
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (nba.Player, error) {
	var (
		p         nba.Player
		id        int64
		positions string
	)
	err := row.Scan(&id, &p.Name, &p.NameEn, &p.Cost, &positions, &p.Team, &p.PeakSeason,
		&p.Championships, &p.AllStar, &p.MVP, &p.FMVP)
	if err != nil {
		return nba.Player{}, err
	}
	p.ID = nba.PlayerID(strconv.FormatInt(id, 10))
	if err := json.Unmarshal([]byte(positions), &p.Positions); err != nil {
		return nba.Player{}, fmt.Errorf("player %d positions: %w", id, err)
	}
	return p, nil
}
