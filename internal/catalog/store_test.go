package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func jordan() nba.Player {
	return nba.Player{
		Name:          "乔丹",
		NameEn:        "Michael Jordan",
		Cost:          5,
		Positions:     []nba.Position{nba.SG, nba.SF},
		Team:          "CHI",
		PeakSeason:    "1990-91",
		Championships: 6,
		AllStar:       14,
		MVP:           5,
		FMVP:          6,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, jordan())
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	want := jordan()
	want.ID = got.ID
	assert.Equal(t, want, got)
}

func TestCreateKeepsNumericID(t *testing.T) {
	s := openTestStore(t)
	p := jordan()
	p.ID = "23"
	id, err := s.Create(context.Background(), p)
	require.NoError(t, err)
	assert.EqualValues(t, 23, id)
}

func TestCreateValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cases := map[string]func(p *nba.Player){
		"unknown team":   func(p *nba.Player) { p.Team = "SEA" },
		"no positions":   func(p *nba.Player) { p.Positions = nil },
		"bad position":   func(p *nba.Player) { p.Positions = []nba.Position{"G"} },
		"negative cost":  func(p *nba.Player) { p.Cost = -1 },
		"missing name":   func(p *nba.Player) { p.Name = " " },
		"negative count": func(p *nba.Player) { p.MVP = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := jordan()
			mutate(&p)
			_, err := s.Create(ctx, p)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListByTeam(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, jordan())
	require.NoError(t, err)
	magic := nba.Player{Name: "魔术师", NameEn: "Magic Johnson", Cost: 5, Positions: []nba.Position{nba.PG}, Team: "LAL", PeakSeason: "1986-87"}
	_, err = s.Create(ctx, magic)
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	lakers, err := s.List(ctx, "LAL")
	require.NoError(t, err)
	require.Len(t, lakers, 1)
	assert.Equal(t, "Magic Johnson", lakers[0].NameEn)

	none, err := s.List(ctx, "TOR")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdatePartial(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, jordan())
	require.NoError(t, err)

	cost := 4
	season := "1995-96"
	updated, err := s.Update(ctx, id, Patch{Cost: &cost, PeakSeason: &season})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Cost)
	assert.Equal(t, "Michael Jordan", updated.NameEn)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1995-96", got.PeakSeason)
	assert.Equal(t, []nba.Position{nba.SG, nba.SF}, got.Positions)

	bad := "XXX"
	_, err = s.Update(ctx, id, Patch{Team: &bad})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.Update(ctx, 999, Patch{Cost: &cost})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, jordan())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestSeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := filepath.Join(t.TempDir(), "players.json")
	data := `[
		{"id": 1, "name": "乔丹", "nameEn": "Michael Jordan", "cost": 5, "positions": ["SG","SF"], "team": "CHI", "peakSeason": "1990-91", "championships": 6, "allStar": 14, "mvp": 5, "fmvp": 6},
		{"id": 2, "name": "皮蓬", "nameEn": "Scottie Pippen", "cost": 3, "positions": ["SF"], "team": "CHI", "peakSeason": "1993-94", "championships": 6, "allStar": 7, "mvp": 0, "fmvp": 0},
		{"id": 3, "name": "坏数据", "nameEn": "Broken", "cost": 1, "positions": ["SF"], "team": "???"}
	]`
	require.NoError(t, os.WriteFile(seed, []byte(data), 0o644))

	n, err := s.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Scottie Pippen", p.NameEn)

	again, err := s.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, again, "seeding a populated catalog is a no-op")
}

func TestSeedMissingFile(t *testing.T) {
	s := openTestStore(t)
	n, err := s.Seed(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), jordan())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
