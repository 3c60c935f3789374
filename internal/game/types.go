package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseSelection Phase = "selection"
	PhaseBattle    Phase = "battle"
	PhaseFinished  Phase = "finished"
)

type SelectionPhase string

const (
	SelectionDraw SelectionPhase = "draw"
	SelectionPick SelectionPhase = "pick"
)

// Seat is one of the two fixed participant slots. The zero value means "no seat".
type Seat uint8

const (
	SeatOne Seat = 1
	SeatTwo Seat = 2
)

var Seats = [2]Seat{SeatOne, SeatTwo}

func (s Seat) Valid() bool { return s == SeatOne || s == SeatTwo }

func (s Seat) Other() Seat {
	switch s {
	case SeatOne:
		return SeatTwo
	case SeatTwo:
		return SeatOne
	}
	return 0
}

func (s Seat) String() string { return strconv.Itoa(int(s)) }

func ParseSeat(v string) (Seat, error) {
	switch v {
	case "1":
		return SeatOne, nil
	case "2":
		return SeatTwo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeat, v)
}

func (s Seat) MarshalJSON() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalJSON accepts 1 and "1"; browsers send both.
func (s *Seat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = string(b)
	}
	seat, err := ParseSeat(raw)
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

func (s Seat) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Seat) UnmarshalText(b []byte) error {
	seat, err := ParseSeat(string(b))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

type Participant struct {
	ConnID string `json:"sid"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
}

// Draft is one seat's side of the draft.
type Draft struct {
	Budget    int        `json:"budget"`
	Roster    nba.Roster `json:"roster"`
	UsedTeams []string   `json:"usedTeams"`
}

// Session is a live two-seat room. It is only touched while holding the
// Manager's lock.
type Session struct {
	ID             string
	CreatedAt      time.Time
	Players        map[Seat]*Participant
	Phase          Phase
	SelectionPhase SelectionPhase
	CurrentPlayer  Seat
	Round          int
	Drafts         map[Seat]*Draft
	DrawnTeam      string

	battling bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func newSession(id string, budget int, now time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:             id,
		CreatedAt:      now,
		Players:        map[Seat]*Participant{SeatOne: nil, SeatTwo: nil},
		Phase:          PhaseWaiting,
		SelectionPhase: SelectionDraw,
		Drafts:         make(map[Seat]*Draft, 2),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, seat := range Seats {
		s.Drafts[seat] = &Draft{Budget: budget, Roster: nba.Roster{}, UsedTeams: []string{}}
	}
	return s
}

func (s *Session) teamUsed(code string) bool {
	for _, d := range s.Drafts {
		for _, used := range d.UsedTeams {
			if used == code {
				return true
			}
		}
	}
	return false
}

func (s *Session) playerDrafted(id nba.PlayerID) bool {
	if id == "" {
		return false
	}
	for _, d := range s.Drafts {
		if d.Roster.Has(id) {
			return true
		}
	}
	return false
}

// seatOf reports the seat connID occupies, or 0.
func (s *Session) seatOf(connID string) Seat {
	for _, seat := range Seats {
		if p := s.Players[seat]; p != nil && p.ConnID == connID {
			return seat
		}
	}
	return 0
}

func (s *Session) displayName(seat Seat) string {
	if p := s.Players[seat]; p != nil && p.Name != "" {
		return p.Name
	}
	return ""
}

// passTurn hands the turn to the other seat and starts a fresh draw.
func (s *Session) passTurn() {
	s.CurrentPlayer = s.CurrentPlayer.Other()
	s.Round++
	s.DrawnTeam = ""
	s.SelectionPhase = SelectionDraw
}

// View is the room_state snapshot sent to clients after every mutation.
type View struct {
	RoomID         string                `json:"room_id"`
	Players        map[Seat]*Participant `json:"players"`
	Phase          Phase                 `json:"phase"`
	SelectionPhase SelectionPhase        `json:"selection_phase"`
	CurrentPlayer  *Seat                 `json:"current_player"`
	Round          int                   `json:"round"`
	DrawnTeam      string                `json:"drawn_team"`
	Teams          map[Seat]Draft        `json:"teams"`
	CreatedAt      time.Time             `json:"created_at"`
}

func (s *Session) View() View {
	v := View{
		RoomID:         s.ID,
		Players:        make(map[Seat]*Participant, 2),
		Phase:          s.Phase,
		SelectionPhase: s.SelectionPhase,
		Round:          s.Round,
		DrawnTeam:      s.DrawnTeam,
		Teams:          make(map[Seat]Draft, 2),
		CreatedAt:      s.CreatedAt,
	}
	if s.CurrentPlayer.Valid() {
		cur := s.CurrentPlayer
		v.CurrentPlayer = &cur
	}
	for _, seat := range Seats {
		if p := s.Players[seat]; p != nil {
			cp := *p
			v.Players[seat] = &cp
		} else {
			v.Players[seat] = nil
		}
		d := s.Drafts[seat]
		v.Teams[seat] = Draft{
			Budget:    d.Budget,
			Roster:    d.Roster.Clone(),
			UsedTeams: append([]string{}, d.UsedTeams...),
		}
	}
	return v
}
