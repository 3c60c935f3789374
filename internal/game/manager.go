package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/battle"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
	"github.com/rs/zerolog/log"
)

// Outgoing event names.
const (
	EventRoomCreated     = "room_created"
	EventRoomJoined      = "room_joined"
	EventPlayerJoined    = "player_joined"
	EventPlayerReady     = "player_ready"
	EventTeamSelected    = "team_selected"
	EventPlayerSelected  = "player_selected"
	EventTurnSkipped     = "turn_skipped"
	EventTeamRedrawn     = "team_redrawn"
	EventPlayerLeft      = "player_left"
	EventBattleRequested = "battle_requested"
	EventBattleStarted   = "battle_started"
	EventBattleStream    = "battle_stream"
	EventError           = "error"
)

// Notifier delivers an event to a single connection.
type Notifier interface {
	Emit(connID, event string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Emit(string, string, any) {}

type Options struct {
	StartingBudget int
	// ExportFile, when set, receives a text record of every finished battle.
	ExportFile string
	Now        func() time.Time
}

// Manager owns every live session. All mutations happen under mu, so
// handlers for the same room never interleave and events leave in the
// order the state changed.
type Manager struct {
	mu     sync.Mutex
	store  Store
	notify Notifier
	runner *battle.Runner
	opts   Options
}

func NewManager(store Store, runner *battle.Runner, opts Options) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{store: store, notify: nopNotifier{}, runner: runner, opts: opts}
}

// SetNotifier must be called before the transport starts serving.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	m.notify = n
}

func (m *Manager) Get(roomID string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store.Get(roomID)
	if !ok {
		return View{}, ErrRoomNotFound
	}
	return s.View(), nil
}

func (m *Manager) Len() int { return m.store.Len() }

func (m *Manager) Create(connID, name string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := randomCode(6)
	for {
		if _, taken := m.store.Get(code); !taken {
			break
		}
		code = randomCode(6)
	}
	s := newSession(code, m.opts.StartingBudget, m.opts.Now().UTC())
	s.Players[SeatOne] = &Participant{ConnID: connID, Name: name}
	m.store.Put(s)

	log.Info().Str("room", code).Str("sid", connID).Msg("room created")
	v := s.View()
	m.notify.Emit(connID, EventRoomCreated, map[string]any{
		"room_id":    code,
		"player_num": SeatOne,
		"room_state": v,
	})
	return v, nil
}

// Join seats the connection as seat 2. A seat vacated by a disconnect is
// never handed to a newcomer, so a room whose creator left cannot be taken
// over mid-draft.
func (m *Manager) Join(roomID, connID, name string) (Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.Get(roomID)
	if !ok {
		return 0, ErrRoomNotFound
	}
	seat := SeatTwo
	if s.Players[seat] != nil {
		return 0, ErrRoomFull
	}
	s.Players[seat] = &Participant{ConnID: connID, Name: name}

	log.Info().Str("room", roomID).Str("sid", connID).Stringer("seat", seat).Msg("player joined")
	v := s.View()
	m.broadcastExcept(s, connID, EventPlayerJoined, map[string]any{
		"player_num":  seat,
		"player_name": name,
		"room_state":  v,
	})
	m.notify.Emit(connID, EventRoomJoined, map[string]any{
		"room_id":    roomID,
		"player_num": seat,
		"room_state": v,
	})
	return seat, nil
}

func (m *Manager) MarkReady(roomID, connID string, seat Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.seated(roomID, connID, seat)
	if err != nil {
		return err
	}
	s.Players[seat].Ready = true

	if s.Phase == PhaseWaiting && bothReady(s) {
		s.Phase = PhaseSelection
		s.CurrentPlayer = SeatOne
		s.Round = 1
		s.SelectionPhase = SelectionDraw
		log.Info().Str("room", roomID).Msg("draft started")
	}
	m.broadcast(s, EventPlayerReady, map[string]any{
		"player_num": seat,
		"room_state": s.View(),
	})
	return nil
}

func (m *Manager) SelectTeam(roomID, connID string, seat Seat, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.acting(roomID, connID, seat)
	if err != nil {
		return err
	}
	if s.teamUsed(code) {
		return ErrTeamTaken
	}
	if s.SelectionPhase != SelectionDraw {
		return ErrWrongPhase
	}
	if !nba.KnownFranchise(code) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, code)
	}

	d := s.Drafts[seat]
	d.UsedTeams = append(d.UsedTeams, code)
	s.DrawnTeam = code
	s.SelectionPhase = SelectionPick

	m.broadcast(s, EventTeamSelected, map[string]any{
		"player_num": seat,
		"team_code":  code,
		"room_state": s.View(),
	})
	return nil
}

// SelectPlayer fills one roster slot from the franchise drawn this turn.
func (m *Manager) SelectPlayer(roomID, connID string, seat Seat, player nba.Player, pos nba.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.acting(roomID, connID, seat)
	if err != nil {
		return err
	}
	if err := validatePick(s, seat, player, pos); err != nil {
		return err
	}

	d := s.Drafts[seat]
	d.Roster[pos] = player
	d.Budget -= player.Cost

	if s.Drafts[SeatOne].Roster.Full() && s.Drafts[SeatTwo].Roster.Full() {
		s.Phase = PhaseBattle
		s.CurrentPlayer = 0
		s.DrawnTeam = ""
		s.SelectionPhase = SelectionDraw
		log.Info().Str("room", roomID).Msg("draft complete")
	} else {
		s.passTurn()
	}

	m.broadcast(s, EventPlayerSelected, map[string]any{
		"player_num":  seat,
		"player_data": player,
		"position":    pos,
		"room_state":  s.View(),
	})
	return nil
}

func validatePick(s *Session, seat Seat, player nba.Player, pos nba.Position) error {
	if s.SelectionPhase != SelectionPick || s.DrawnTeam == "" {
		return ErrWrongPhase
	}
	if player.Team != "" && player.Team != s.DrawnTeam {
		return fmt.Errorf("%w: %s plays for %s, drawn %s", ErrNotDrawnTeam, player.Name, player.Team, s.DrawnTeam)
	}
	if !pos.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
	}
	if player.Cost < 0 {
		return fmt.Errorf("%w: negative cost", ErrInvalidPlayer)
	}
	if len(player.Positions) > 0 && !eligible(player, pos) {
		return fmt.Errorf("%w: %s cannot play %s", ErrInvalidPosition, player.Name, pos)
	}
	d := s.Drafts[seat]
	if _, filled := d.Roster[pos]; filled {
		return ErrSlotTaken
	}
	if s.playerDrafted(player.ID) {
		return ErrPlayerTaken
	}
	if player.Cost > d.Budget {
		return ErrOverBudget
	}
	return nil
}

func eligible(p nba.Player, pos nba.Position) bool {
	for _, candidate := range p.Positions {
		if candidate == pos {
			return true
		}
	}
	return false
}

func (m *Manager) SkipTurn(roomID, connID string, seat Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.acting(roomID, connID, seat)
	if err != nil {
		return err
	}
	s.passTurn()
	m.broadcast(s, EventTurnSkipped, map[string]any{
		"player_num": seat,
		"room_state": s.View(),
	})
	return nil
}

// RedrawTeam hands the drawn franchise back to the pool and returns the
// acting seat to the draw step.
func (m *Manager) RedrawTeam(roomID, connID string, seat Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.acting(roomID, connID, seat)
	if err != nil {
		return err
	}
	if s.SelectionPhase != SelectionPick || s.DrawnTeam == "" {
		return ErrWrongPhase
	}
	code := s.DrawnTeam
	d := s.Drafts[seat]
	for i, used := range d.UsedTeams {
		if used == code {
			d.UsedTeams = append(d.UsedTeams[:i], d.UsedTeams[i+1:]...)
			break
		}
	}
	s.DrawnTeam = ""
	s.SelectionPhase = SelectionDraw

	m.broadcast(s, EventTeamRedrawn, map[string]any{
		"player_num": seat,
		"team_code":  code,
		"room_state": s.View(),
	})
	return nil
}

func (m *Manager) RequestBattle(roomID, connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if s.seatOf(connID) == 0 {
		return ErrNotSeated
	}
	m.broadcast(s, EventBattleRequested, map[string]any{
		"team1":       s.Drafts[SeatOne].Roster.Clone(),
		"team2":       s.Drafts[SeatTwo].Roster.Clone(),
		"playerNames": playerNames(s),
	})
	return nil
}

// BattleRequest carries what the client sent with start_battle. Empty rosters
// fall back to the drafted ones, empty names to the seat names.
type BattleRequest struct {
	Team1 nba.Roster
	Team2 nba.Roster
	Names prompt.Names
}

// RunBattle streams one series to every seat and blocks until it ends. Call
// it on its own goroutine. The room moves to finished on success and stays
// in battle on failure so the players can try again.
func (m *Manager) RunBattle(roomID, connID string, req BattleRequest) error {
	m.mu.Lock()
	s, ok := m.store.Get(roomID)
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if s.seatOf(connID) == 0 {
		m.mu.Unlock()
		return ErrNotSeated
	}
	if s.Phase != PhaseBattle && s.Phase != PhaseFinished {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	if s.battling {
		m.mu.Unlock()
		return ErrBattleRunning
	}
	if m.runner == nil {
		m.mu.Unlock()
		return ErrModelUnavailable
	}
	s.battling = true
	ctx := s.ctx
	br := battle.Request{Team1: req.Team1, Team2: req.Team2, Names: req.Names}
	if len(br.Team1) == 0 {
		br.Team1 = s.Drafts[SeatOne].Roster.Clone()
	}
	if len(br.Team2) == 0 {
		br.Team2 = s.Drafts[SeatTwo].Roster.Clone()
	}
	names := playerNames(s)
	if br.Names.Team1 == "" {
		br.Names.Team1 = names.Team1
	}
	if br.Names.Team2 == "" {
		br.Names.Team2 = names.Team2
	}
	m.broadcast(s, EventBattleStarted, map[string]any{"message": "Battle started, simulating the series..."})
	m.mu.Unlock()

	out, err := m.runner.Run(ctx, br, func(e battle.Event) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.store.Get(roomID); ok && cur == s {
			m.broadcast(s, EventBattleStream, e)
		}
		return ctx.Err()
	})

	m.mu.Lock()
	s.battling = false
	var view View
	if err == nil {
		s.Phase = PhaseFinished
		view = s.View()
	}
	m.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("battle ended without result")
		return err
	}
	if m.opts.ExportFile != "" {
		if xerr := ExportBattle(m.opts.ExportFile, view, br, out); xerr != nil {
			log.Error().Err(xerr).Str("room", roomID).Msg("export failed")
		}
	}
	return nil
}

// HandleDisconnect frees every seat held by connID, tells the rest of each
// room, and drops rooms nobody is left in.
func (m *Manager) HandleDisconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected []*Session
	m.store.Range(func(s *Session) bool {
		for _, seat := range Seats {
			if p := s.Players[seat]; p != nil && p.ConnID == connID {
				affected = append(affected, s)
				break
			}
		}
		return true
	})

	for _, s := range affected {
		for _, seat := range Seats {
			p := s.Players[seat]
			if p == nil || p.ConnID != connID {
				continue
			}
			label := p.Name
			if label == "" {
				label = "Player " + seat.String()
			}
			s.Players[seat] = nil
			m.broadcastExcept(s, connID, EventPlayerLeft, map[string]any{
				"player_num": seat,
				"message":    label + " left the room",
			})
		}
		if empty(s) {
			s.cancel()
			m.store.Delete(s.ID)
			log.Info().Str("room", s.ID).Msg("room closed")
		}
	}
}

func (m *Manager) session(roomID string, seat Seat) (*Session, error) {
	if !seat.Valid() {
		return nil, ErrInvalidSeat
	}
	s, ok := m.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

// seated returns the session only if connID is the one sitting in seat.
func (m *Manager) seated(roomID, connID string, seat Seat) (*Session, error) {
	s, err := m.session(roomID, seat)
	if err != nil {
		return nil, err
	}
	p := s.Players[seat]
	if p == nil {
		return nil, ErrSeatEmpty
	}
	if p.ConnID != connID {
		return nil, ErrNotSeated
	}
	return s, nil
}

// acting returns the session only if connID holds seat and seat holds the turn.
func (m *Manager) acting(roomID, connID string, seat Seat) (*Session, error) {
	s, err := m.seated(roomID, connID, seat)
	if err != nil {
		return nil, err
	}
	if s.Phase != PhaseSelection || s.CurrentPlayer != seat {
		return nil, ErrOutOfTurn
	}
	return s, nil
}

func (m *Manager) broadcast(s *Session, event string, payload any) {
	m.broadcastExcept(s, "", event, payload)
}

func (m *Manager) broadcastExcept(s *Session, skip, event string, payload any) {
	for _, seat := range Seats {
		p := s.Players[seat]
		if p == nil || p.ConnID == "" || p.ConnID == skip {
			continue
		}
		m.notify.Emit(p.ConnID, event, payload)
	}
}

func bothReady(s *Session) bool {
	for _, seat := range Seats {
		if p := s.Players[seat]; p == nil || !p.Ready {
			return false
		}
	}
	return true
}

func empty(s *Session) bool {
	for _, seat := range Seats {
		if s.Players[seat] != nil {
			return false
		}
	}
	return true
}

func playerNames(s *Session) prompt.Names {
	return prompt.Names{
		Team1: s.displayName(SeatOne),
		Team2: s.displayName(SeatTwo),
	}
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
