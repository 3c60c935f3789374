package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/franklwy/NBA-Legend-Simulator/internal/game"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
)

// ConnCtx remembers which room and seat a socket was seated in. The manager
// checks seat ownership itself; this is only used for logging.
type ConnCtx struct {
	Room string
	Seat game.Seat
}

type Server struct {
	games *game.Manager

	mu    sync.RWMutex
	conns map[string]socketio.Conn // socket id -> Conn
}

// New registers the server as the manager's notifier.
func New(games *game.Manager) *Server {
	srv := &Server{games: games, conns: make(map[string]socketio.Conn)}
	games.SetNotifier(srv)
	return srv
}

// Emit implements game.Notifier.
func (srv *Server) Emit(connID, event string, payload any) {
	srv.mu.RLock()
	c, ok := srv.conns[connID]
	srv.mu.RUnlock()
	if !ok {
		log.Debug().Str("sid", connID).Str("event", event).Msg("emit to unknown socket dropped")
		return
	}
	c.Emit(event, payload)
}

type createRoomPayload struct {
	PlayerName string `json:"player_name"`
}

type joinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type seatPayload struct {
	RoomID    string    `json:"room_id"`
	PlayerNum game.Seat `json:"player_num"`
}

type selectTeamPayload struct {
	RoomID    string    `json:"room_id"`
	PlayerNum game.Seat `json:"player_num"`
	TeamCode  string    `json:"team_code"`
}

type selectPlayerPayload struct {
	RoomID     string       `json:"room_id"`
	PlayerNum  game.Seat    `json:"player_num"`
	PlayerData nba.Player   `json:"player_data"`
	Position   nba.Position `json:"position"`
}

type roomPayload struct {
	RoomID string `json:"room_id"`
}

type startBattlePayload struct {
	RoomID      string       `json:"room_id"`
	Team1       nba.Roster   `json:"team1"`
	Team2       nba.Roster   `json:"team2"`
	PlayerNames prompt.Names `json:"playerNames"`
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		srv.connect(s)
		return nil
	})
	io.OnEvent("/", "create_room", srv.createRoom)
	io.OnEvent("/", "join_room", srv.joinRoom)
	io.OnEvent("/", "ready", srv.ready)
	io.OnEvent("/", "select_team", srv.selectTeam)
	io.OnEvent("/", "select_player", srv.selectPlayer)
	io.OnEvent("/", "skip_turn", srv.skipTurn)
	io.OnEvent("/", "redraw_team", srv.redrawTeam)
	io.OnEvent("/", "request_battle", srv.requestBattle)
	io.OnEvent("/", "start_battle", srv.startBattle)

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", srv.disconnect)

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	// Mount to router
	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) connect(s socketio.Conn) {
	s.SetContext(&ConnCtx{})
	srv.mu.Lock()
	srv.conns[s.ID()] = s
	srv.mu.Unlock()
	log.Info().Str("sid", s.ID()).Msg("socket connected")
}

func (srv *Server) disconnect(s socketio.Conn, reason string) {
	srv.mu.Lock()
	delete(srv.conns, s.ID())
	srv.mu.Unlock()
	srv.games.HandleDisconnect(s.ID())
	ev := log.Info().Str("sid", s.ID()).Str("reason", reason)
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Room != "" {
		ev = ev.Str("room", ctx.Room).Stringer("seat", ctx.Seat)
	}
	ev.Msg("socket disconnected")
}

func (srv *Server) createRoom(s socketio.Conn, p createRoomPayload) map[string]any {
	v, err := srv.games.Create(s.ID(), p.PlayerName)
	if err != nil {
		return srv.err(s, "create_room", err)
	}
	remember(s, v.RoomID, game.SeatOne)
	return map[string]any{"ok": true, "room_id": v.RoomID}
}

func (srv *Server) joinRoom(s socketio.Conn, p joinRoomPayload) map[string]any {
	seat, err := srv.games.Join(p.RoomID, s.ID(), p.PlayerName)
	if err != nil {
		return srv.err(s, "join_room", err)
	}
	remember(s, p.RoomID, seat)
	return map[string]any{"ok": true, "player_num": seat}
}

func (srv *Server) ready(s socketio.Conn, p seatPayload) map[string]any {
	return srv.result(s, "ready", srv.games.MarkReady(p.RoomID, s.ID(), p.PlayerNum))
}

func (srv *Server) selectTeam(s socketio.Conn, p selectTeamPayload) map[string]any {
	return srv.result(s, "select_team", srv.games.SelectTeam(p.RoomID, s.ID(), p.PlayerNum, p.TeamCode))
}

func (srv *Server) selectPlayer(s socketio.Conn, p selectPlayerPayload) map[string]any {
	return srv.result(s, "select_player", srv.games.SelectPlayer(p.RoomID, s.ID(), p.PlayerNum, p.PlayerData, p.Position))
}

func (srv *Server) skipTurn(s socketio.Conn, p seatPayload) map[string]any {
	return srv.result(s, "skip_turn", srv.games.SkipTurn(p.RoomID, s.ID(), p.PlayerNum))
}

func (srv *Server) redrawTeam(s socketio.Conn, p seatPayload) map[string]any {
	return srv.result(s, "redraw_team", srv.games.RedrawTeam(p.RoomID, s.ID(), p.PlayerNum))
}

func (srv *Server) requestBattle(s socketio.Conn, p roomPayload) map[string]any {
	return srv.result(s, "request_battle", srv.games.RequestBattle(p.RoomID, s.ID()))
}

// startBattle returns at once; the series streams to the room as
// battle_stream events.
func (srv *Server) startBattle(s socketio.Conn, p startBattlePayload) map[string]any {
	req := game.BattleRequest{Team1: p.Team1, Team2: p.Team2, Names: p.PlayerNames}
	go func() {
		err := srv.games.RunBattle(p.RoomID, s.ID(), req)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrNotSeated), errors.Is(err, game.ErrWrongPhase),
			errors.Is(err, game.ErrBattleRunning), errors.Is(err, game.ErrModelUnavailable):
			srv.err(s, "start_battle", err)
		case errors.Is(err, context.Canceled):
			log.Info().Str("room", p.RoomID).Msg("battle cancelled")
		default:
			// already reported to the room as battle_stream{type: error}
		}
	}()
	return map[string]any{"ok": true}
}

func (srv *Server) result(s socketio.Conn, event string, err error) map[string]any {
	if err != nil {
		return srv.err(s, event, err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) err(s socketio.Conn, event string, err error) map[string]any {
	msg := game.Message(err)
	log.Warn().Str("sid", s.ID()).Str("event", event).Err(err).Msg("rejected")
	s.Emit(game.EventError, map[string]any{"message": msg})
	return map[string]any{"error": msg}
}

func remember(s socketio.Conn, room string, seat game.Seat) {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		ctx.Room = room
		ctx.Seat = seat
		return
	}
	s.SetContext(&ConnCtx{Room: room, Seat: seat})
}
