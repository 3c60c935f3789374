// Package httpapi serves the JSON and server-sent-event endpoints used by the
// single-player page and the catalog editor.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/franklwy/NBA-Legend-Simulator/internal/battle"
	"github.com/franklwy/NBA-Legend-Simulator/internal/catalog"
	"github.com/franklwy/NBA-Legend-Simulator/internal/game"
	"github.com/franklwy/NBA-Legend-Simulator/internal/nba"
	"github.com/franklwy/NBA-Legend-Simulator/internal/prompt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Simulator interface {
	Run(ctx context.Context, req battle.Request, sink battle.Sink) (*battle.Outcome, error)
}

type Catalog interface {
	List(ctx context.Context, team string) ([]nba.Player, error)
	Create(ctx context.Context, p nba.Player) (int64, error)
	Update(ctx context.Context, id int64, patch catalog.Patch) (nba.Player, error)
	Delete(ctx context.Context, id int64) error
}

type Rooms interface {
	Get(roomID string) (game.View, error)
}

type API struct {
	sim     Simulator
	players Catalog
	rooms   Rooms
}

// New wires the handlers. Any dependency may be nil; its routes then answer 503.
func New(sim Simulator, players Catalog, rooms Rooms) *API {
	return &API{sim: sim, players: players, rooms: rooms}
}

func (a *API) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/health", a.Health)
	api.POST("/simulate-series", a.SimulateSeries)
	api.GET("/players", a.ListPlayers)
	api.POST("/players", a.CreatePlayer)
	api.PUT("/players/:id", a.UpdatePlayer)
	api.DELETE("/players/:id", a.DeletePlayer)
	api.GET("/rooms/:id", a.GetRoom)
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "NBA Legend Simulator is running"})
}

type simulateRequest struct {
	Team1       nba.Roster   `json:"team1"`
	Team2       nba.Roster   `json:"team2"`
	PlayerNames prompt.Names `json:"playerNames"`
}

// SimulateSeries streams one series as "data: {json}" frames and ends with
// "data: [DONE]".
func (a *API) SimulateSeries(c *gin.Context) {
	if a.sim == nil {
		fail(c, http.StatusServiceUnavailable, "no model configured")
		return
	}
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	events := make(chan battle.Event)
	go func() {
		defer close(events)
		_, err := a.sim.Run(ctx, battle.Request{
			Team1:      req.Team1,
			Team2:      req.Team2,
			Names:      req.PlayerNames,
			EmitPrompt: true,
		}, func(e battle.Event) error {
			select {
			case events <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			log.Debug().Err(err).Msg("simulate-series ended with error")
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		e, ok := <-events
		if !ok {
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
			return false
		}
		if err := writeFrame(w, e); err != nil {
			log.Warn().Err(err).Msg("write sse frame")
			return false
		}
		return true
	})
	// Unblock the producer if the client went away mid-stream.
	for range events {
	}
}

func writeFrame(w io.Writer, e battle.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

var requiredFields = []string{"name", "nameEn", "cost", "positions", "team", "peakSeason", "championships", "allStar", "mvp", "fmvp"}

func (a *API) ListPlayers(c *gin.Context) {
	if a.players == nil {
		fail(c, http.StatusServiceUnavailable, "catalog disabled")
		return
	}
	players, err := a.players.List(c.Request.Context(), c.Query("team"))
	if err != nil {
		log.Error().Err(err).Msg("list players")
		fail(c, http.StatusInternalServerError, "failed to list players")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "players": players})
}

func (a *API) CreatePlayer(c *gin.Context) {
	if a.players == nil {
		fail(c, http.StatusServiceUnavailable, "catalog disabled")
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			fail(c, http.StatusBadRequest, "missing required field: "+f)
			return
		}
	}
	var p nba.Player
	if err := json.Unmarshal(body, &p); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = ""

	id, err := a.players.Create(c.Request.Context(), p)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "playerId": id, "message": "Player added"})
}

func (a *API) UpdatePlayer(c *gin.Context) {
	if a.players == nil {
		fail(c, http.StatusServiceUnavailable, "catalog disabled")
		return
	}
	id, ok := playerID(c)
	if !ok {
		return
	}
	var patch catalog.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := a.players.Update(c.Request.Context(), id, patch)
	if err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Player updated", "player": p})
}

func (a *API) DeletePlayer(c *gin.Context) {
	if a.players == nil {
		fail(c, http.StatusServiceUnavailable, "catalog disabled")
		return
	}
	id, ok := playerID(c)
	if !ok {
		return
	}
	if err := a.players.Delete(c.Request.Context(), id); err != nil {
		catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Player deleted"})
}

func (a *API) GetRoom(c *gin.Context) {
	if a.rooms == nil {
		fail(c, http.StatusServiceUnavailable, "rooms disabled")
		return
	}
	v, err := a.rooms.Get(c.Param("id"))
	if errors.Is(err, game.ErrRoomNotFound) {
		fail(c, http.StatusNotFound, game.Message(err))
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room_state": v})
}

func playerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid player id")
		return 0, false
	}
	return id, true
}

func catalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalid):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("catalog")
		fail(c, http.StatusInternalServerError, "catalog error")
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}
