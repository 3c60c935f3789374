package game

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrOutOfTurn    = errors.New("not your turn")
	ErrTeamTaken    = errors.New("team already taken")

	// ErrNotSeated is an OutOfTurn for a connection acting for a seat it
	// does not hold.
	ErrNotSeated = fmt.Errorf("%w: connection does not hold that seat", ErrOutOfTurn)
)

// Draft rule violations. State is never changed when one of these is returned.
var (
	ErrInvalidSeat     = errors.New("invalid seat")
	ErrSeatEmpty       = errors.New("seat is empty")
	ErrWrongPhase      = errors.New("invalid phase for action")
	ErrUnknownTeam     = errors.New("unknown team code")
	ErrInvalidPosition = errors.New("invalid position")
	ErrSlotTaken       = errors.New("position already filled")
	ErrPlayerTaken     = errors.New("player already drafted")
	ErrOverBudget      = errors.New("not enough budget")
	ErrInvalidPlayer   = errors.New("invalid player")
	ErrNotDrawnTeam    = errors.New("player is not on the drawn team")
	ErrBattleRunning   = errors.New("battle already in progress")
)

// ErrModelUnavailable means the server was started without a model provider.
var ErrModelUnavailable = errors.New("no model configured")

// Message turns a game error into the text shown to the player.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room does not exist"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrNotSeated):
		return "You are not seated there"
	case errors.Is(err, ErrOutOfTurn):
		return "It is not your turn"
	case errors.Is(err, ErrTeamTaken):
		return "That team has already been drafted"
	case errors.Is(err, ErrSeatEmpty):
		return "That seat is empty"
	case errors.Is(err, ErrWrongPhase):
		return "That action is not allowed right now"
	case errors.Is(err, ErrUnknownTeam):
		return "Unknown team"
	case errors.Is(err, ErrInvalidPosition):
		return "Invalid position"
	case errors.Is(err, ErrSlotTaken):
		return "That position is already filled"
	case errors.Is(err, ErrPlayerTaken):
		return "That player has already been drafted"
	case errors.Is(err, ErrOverBudget):
		return "Not enough budget for that player"
	case errors.Is(err, ErrNotDrawnTeam):
		return "That player is not on the drawn team"
	case errors.Is(err, ErrBattleRunning):
		return "A battle is already running"
	case errors.Is(err, ErrModelUnavailable):
		return "The battle simulator is not available, no model is configured"
	}
	return err.Error()
}
