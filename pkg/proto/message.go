package proto

import "ctchen222/mini-games/internal/game"

// Message types
const (
	TypeMove       = "move"
	TypeRematch    = "rematch"
	TypeAssignment = "assignment"
	TypeUpdate     = "update"
	TypeError      = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move rematch"`
	Cell *int   `json:"cell,omitempty" validate:"required_if=Type move,omitempty,min=0,max=8"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string              `json:"type" validate:"required"`
	GameID string              `json:"game_id,omitempty"`
	Reason string              `json:"reason,omitempty"`
	Board  [][]game.PlayerMark `json:"board,omitempty"`
	Next   game.PlayerMark     `json:"next,omitempty"`
	Result game.GameResult     `json:"result,omitempty"`
	Winner game.PlayerMark     `json:"winner,omitempty"`
}

// PlayerAssignmentMessage informs a player of their assigned mark.
type PlayerAssignmentMessage struct {
	Type       string          `json:"type"`
	GameID     string          `json:"game_id"`
	PlayerID   string          `json:"playerId,omitempty"`
	Mark       game.PlayerMark `json:"mark"`
	Difficulty string          `json:"difficulty"`
}

// NewUpdateMessage reports the full state of a game as 3x3 rows.
func NewUpdateMessage(state *game.StateDTO) *ServerToClientMessage {
	rows := state.Board.Rows()
	board := make([][]game.PlayerMark, len(rows))
	for i := range rows {
		board[i] = rows[i][:]
	}

	return &ServerToClientMessage{
		Type:   TypeUpdate,
		GameID: state.ID,
		Board:  board,
		Next:   state.CurrentTurn,
		Result: state.Result,
		Winner: state.Result.Winner(),
	}
}

// NewErrorMessage reports a rejected client message.
func NewErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}

// NewAssignmentMessage tells the player which side they play.
func NewAssignmentMessage(state *game.StateDTO) *PlayerAssignmentMessage {
	return &PlayerAssignmentMessage{
		Type:       TypeAssignment,
		GameID:     state.ID,
		PlayerID:   state.PlayerID,
		Mark:       state.PlayerMark,
		Difficulty: state.Difficulty,
	}
}
