package events

import (
	"encoding/json"
	"fmt"
	"time"

	"ctchen222/mini-games/internal/game"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeGameFinished = "game_finished"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	GameID     string          `json:"game_id"`
	PlayerID   string          `json:"player_id"`
	PlayerMark game.PlayerMark `json:"player_mark"`
	Difficulty string          `json:"difficulty"`
	Result     game.GameResult `json:"result"`
	Moves      int             `json:"moves"`
	FinishedAt time.Time       `json:"finished_at"`
}

// NewEvent wraps payload in an envelope of the given type.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{Type: eventType, Payload: data}, nil
}

// GameFinishedFromState builds the payload for a game that just ended.
func GameFinishedFromState(state *game.StateDTO) GameFinishedPayload {
	return GameFinishedPayload{
		GameID:     state.ID,
		PlayerID:   state.PlayerID,
		PlayerMark: state.PlayerMark,
		Difficulty: state.Difficulty,
		Result:     state.Result,
		Moves:      state.Board.MoveCount(),
		FinishedAt: state.UpdatedAt,
	}
}
