package models

import "time"

// StartGameRequest opens a game against the bot. An empty mark lets the
// server pick one at random.
type StartGameRequest struct {
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Mark       string `json:"mark" binding:"omitempty,oneof=X O"`
}

// MoveRequest plays one cell, 0-8 in row-major order.
type MoveRequest struct {
	Cell *int `json:"cell" binding:"required,min=0,max=8"`
}

// GameRecord is one finished game.
type GameRecord struct {
	ID         int64     `db:"id" json:"-"`
	GameID     string    `db:"game_id" json:"game_id"`
	PlayerID   string    `db:"player_id" json:"player_id"`
	PlayerMark string    `db:"player_mark" json:"player_mark"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	Result     string    `db:"result" json:"result"`
	Moves      int       `db:"moves" json:"moves"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// Stats summarizes a player's finished games from their own point of view.
type Stats struct {
	PlayerID string       `json:"player_id"`
	Wins     int          `json:"wins"`
	Losses   int          `json:"losses"`
	Draws    int          `json:"draws"`
	Recent   []GameRecord `json:"recent"`
}
