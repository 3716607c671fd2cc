package game

import "time"

// Field names of a stored game.
const (
	FieldBoard      = "board"
	FieldNextTurn   = "next_turn"
	FieldResult     = "result"
	FieldPlayerID   = "player_id"
	FieldPlayerMark = "player_mark"
	FieldDifficulty = "difficulty"
	FieldCreatedAt  = "created_at"
	FieldUpdatedAt  = "updated_at"
)

// StateDTO is the stored view of a game between a human and the bot.
type StateDTO struct {
	ID          string     `json:"id"`
	Board       Board      `json:"board"`
	CurrentTurn PlayerMark `json:"next"`
	Result      GameResult `json:"result"`
	PlayerID    string     `json:"player_id"`
	PlayerMark  PlayerMark `json:"player_mark"`
	Difficulty  string     `json:"difficulty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BotMark is the side the computer plays.
func (s *StateDTO) BotMark() PlayerMark {
	return s.PlayerMark.Opponent()
}

// IsBotTurn reports whether the computer should move next.
func (s *StateDTO) IsBotTurn() bool {
	return !s.Result.IsTerminal() && s.CurrentTurn == s.BotMark()
}
