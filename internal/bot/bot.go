package bot

import (
	"ctchen222/mini-games/internal/game"
)

// Calculator chooses moves for callers that pick the difficulty per call.
// It uses the shared random source and is safe for concurrent use.
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// ChooseMove parses difficulty and delegates to a Selector. Unknown
// difficulties play as hard.
func (c *Calculator) ChooseMove(board game.Board, side game.PlayerMark, difficulty string) (int, error) {
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		d = Hard
	}
	return NewSelector(d, nil).ChooseMove(board, side)
}
