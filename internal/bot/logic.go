package bot

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"ctchen222/mini-games/internal/game"
)

// Difficulty selects the bot's tie-break policy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var (
	center  = 4
	corners = []int{0, 2, 6, 8}
	sides   = []int{1, 3, 5, 7}
)

// ParseDifficulty accepts easy, medium or hard in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Selector picks moves for the computer side.
type Selector struct {
	difficulty Difficulty
	rng        *rand.Rand
}

// NewSelector creates a Selector. A nil rng uses the shared math/rand/v2 source.
// An unknown difficulty falls back to hard.
func NewSelector(difficulty Difficulty, rng *rand.Rand) *Selector {
	switch difficulty {
	case Easy, Medium, Hard:
	default:
		difficulty = Hard
	}
	return &Selector{difficulty: difficulty, rng: rng}
}

// Difficulty returns the policy the selector plays with.
func (s *Selector) Difficulty() Difficulty {
	return s.difficulty
}

// ChooseMove returns the cell the bot plays as side on board.
func (s *Selector) ChooseMove(board game.Board, side game.PlayerMark) (int, error) {
	if !side.IsSide() {
		return -1, fmt.Errorf("%w: unknown side %q", game.ErrInvalidMove, side)
	}
	if board.IsFull() {
		return -1, game.ErrNoMovesAvailable
	}

	if s.difficulty == Easy {
		return s.randomCell(board.EmptyCells()), nil
	}

	// 1. Win: take a triple we already hold two of
	if cell, ok := findWinningMove(board, side); ok {
		return cell, nil
	}

	// 2. Block: deny the opponent's two-in-a-row
	if cell, ok := findWinningMove(board, side.Opponent()); ok {
		return cell, nil
	}

	if s.difficulty == Medium {
		return s.randomCell(board.EmptyCells()), nil
	}

	// 3. Center, then corners, then sides
	if board[center] == game.Empty {
		return center, nil
	}
	if free := freeOf(board, corners); len(free) > 0 {
		return s.randomCell(free), nil
	}
	return s.randomCell(freeOf(board, sides)), nil
}

func (s *Selector) randomCell(cells []int) int {
	if s.rng == nil {
		return cells[rand.IntN(len(cells))]
	}
	return cells[s.rng.IntN(len(cells))]
}

func freeOf(board game.Board, cells []int) []int {
	free := make([]int, 0, len(cells))
	for _, c := range cells {
		if board[c] == game.Empty {
			free = append(free, c)
		}
	}
	return free
}

// findWinningMove looks for a triple holding two of mark and one empty cell.
// Triples are scanned in game.Triples order so the answer is stable.
func findWinningMove(board game.Board, mark game.PlayerMark) (int, bool) {
	for _, t := range game.Triples {
		owned, empty := 0, -1
		for _, c := range t {
			switch board[c] {
			case mark:
				owned++
			case game.Empty:
				empty = c
			}
		}
		if owned == 2 && empty != -1 {
			return empty, true
		}
	}
	return -1, false
}
