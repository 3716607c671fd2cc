package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

// GameResult is the outcome of a board, derived from its cells only.
type GameResult string

const (
	// Player marks
	Empty   PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Game results
	InProgress GameResult = "in_progress"
	WinX       GameResult = "win_x"
	WinO       GameResult = "win_o"
	Draw       GameResult = "draw"

	// BoardSize is the number of cells, indexed 0-8 in row-major order.
	BoardSize = 9
)

var (
	ErrInvalidMove      = errors.New("invalid move")
	ErrNoMovesAvailable = errors.New("no moves available")
	ErrGameFinished     = errors.New("game already finished")
	ErrNotYourTurn      = errors.New("not your turn")

	// Triples are the cell sets that win: 3 rows, 3 columns, 2 diagonals.
	Triples = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Opponent returns the other side. Empty has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

// IsSide reports whether m is X or O.
func (m PlayerMark) IsSide() bool {
	return m == PlayerX || m == PlayerO
}

// IsTerminal reports whether no further move can be played.
func (r GameResult) IsTerminal() bool {
	return r == WinX || r == WinO || r == Draw
}

// Winner returns the winning mark, or Empty for a draw or a running game.
func (r GameResult) Winner() PlayerMark {
	switch r {
	case WinX:
		return PlayerX
	case WinO:
		return PlayerO
	default:
		return Empty
	}
}

// ResultFor returns the win result for the given side.
func ResultFor(m PlayerMark) GameResult {
	if m == PlayerX {
		return WinX
	}
	return WinO
}

// Game tracks a board together with the side to move.
type Game struct {
	Board       Board
	CurrentTurn PlayerMark
	Result      GameResult
}

// NewGame returns an empty game where first moves first.
func NewGame(first PlayerMark) *Game {
	if !first.IsSide() {
		first = PlayerX
	}
	return &Game{
		Board:       Board{},
		CurrentTurn: first,
		Result:      InProgress,
	}
}

// Move plays cell for the side to move.
func (g *Game) Move(cell int) error {
	if g.Result.IsTerminal() {
		return ErrGameFinished
	}

	next, err := g.Board.ApplyMove(cell, g.CurrentTurn)
	if err != nil {
		return err
	}

	g.Board = next
	g.Result = next.Evaluate()
	if !g.Result.IsTerminal() {
		g.CurrentTurn = g.CurrentTurn.Opponent()
	}
	return nil
}

// MoveAs plays cell for mark, failing when it is the other side's turn.
func (g *Game) MoveAs(mark PlayerMark, cell int) error {
	if g.Result.IsTerminal() {
		return ErrGameFinished
	}
	if mark != g.CurrentTurn {
		return fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.CurrentTurn)
	}
	return g.Move(cell)
}

// RandomlyChooseFirstPlayer picks X or O with equal probability.
func RandomlyChooseFirstPlayer() PlayerMark {
	if rand.IntN(2) == 0 {
		return PlayerX
	}
	return PlayerO
}
