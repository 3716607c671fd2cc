package game

import "fmt"

// Board is a value-typed 3x3 grid stored in row-major order.
type Board [BoardSize]PlayerMark

// ApplyMove returns a copy of b with cell set to side. b itself is left untouched.
func (b Board) ApplyMove(cell int, side PlayerMark) (Board, error) {
	if !side.IsSide() {
		return b, fmt.Errorf("%w: unknown side %q", ErrInvalidMove, side)
	}
	if cell < 0 || cell >= BoardSize {
		return b, fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, cell)
	}
	if b[cell] != Empty {
		return b, fmt.Errorf("%w: cell %d is occupied", ErrInvalidMove, cell)
	}

	b[cell] = side
	return b, nil
}

// Evaluate scans the winning triples and reports the state of the board.
func (b Board) Evaluate() GameResult {
	for _, t := range Triples {
		a := b[t[0]]
		if a != Empty && a == b[t[1]] && a == b[t[2]] {
			return ResultFor(a)
		}
	}

	if b.IsFull() {
		return Draw
	}
	return InProgress
}

// EmptyCells lists the indexes of unplayed cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, c := range b {
		if c == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether every cell has been played.
func (b Board) IsFull() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// MoveCount is the number of played cells.
func (b Board) MoveCount() int {
	n := 0
	for _, c := range b {
		if c != Empty {
			n++
		}
	}
	return n
}

// Rows converts the board to a 3x3 grid for renderers.
func (b Board) Rows() [3][3]PlayerMark {
	var rows [3][3]PlayerMark
	for i, c := range b {
		rows[i/3][i%3] = c
	}
	return rows
}
