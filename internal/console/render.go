package console

import (
	"fmt"
	"io"
	"strconv"

	"ctchen222/mini-games/internal/game"
)

// RenderBoard draws the board; empty cells show the 1-9 label a human types.
func RenderBoard(w io.Writer, b game.Board) {
	for r, row := range b.Rows() {
		cells := [3]string{}
		for c, mark := range row {
			if mark == game.Empty {
				cells[c] = strconv.Itoa(r*3 + c + 1)
			} else {
				cells[c] = string(mark)
			}
		}
		fmt.Fprintf(w, " %s | %s | %s\n", cells[0], cells[1], cells[2])
		if r < 2 {
			fmt.Fprintln(w, "---+---+---")
		}
	}
}

// DescribeResult phrases a finished game from the human's side.
func DescribeResult(result game.GameResult, human game.PlayerMark) string {
	switch result.Winner() {
	case human:
		return "You won!"
	case game.Empty:
		if result == game.Draw {
			return "It's a draw!"
		}
		return "Game abandoned."
	default:
		return "You lost!"
	}
}
