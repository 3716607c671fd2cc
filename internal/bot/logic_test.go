package bot

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"ctchen222/mini-games/internal/game"
)

const (
	x = game.PlayerX
	o = game.PlayerO
	e = game.Empty
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestFindWinningMove(t *testing.T) {
	tests := []struct {
		name      string
		board     game.Board
		mark      game.PlayerMark
		wantCell  int
		wantFound bool
	}{
		{
			name:     "No winning move - empty board",
			board:    game.Board{},
			mark:     x,
			wantCell: -1, wantFound: false,
		},
		{
			name: "X can win - first row",
			board: game.Board{
				x, x, e,
				o, o, e,
				e, e, e,
			},
			mark:     x,
			wantCell: 2, wantFound: true,
		},
		{
			name: "O can win - second column",
			board: game.Board{
				x, o, e,
				x, o, e,
				e, e, e,
			},
			mark:     o,
			wantCell: 7, wantFound: true,
		},
		{
			name: "X can win - gap in the middle of the diagonal",
			board: game.Board{
				x, e, e,
				e, e, e,
				e, o, x,
			},
			mark:     x,
			wantCell: 4, wantFound: true,
		},
		{
			name: "O can win - anti-diagonal",
			board: game.Board{
				e, e, o,
				e, o, e,
				e, e, e,
			},
			mark:     o,
			wantCell: 6, wantFound: true,
		},
		{
			name: "Blocked triple is not a win",
			board: game.Board{
				x, x, o,
				e, e, e,
				e, e, e,
			},
			mark:     x,
			wantCell: -1, wantFound: false,
		},
		{
			name: "Full board, no win possible",
			board: game.Board{
				x, o, x,
				o, x, o,
				o, x, o,
			},
			mark:     x,
			wantCell: -1, wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, found := findWinningMove(tt.board, tt.mark)
			if found != tt.wantFound || cell != tt.wantCell {
				t.Errorf("findWinningMove() got (%d, %v), want (%d, %v)", cell, found, tt.wantCell, tt.wantFound)
			}
		})
	}
}

func TestChooseMove_BlocksOpponent(t *testing.T) {
	board := game.Board{
		x, x, e,
		e, e, e,
		e, e, e,
	}

	for _, d := range []Difficulty{Medium, Hard} {
		cell, err := NewSelector(d, seeded()).ChooseMove(board, o)
		if err != nil {
			t.Fatalf("%s: ChooseMove failed: %v", d, err)
		}
		if cell != 2 {
			t.Errorf("%s: ChooseMove() got %d, want 2", d, cell)
		}
	}
}

func TestChooseMove_PrefersWinOverBlock(t *testing.T) {
	board := game.Board{
		o, o, e,
		x, x, e,
		e, e, e,
	}

	for _, d := range []Difficulty{Medium, Hard} {
		cell, err := NewSelector(d, seeded()).ChooseMove(board, x)
		if err != nil {
			t.Fatalf("%s: ChooseMove failed: %v", d, err)
		}
		if cell != 5 {
			t.Errorf("%s: ChooseMove() got %d, want 5", d, cell)
		}
	}
}

func TestChooseMove_Hard(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		side  game.PlayerMark
		want  []int
	}{
		{
			name:  "Take center",
			board: game.Board{o},
			side:  x,
			want:  []int{4},
		},
		{
			name:  "Take corner",
			board: game.Board{e, e, e, e, o},
			side:  x,
			want:  corners,
		},
		{
			name: "Win beats positional play",
			board: game.Board{
				o, e, x,
				e, x, e,
				o, e, x,
			},
			side: o,
			// O completes column 0
			want: []int{3},
		},
		{
			name: "Blocks the first threat found",
			board: game.Board{
				x, e, o,
				e, o, e,
				x, e, x,
			},
			side: o,
			// X threatens 7 (row 6,7,8) and 3 (column 0,3,6); rows are scanned first
			want: []int{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				cell, err := NewSelector(Hard, nil).ChooseMove(tt.board, tt.side)
				if err != nil {
					t.Fatalf("ChooseMove failed: %v", err)
				}
				if !slices.Contains(tt.want, cell) {
					t.Fatalf("ChooseMove() got %d, want one of %v", cell, tt.want)
				}
			}
		})
	}
}

func TestChooseMove_HardFallsBackToSides(t *testing.T) {
	board := game.Board{
		o, x, o,
		e, x, e,
		x, o, x,
	}
	// no open two-in-a-row for either side and every corner is taken
	cell, err := NewSelector(Hard, seeded()).ChooseMove(board, o)
	if err != nil {
		t.Fatalf("ChooseMove failed: %v", err)
	}
	if !slices.Contains(sides, cell) {
		t.Errorf("ChooseMove() got %d, want a side", cell)
	}
}

func TestChooseMove_EasyPicksEmptyCells(t *testing.T) {
	board := game.Board{
		x, o, x,
		o, x, o,
		e, e, o,
	}
	s := NewSelector(Easy, seeded())
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		cell, err := s.ChooseMove(board, x)
		if err != nil {
			t.Fatalf("ChooseMove failed: %v", err)
		}
		if board[cell] != e {
			t.Fatalf("ChooseMove() returned occupied cell %d", cell)
		}
		seen[cell] = true
	}
	if len(seen) != 2 {
		t.Errorf("easy selector only picked %v over 50 runs", seen)
	}
}

func TestChooseMove_SeededIsReproducible(t *testing.T) {
	board := game.Board{e, e, e, e, x}
	a := NewSelector(Medium, rand.New(rand.NewPCG(1, 2)))
	b := NewSelector(Medium, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 10; i++ {
		ca, _ := a.ChooseMove(board, o)
		cb, _ := b.ChooseMove(board, o)
		if ca != cb {
			t.Fatalf("run %d: seeded selectors diverged (%d vs %d)", i, ca, cb)
		}
	}
}

func TestChooseMove_Errors(t *testing.T) {
	full := game.Board{
		x, o, x,
		o, x, o,
		o, x, o,
	}
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if _, err := NewSelector(d, nil).ChooseMove(full, x); !errors.Is(err, game.ErrNoMovesAvailable) {
			t.Errorf("%s on full board: error = %v, want %v", d, err, game.ErrNoMovesAvailable)
		}
	}

	if _, err := NewSelector(Hard, nil).ChooseMove(game.Board{}, game.Empty); !errors.Is(err, game.ErrInvalidMove) {
		t.Errorf("empty side: error = %v, want %v", err, game.ErrInvalidMove)
	}
}

func TestChooseMove_AlwaysLegal(t *testing.T) {
	selectors := []*Selector{
		NewSelector(Easy, seeded()),
		NewSelector(Medium, seeded()),
		NewSelector(Hard, seeded()),
	}

	var walk func(b game.Board, side game.PlayerMark)
	walk = func(b game.Board, side game.PlayerMark) {
		if b.Evaluate().IsTerminal() {
			return
		}
		for _, s := range selectors {
			cell, err := s.ChooseMove(b, side)
			if err != nil {
				t.Fatalf("%s on %v: %v", s.Difficulty(), b, err)
			}
			if cell < 0 || cell >= game.BoardSize || b[cell] != game.Empty {
				t.Fatalf("%s on %v picked illegal cell %d", s.Difficulty(), b, cell)
			}
		}
		for _, c := range b.EmptyCells() {
			next, _ := b.ApplyMove(c, side)
			walk(next, side.Opponent())
		}
	}
	walk(game.Board{}, x)
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{in: "easy", want: Easy},
		{in: " Medium ", want: Medium},
		{in: "HARD", want: Hard},
		{in: "impossible", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDifficulty(%q) = (%q, %v), want (%q, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
