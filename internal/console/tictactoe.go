package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"ctchen222/mini-games/internal/game"
)

// MoveChooser picks the computer's cell.
type MoveChooser interface {
	ChooseMove(board game.Board, side game.PlayerMark) (int, error)
}

// TicTacToe plays one console game between a human and the bot.
type TicTacToe struct {
	prompt *Prompter
	out    io.Writer
	bot    MoveChooser
	human  game.PlayerMark
	log    *slog.Logger
}

func NewTicTacToe(in io.Reader, out io.Writer, bot MoveChooser, human game.PlayerMark, log *slog.Logger) *TicTacToe {
	if !human.IsSide() {
		human = game.PlayerX
	}
	return &TicTacToe{
		prompt: NewPrompter(in, out),
		out:    out,
		bot:    bot,
		human:  human,
		log:    log.With("component", "console.tictactoe"),
	}
}

// Run plays until the game ends or the user quits. A quit returns InProgress.
func (t *TicTacToe) Run(ctx context.Context) (game.GameResult, error) {
	g := game.NewGame(game.PlayerX)
	fmt.Fprintf(t.out, "You play %s. X moves first.\n", t.human)

	for !g.Result.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return g.Result, err
		}

		if g.CurrentTurn == t.human {
			RenderBoard(t.out, g.Board)
			if err := t.humanMove(ctx, g); err != nil {
				if errors.Is(err, ErrQuit) {
					fmt.Fprintln(t.out, "Bye!")
					return game.InProgress, nil
				}
				return g.Result, err
			}
			continue
		}

		cell, err := t.bot.ChooseMove(g.Board, g.CurrentTurn)
		if err != nil {
			return g.Result, fmt.Errorf("bot failed to choose a move: %w", err)
		}
		if err := g.Move(cell); err != nil {
			return g.Result, fmt.Errorf("bot played an invalid move: %w", err)
		}
		t.log.Debug("bot moved", "cell", cell, "mark", g.Board[cell])
		fmt.Fprintf(t.out, "Computer plays %d\n", cell+1)
	}

	RenderBoard(t.out, g.Board)
	fmt.Fprintln(t.out, DescribeResult(g.Result, t.human))
	t.log.Info("game finished", "result", g.Result, "moves", g.Board.MoveCount())
	return g.Result, nil
}

// humanMove keeps asking until a legal cell is played.
func (t *TicTacToe) humanMove(ctx context.Context, g *game.Game) error {
	for {
		line, err := t.prompt.Ask(ctx, "Your move (1-9, q to quit): ")
		if err != nil {
			return err
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(t.out, "Invalid choice. Try again.")
			continue
		}

		if err := g.Move(n - 1); err != nil {
			if errors.Is(err, game.ErrInvalidMove) {
				t.log.Debug("rejected move", "input", line, "error", err)
				fmt.Fprintln(t.out, "That cell is not available. Try again.")
				continue
			}
			return err
		}
		return nil
	}
}
