package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"ctchen222/mini-games/internal/rps"
)

// RPS runs rock-paper-scissors rounds until the user quits.
type RPS struct {
	prompt *Prompter
	out    io.Writer
	rng    *rand.Rand
	log    *slog.Logger
}

func NewRPS(in io.Reader, out io.Writer, rng *rand.Rand, log *slog.Logger) *RPS {
	return &RPS{
		prompt: NewPrompter(in, out),
		out:    out,
		rng:    rng,
		log:    log.With("component", "console.rps"),
	}
}

// Run returns the final score once the user quits.
func (r *RPS) Run(ctx context.Context) (rps.Score, error) {
	var score rps.Score

	for {
		if err := ctx.Err(); err != nil {
			return score, err
		}

		line, err := r.prompt.Ask(ctx, "Type Rock/Paper/Scissors (Q to quit): ")
		if errors.Is(err, ErrQuit) {
			break
		}
		if err != nil {
			return score, err
		}

		user, err := rps.ParseChoice(line)
		if err != nil {
			fmt.Fprintln(r.out, "Invalid choice. Try again.")
			continue
		}

		computer := rps.RandomChoice(r.rng)
		fmt.Fprintf(r.out, "Computer picked: %s\n", computer)

		outcome := rps.DetermineWinner(user, computer)
		score.Record(outcome)
		switch outcome {
		case rps.Win:
			fmt.Fprintln(r.out, "You won!")
		case rps.Lose:
			fmt.Fprintln(r.out, "You lost!")
		default:
			fmt.Fprintln(r.out, "It's a tie!")
		}
		fmt.Fprintf(r.out, "Score: You %d - Computer %d\n\n", score.User, score.Computer)
	}

	fmt.Fprintln(r.out, "Final score:")
	fmt.Fprintf(r.out, "You won %d times.\n", score.User)
	fmt.Fprintf(r.out, "Computer won %d times.\n", score.Computer)
	r.log.Info("session finished", "rounds", score.Rounds(), "user", score.User, "computer", score.Computer)
	return score, nil
}
