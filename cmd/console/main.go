package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"ctchen222/mini-games/internal/bot"
	"ctchen222/mini-games/internal/config"
	"ctchen222/mini-games/internal/console"
	"ctchen222/mini-games/internal/game"
	"ctchen222/mini-games/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	gameName := flag.String("game", "tictactoe", "game to play: tictactoe or rps")
	difficulty := flag.String("difficulty", "", "bot difficulty: easy, medium or hard (default from config)")
	mark := flag.String("mark", "", "your mark in tic-tac-toe: X or O (default from config)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	// Diagnostics go to stderr; stdout belongs to the game.
	log := logger.New(os.Stderr, cfg.LogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *gameName, *difficulty, *mark); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, gameName, difficulty, mark string) error {
	rng := newRand(cfg.Bot.Seed)

	switch gameName {
	case "tictactoe":
		if difficulty == "" {
			difficulty = cfg.Bot.Difficulty
		}
		d, err := bot.ParseDifficulty(difficulty)
		if err != nil {
			return err
		}
		if mark == "" {
			mark = cfg.Console.HumanMark
		}
		human := game.PlayerMark(mark)
		if !human.IsSide() {
			return fmt.Errorf("invalid mark %q: want X or O", mark)
		}

		result, err := console.NewTicTacToe(os.Stdin, os.Stdout, bot.NewSelector(d, rng), human, log).Run(ctx)
		log.Debug("Tic-tac-toe finished", "result", result, "difficulty", d)
		return err

	case "rps":
		score, err := console.NewRPS(os.Stdin, os.Stdout, rng, log).Run(ctx)
		log.Debug("Rock-paper-scissors finished", "rounds", score.Rounds())
		return err

	default:
		return fmt.Errorf("unknown game %q: want tictactoe or rps", gameName)
	}
}

// newRand returns a generator fixed by seed, or a randomly seeded one for 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
