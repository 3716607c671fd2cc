package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/events"
	"ctchen222/mini-games/internal/game"
	"ctchen222/mini-games/internal/repository"
)

var (
	tracer = otel.Tracer("service.game")
	meter  = otel.Meter("service.game")
)

var ErrNotYourGame = errors.New("game belongs to another player")

//go:generate mockgen -source=game_service.go -destination=mocks/mock_game_service.go -package=mocks

// MoveCalculator picks the bot's cell.
type MoveCalculator interface {
	ChooseMove(board game.Board, side game.PlayerMark, difficulty string) (int, error)
}

// GameService runs games between a player and the bot.
type GameService interface {
	Start(ctx context.Context, playerID string, req *models.StartGameRequest) (*game.StateDTO, error)
	Move(ctx context.Context, playerID, gameID string, cell int) (*game.StateDTO, error)
	Get(ctx context.Context, playerID, gameID string) (*game.StateDTO, error)
	Abandon(ctx context.Context, playerID, gameID string) error
}

type gameService struct {
	gameRepo          repository.GameRepository
	calculator        MoveCalculator
	publisher         events.Publisher
	defaultDifficulty string
	finished          metric.Int64Counter

	newID      func() string
	chooseMark func() game.PlayerMark
}

// NewGameService creates a GameService. Games started without a difficulty
// use defaultDifficulty.
func NewGameService(gameRepo repository.GameRepository, calculator MoveCalculator, publisher events.Publisher, defaultDifficulty string) (GameService, error) {
	finished, err := meter.Int64Counter("games.finished",
		metric.WithDescription("Number of games that reached a terminal result"),
		metric.WithUnit("{game}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create games.finished counter: %w", err)
	}

	return &gameService{
		gameRepo:          gameRepo,
		calculator:        calculator,
		publisher:         publisher,
		defaultDifficulty: defaultDifficulty,
		finished:          finished,
		newID:             func() string { return uuid.New().String() },
		chooseMark:        game.RandomlyChooseFirstPlayer,
	}, nil
}

// Start creates a game. X always opens, so the bot moves first when the
// player is given O.
func (s *gameService) Start(ctx context.Context, playerID string, req *models.StartGameRequest) (*game.StateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameService.Start", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = s.defaultDifficulty
	}
	mark := game.PlayerMark(req.Mark)
	if !mark.IsSide() {
		mark = s.chooseMark()
	}

	state := &game.StateDTO{
		ID:          s.newID(),
		CurrentTurn: game.PlayerX,
		Result:      game.InProgress,
		PlayerID:    playerID,
		PlayerMark:  mark,
		Difficulty:  difficulty,
	}
	span.SetAttributes(
		attribute.String("game.id", state.ID),
		attribute.String("player.mark", string(mark)),
		attribute.String("bot.difficulty", difficulty),
	)

	if err := s.gameRepo.Create(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return nil, err
	}
	slog.InfoContext(ctx, "Game started", "game.id", state.ID, "player.id", playerID, "player.mark", mark, "bot.difficulty", difficulty)

	if state.IsBotTurn() {
		opened, err := s.botMove(ctx, state)
		if err != nil {
			// the next Get or Move replays the opening
			slog.WarnContext(ctx, "Bot could not open the game", "game.id", state.ID, "error", err)
			span.RecordError(err)
			return state, nil
		}
		return opened, nil
	}
	return state, nil
}

// Move plays the player's cell, then the bot's reply when the game goes on.
func (s *gameService) Move(ctx context.Context, playerID, gameID string, cell int) (*game.StateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameService.Move", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("game.id", gameID),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	state, err := s.Get(ctx, playerID, gameID)
	if err != nil {
		return nil, err
	}

	state, err = s.gameRepo.ApplyMove(ctx, gameID, state.PlayerMark, cell)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply player move")
		return nil, err
	}

	if state.Result.IsTerminal() {
		s.finish(ctx, state)
		return state, nil
	}
	if state.IsBotTurn() {
		return s.botMove(ctx, state)
	}
	return state, nil
}

// Get returns a game owned by playerID. A bot move left pending by an
// earlier failure is played first.
func (s *gameService) Get(ctx context.Context, playerID, gameID string) (*game.StateDTO, error) {
	state, err := s.find(ctx, playerID, gameID)
	if err != nil {
		return nil, err
	}
	if !state.IsBotTurn() {
		return state, nil
	}

	slog.InfoContext(ctx, "Replaying pending bot move", "game.id", gameID)
	next, err := s.botMove(ctx, state)
	if errors.Is(err, game.ErrNotYourTurn) {
		// another request played it first
		return s.find(ctx, playerID, gameID)
	}
	return next, err
}

// Abandon discards a game the player no longer wants to finish.
func (s *gameService) Abandon(ctx context.Context, playerID, gameID string) error {
	if _, err := s.find(ctx, playerID, gameID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Game abandoned", "game.id", gameID, "player.id", playerID)
	return s.gameRepo.Delete(ctx, gameID)
}

func (s *gameService) find(ctx context.Context, playerID, gameID string) (*game.StateDTO, error) {
	state, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state.PlayerID != playerID {
		return nil, ErrNotYourGame
	}
	return state, nil
}

func (s *gameService) botMove(ctx context.Context, state *game.StateDTO) (*game.StateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameService.botMove", trace.WithAttributes(
		attribute.String("game.id", state.ID),
		attribute.String("bot.difficulty", state.Difficulty),
	))
	defer span.End()

	cell, err := s.calculator.ChooseMove(state.Board, state.BotMark(), state.Difficulty)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bot could not choose a move")
		return nil, fmt.Errorf("bot could not choose a move: %w", err)
	}
	span.SetAttributes(attribute.Int("move.cell", cell))

	next, err := s.gameRepo.ApplyMove(ctx, state.ID, state.BotMark(), cell)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply bot move")
		return nil, err
	}

	if next.Result.IsTerminal() {
		s.finish(ctx, next)
	}
	return next, nil
}

// finish counts and announces a game that just ended. A failed publish is
// logged and leaves the stored game untouched.
func (s *gameService) finish(ctx context.Context, state *game.StateDTO) {
	s.finished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.result", string(state.Result)),
		attribute.String("bot.difficulty", state.Difficulty),
	))

	if err := s.publisher.Publish(ctx, events.TypeGameFinished, events.GameFinishedFromState(state)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish game_finished event", "game.id", state.ID, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
		return
	}
	slog.InfoContext(ctx, "Game finished", "game.id", state.ID, "game.result", state.Result)
}
