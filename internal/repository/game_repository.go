package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/game"
)

var tracer = otel.Tracer("repository.game")

var (
	ErrGameNotFound = errors.New("game not found")
	// ErrMoveConflict means other writers kept changing the game; the move may be retried.
	ErrMoveConflict = errors.New("game was modified concurrently")
)

// maxTxRetries bounds optimistic retries when another writer touches the game.
const maxTxRetries = 3

//go:generate mockgen -source=game_repository.go -destination=mocks/mock_game_repository.go -package=mocks

// GameRepository defines the interface for game data operations.
type GameRepository interface {
	Create(ctx context.Context, state *game.StateDTO) error
	FindByID(ctx context.Context, id string) (*game.StateDTO, error)
	ApplyMove(ctx context.Context, id string, mark game.PlayerMark, cell int) (*game.StateDTO, error)
	Delete(ctx context.Context, id string) error
}

type redisGameRepository struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewGameRepository creates a new Redis-based GameRepository. Games expire
// ttl after their last write; zero keeps them forever.
func NewGameRepository(rdb *redis.Client, ttl time.Duration) GameRepository {
	return &redisGameRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

// retryOnConflict reruns attempt while its WATCH transaction is aborted,
// up to maxTxRetries times.
func retryOnConflict(attempt func() error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := attempt()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrMoveConflict, maxTxRetries)
}

func gameKey(id string) string {
	return fmt.Sprintf("game:%s", id)
}

// Create stores a new game state.
func (r *redisGameRepository) Create(ctx context.Context, state *game.StateDTO) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Create", trace.WithAttributes(
		attribute.String("game.id", state.ID),
	))
	defer span.End()

	now := r.now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	fields, err := encodeState(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode game")
		return err
	}

	key := gameKey(state.ID)
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	return nil
}

// FindByID retrieves the current game state.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.StateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, gameKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read game")
		return nil, fmt.Errorf("failed to get game state from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrGameNotFound
	}

	return decodeState(id, data)
}

// ApplyMove plays cell for mark. The read-check-write runs under WATCH so
// two moves on one game never interleave.
func (r *redisGameRepository) ApplyMove(ctx context.Context, id string, mark game.PlayerMark, cell int) (*game.StateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.ApplyMove", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.String("move.mark", string(mark)),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	key := gameKey(id)
	var updated *game.StateDTO

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return ErrGameNotFound
		}

		state, err := decodeState(id, data)
		if err != nil {
			return err
		}
		if state.Result.IsTerminal() {
			return game.ErrGameFinished
		}
		if state.CurrentTurn != mark {
			return fmt.Errorf("%w: %s to move", game.ErrNotYourTurn, state.CurrentTurn)
		}

		board, err := state.Board.ApplyMove(cell, mark)
		if err != nil {
			return err
		}

		state.Board = board
		state.Result = board.Evaluate()
		state.CurrentTurn = mark.Opponent()
		if state.Result.IsTerminal() {
			state.CurrentTurn = game.Empty
		}
		state.UpdatedAt = r.now().UTC()

		boardJSON, err := json.Marshal(state.Board)
		if err != nil {
			return fmt.Errorf("failed to marshal updated board: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				game.FieldBoard, boardJSON,
				game.FieldNextTurn, string(state.CurrentTurn),
				game.FieldResult, string(state.Result),
				game.FieldUpdatedAt, state.UpdatedAt.Format(time.RFC3339Nano),
			)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}

		updated = state
		return nil
	}

	err := retryOnConflict(func() error {
		return r.rdb.Watch(ctx, txf, key)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply move")
		return nil, err
	}

	span.SetAttributes(attribute.String("game.result", string(updated.Result)))
	return updated, nil
}

// Delete removes a game.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	n, err := r.rdb.Del(ctx, gameKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}

func encodeState(state *game.StateDTO) (map[string]interface{}, error) {
	boardJSON, err := json.Marshal(state.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return map[string]interface{}{
		game.FieldBoard:      boardJSON,
		game.FieldNextTurn:   string(state.CurrentTurn),
		game.FieldResult:     string(state.Result),
		game.FieldPlayerID:   state.PlayerID,
		game.FieldPlayerMark: string(state.PlayerMark),
		game.FieldDifficulty: state.Difficulty,
		game.FieldCreatedAt:  state.CreatedAt.Format(time.RFC3339Nano),
		game.FieldUpdatedAt:  state.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func decodeState(id string, data map[string]string) (*game.StateDTO, error) {
	var board game.Board
	if err := json.Unmarshal([]byte(data[game.FieldBoard]), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	state := &game.StateDTO{
		ID:          id,
		Board:       board,
		CurrentTurn: game.PlayerMark(data[game.FieldNextTurn]),
		Result:      game.GameResult(data[game.FieldResult]),
		PlayerID:    data[game.FieldPlayerID],
		PlayerMark:  game.PlayerMark(data[game.FieldPlayerMark]),
		Difficulty:  data[game.FieldDifficulty],
	}

	// Timestamps are informational; a malformed value is left zero.
	state.CreatedAt, _ = time.Parse(time.RFC3339Nano, data[game.FieldCreatedAt])
	state.UpdatedAt, _ = time.Parse(time.RFC3339Nano, data[game.FieldUpdatedAt])

	return state, nil
}
