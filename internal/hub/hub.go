package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/repository"
	"ctchen222/mini-games/internal/events"
)

var tracer = otel.Tracer("hub")

// Hub consumes the global event channel. Every server instance runs one.
type Hub struct {
	rdb     *redis.Client
	results repository.ResultRepository
}

// NewHub creates a new hub.
func NewHub(rdb *redis.Client, results repository.ResultRepository) *Hub {
	return &Hub{
		rdb:     rdb,
		results: results,
	}
}

// Run subscribes to the events channel and dispatches until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Event subscriber started", "channel", events.EventsChannel)
	pubsub := h.rdb.Subscribe(ctx, events.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event subscriber stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := h.HandleEvent(ctx, []byte(msg.Payload)); err != nil {
				slog.ErrorContext(ctx, "Could not handle event", "error", err)
			}
		}
	}
}

// HandleEvent decodes one envelope and runs its handler. Unknown event types
// are ignored.
func (h *Hub) HandleEvent(ctx context.Context, raw []byte) error {
	ctx, span := tracer.Start(ctx, "hub.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", events.EventsChannel),
	))
	defer span.End()

	var event events.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not unmarshal global event")
		return fmt.Errorf("could not unmarshal global event: %w", err)
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case events.TypeGameFinished:
		var payload events.GameFinishedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal game_finished payload")
			return fmt.Errorf("could not unmarshal game_finished payload: %w", err)
		}
		return h.handleGameFinished(ctx, &payload)

	default:
		slog.DebugContext(ctx, "Ignoring event", "event.type", event.Type)
		return nil
	}
}

func (h *Hub) handleGameFinished(ctx context.Context, payload *events.GameFinishedPayload) error {
	ctx, span := tracer.Start(ctx, "hub.handleGameFinished", trace.WithAttributes(
		attribute.String("game.id", payload.GameID),
		attribute.String("player.id", payload.PlayerID),
		attribute.String("game.result", string(payload.Result)),
	))
	defer span.End()

	slog.InfoContext(ctx, "Received game_finished event", "game.id", payload.GameID, "game.result", payload.Result)

	record := &models.GameRecord{
		GameID:     payload.GameID,
		PlayerID:   payload.PlayerID,
		PlayerMark: string(payload.PlayerMark),
		Difficulty: payload.Difficulty,
		Result:     string(payload.Result),
		Moves:      payload.Moves,
		FinishedAt: payload.FinishedAt,
	}
	if err := h.results.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not record result")
		return err
	}
	return nil
}
