package room

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/game"
	"ctchen222/mini-games/internal/validator"
	"ctchen222/mini-games/pkg/proto"
)

// HandleMessage handles a message from the player. It acts as a dispatcher.
// Rejected messages are answered with an error message; the session stays open.
func (r *Room) HandleMessage(ctx context.Context, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "room.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("game.id", r.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "player.id", r.PlayerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.sendError(ctx, "malformed message")
		return
	}

	if err := validator.Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", r.PlayerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.sendError(ctx, "invalid message: "+err.Error())
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		r.handleMove(ctx, *message.Cell)
	case proto.TypeRematch:
		r.handleRematch(ctx)
	}
}

// handleMove plays the player's cell and reports the state after the bot's reply.
func (r *Room) handleMove(ctx context.Context, cell int) {
	ctx, span := tracer.Start(ctx, "room.handleMove", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("game.id", r.ID),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	state, err := r.games.Move(ctx, r.PlayerID, r.ID, cell)
	if err != nil {
		slog.WarnContext(ctx, "invalid move from player", "player.id", r.PlayerID, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		r.sendError(ctx, err.Error())
		return
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	r.send(ctx, proto.NewUpdateMessage(state))
}

// handleRematch starts a new game once the current one is over, with the
// player on the other side.
func (r *Room) handleRematch(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "room.handleRematch", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("game.id", r.ID),
	))
	defer span.End()

	current, err := r.games.Get(ctx, r.PlayerID, r.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get game state")
		r.sendError(ctx, err.Error())
		return
	}
	if !current.Result.IsTerminal() {
		r.sendError(ctx, "game is still in progress")
		return
	}

	settings := r.settings
	settings.Difficulty = current.Difficulty
	settings.Mark = string(current.PlayerMark.Opponent())

	next, err := r.games.Start(ctx, r.PlayerID, &settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not start rematch")
		r.sendError(ctx, err.Error())
		return
	}

	slog.InfoContext(ctx, "Rematch started", "player.id", r.PlayerID, "previous_game.id", r.ID, "game.id", next.ID)
	r.ID = next.ID
	r.sendInitialState(ctx, next)
}

func (r *Room) sendInitialState(ctx context.Context, state *game.StateDTO) {
	r.send(ctx, proto.NewAssignmentMessage(state))
	r.send(ctx, proto.NewUpdateMessage(state))
}

func (r *Room) sendError(ctx context.Context, reason string) {
	r.send(ctx, proto.NewErrorMessage(reason))
}
