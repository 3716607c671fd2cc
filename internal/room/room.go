package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/game"
)

const (
	heartbeatInterval = 10 * time.Second
)

var tracer = otel.Tracer("room")

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Games is the part of the game service a session drives.
type Games interface {
	Start(ctx context.Context, playerID string, req *models.StartGameRequest) (*game.StateDTO, error)
	Move(ctx context.Context, playerID, gameID string, cell int) (*game.StateDTO, error)
	Get(ctx context.Context, playerID, gameID string) (*game.StateDTO, error)
}

// Room is one player's websocket session against the bot. It follows a
// single game at a time; a rematch moves it to a new game.
type Room struct {
	ID       string
	PlayerID string

	conn      Connection
	games     Games
	settings  models.StartGameRequest
	heartbeat time.Duration

	// writeMu serializes writes from the read loop and the heartbeat.
	writeMu sync.Mutex
}

// NewRoom creates a session for playerID over conn. settings are used for
// every game the session starts.
func NewRoom(playerID string, conn Connection, games Games, settings models.StartGameRequest) *Room {
	return &Room{
		PlayerID:  playerID,
		conn:      conn,
		games:     games,
		settings:  settings,
		heartbeat: heartbeatInterval,
	}
}

// Run resumes gameID, or starts a new game when it is empty, then serves
// client messages until the connection drops or ctx is done. The connection
// is closed on return.
func (r *Room) Run(ctx context.Context, gameID string) error {
	ctx, span := tracer.Start(ctx, "room.Run", trace.WithAttributes(
		attribute.String("player.id", r.PlayerID),
		attribute.String("game.id", gameID),
	))
	defer span.End()
	defer r.conn.Close()

	var state *game.StateDTO
	var err error
	if gameID != "" {
		state, err = r.games.Get(ctx, r.PlayerID, gameID)
	} else {
		state, err = r.games.Start(ctx, r.PlayerID, &r.settings)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not open game")
		r.sendError(ctx, err.Error())
		return fmt.Errorf("could not open game: %w", err)
	}
	r.ID = state.ID
	r.sendInitialState(ctx, state)

	done := make(chan struct{})
	defer close(done)
	go r.keepAlive(ctx, done)

	r.readPump(ctx)
	return nil
}

// readPump feeds client messages to HandleMessage until a read fails.
func (r *Room) readPump(ctx context.Context) {
	for {
		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.InfoContext(ctx, "Player left", "player.id", r.PlayerID, "game.id", r.ID)
			} else {
				slog.WarnContext(ctx, "Player connection error", "player.id", r.PlayerID, "game.id", r.ID, "error", err)
			}
			return
		}
		r.HandleMessage(ctx, msg)
	}
}

// keepAlive pings the client and closes the connection once ctx is done,
// which unblocks readPump.
func (r *Room) keepAlive(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = r.conn.Close()
			return
		case <-ticker.C:
			if err := r.write(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping to player, assuming disconnect", "player.id", r.PlayerID, "error", err)
				_ = r.conn.Close()
				return
			}
		}
	}
}

func (r *Room) write(messageType int, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(messageType, data)
}

// send marshals message and writes it as a text frame.
func (r *Room) send(ctx context.Context, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		return
	}
	if err := r.write(websocket.TextMessage, data); err != nil {
		slog.ErrorContext(ctx, "error writing message to player", "player.id", r.PlayerID, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
