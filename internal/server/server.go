package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctchen222/mini-games/internal/api/controller"
	"ctchen222/mini-games/internal/api/middleware"
	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/response"
	"ctchen222/mini-games/internal/api/service"
	"ctchen222/mini-games/internal/room"
)

var tracer = otel.Tracer("server")

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options are the collaborators the routes are served by.
type Options struct {
	UserService service.UserService
	GameService service.GameService
	Checks      map[string]HealthCheck
}

type Server struct {
	engine      *gin.Engine
	gameService service.GameService
	checks      map[string]HealthCheck
	upgrader    websocket.Upgrader
}

type wsQuery struct {
	GameID     string `form:"game_id"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Mark       string `form:"mark" binding:"omitempty,oneof=X O"`
}

func NewServer(opts Options) *Server {
	s := &Server{
		engine:      gin.New(),
		gameService: opts.GameService,
		checks:      opts.Checks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.registerHandlers(opts)
	return s
}

// Engine returns the gin engine serving every route.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(opts Options) {
	s.engine.Use(gin.Recovery(), requestLogger())

	userController := controller.NewUserController(opts.UserService)
	gameController := controller.NewGameController(opts.GameService)
	auth := middleware.Auth(opts.UserService)

	s.engine.GET("/healthz", s.handleHealth)

	users := s.engine.Group("/api/users")
	users.POST("/register", userController.Register)
	users.POST("/login", userController.Login)
	users.POST("/guest", userController.GuestLogin)
	users.GET("/me/stats", auth, userController.Stats)

	games := s.engine.Group("/api/games", auth)
	games.POST("", gameController.Start)
	games.GET("/:id", gameController.Get)
	games.DELETE("/:id", gameController.Abandon)
	games.POST("/:id/moves", gameController.Move)

	s.engine.GET("/ws", auth, s.handleWebSocket)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{}
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.WarnContext(ctx, "Health check failed", "check", name, "error", err)
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.NewResponse(false, http.StatusServiceUnavailable, status))
		return
	}
	response.SuccessResponse(c, status)
}

// handleWebSocket upgrades the connection and serves one room on it until
// the client leaves.
func (s *Server) handleWebSocket(c *gin.Context) {
	playerID := middleware.PlayerID(c)
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("player.id", playerID),
	))
	defer span.End()

	var q wsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("game.id", q.GameID), attribute.String("game.difficulty", q.Difficulty))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	r := room.NewRoom(playerID, conn, s.gameService, models.StartGameRequest{
		Difficulty: q.Difficulty,
		Mark:       q.Mark,
	})
	if err := r.Run(ctx, q.GameID); err != nil {
		slog.WarnContext(ctx, "Room closed with error", "player.id", playerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Room closed with error")
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"http.method", c.Request.Method,
			"http.route", c.FullPath(),
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
