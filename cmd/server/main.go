package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	apirepository "ctchen222/mini-games/internal/api/repository"
	"ctchen222/mini-games/internal/api/service"
	"ctchen222/mini-games/internal/bot"
	"ctchen222/mini-games/internal/config"
	"ctchen222/mini-games/internal/db"
	"ctchen222/mini-games/internal/events"
	"ctchen222/mini-games/internal/hub"
	"ctchen222/mini-games/internal/logger"
	"ctchen222/mini-games/internal/repository"
	"ctchen222/mini-games/internal/server"
	"ctchen222/mini-games/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger.Init(cfg.LogLevel, cfg.Telemetry.Enabled)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry, cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Initialize SQLite DB
	sqlDB, err := db.Connect(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.InitializeDB(ctx, sqlDB); err != nil {
		return err
	}

	// Create repositories
	gameRepo := repository.NewGameRepository(rdb, cfg.Redis.GameTTL)
	userRepo := apirepository.NewUserRepository(sqlDB)
	resultRepo := apirepository.NewResultRepository(sqlDB)

	// Create services
	userService := service.NewUserService(userRepo, resultRepo, cfg.JWT)
	gameService, err := service.NewGameService(gameRepo, bot.NewCalculator(), events.NewPublisher(rdb), cfg.Bot.Difficulty)
	if err != nil {
		return err
	}

	// Create hub
	go hub.NewHub(rdb, resultRepo).Run(ctx)

	// Create the Gin-based server
	srv := server.NewServer(server.Options{
		UserService: userService,
		GameService: gameService,
		Checks: map[string]server.HealthCheck{
			"redis":  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"sqlite": sqlDB.PingContext,
		},
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
		// Websocket sessions end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
