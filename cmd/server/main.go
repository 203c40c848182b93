package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jasselhoff/festival-planner/internal/app"
	"github.com/jasselhoff/festival-planner/internal/auth"
	"github.com/jasselhoff/festival-planner/internal/config"
	"github.com/jasselhoff/festival-planner/internal/database"
	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/hub"
	"github.com/jasselhoff/festival-planner/internal/logging"
	"github.com/jasselhoff/festival-planner/internal/metrics"
	"github.com/jasselhoff/festival-planner/internal/playlist"
	"github.com/jasselhoff/festival-planner/internal/redis"
	"github.com/jasselhoff/festival-planner/internal/retry"
	"github.com/jasselhoff/festival-planner/internal/server"
	"github.com/jasselhoff/festival-planner/internal/version"
)

const setupTimeout = 60 * time.Second

// startupPolicy rides out Postgres and Redis coming up after the service
// in compose-style deployments.
var startupPolicy = retry.Policy{
	MaxAttempts:      6,
	InitialBackoff:   500 * time.Millisecond,
	RateLimitBackoff: 5 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Startup dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func retryAll(error) retry.Action { return retry.Retry }

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := retry.Do(ctx, startupPolicy, retryAll, func() (*pgxpool.Pool, error) {
		return database.Connect(ctx, cfg.DatabaseURL)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := retry.Do(ctx, startupPolicy, retryAll, func() (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, roomHub *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		roomHub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), setupTimeout)
	defer cancelSetup()

	pool := setupDB(setupCtx, cfg)
	defer pool.Close()

	redisClient := setupRedis(setupCtx, cfg)
	defer func() { _ = redisClient.Close() }()

	userRepo := database.NewUserRepo(pool)
	eventRepo := database.NewEventRepo(pool)
	groupRepo := database.NewGroupRepo(pool)
	selectionRepo := database.NewSelectionRepo(pool)
	inviteStore := redis.NewInviteStore(redisClient)

	roomHub := hub.New(clock, cfg.HeartbeatInterval, cfg.SendBufferSize)

	// Leave the interface a true nil when no provider is configured so the
	// playlist flow degrades to local track lists.
	var playlistCreator domain.PlaylistCreator
	if cfg.PlaylistProviderURL != "" {
		playlistCreator = playlist.NewClient(cfg.PlaylistProviderURL, cfg.PlaylistProviderToken)
		slog.Info("Playlist provider configured", "url", cfg.PlaylistProviderURL)
	}

	appSvc := app.NewService(userRepo, eventRepo, groupRepo, selectionRepo, inviteStore, roomHub, roomHub, playlistCreator, clock, cfg.InviteTTL)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: database.ReadinessCheck(pool)},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := server.NewServer(cfg, appSvc, verifier, roomHub, healthChecks)

	done := runGracefulShutdown(cfg, srv, roomHub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
