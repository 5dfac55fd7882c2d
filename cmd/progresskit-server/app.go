package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"progresskit/adapters/jsonfile"
	mem "progresskit/adapters/memory"
	redisAdapter "progresskit/adapters/redis"
	sqlxAdapter "progresskit/adapters/sqlx"
	"progresskit/api/httpapi"
	"progresskit/clock"
	"progresskit/config"
	"progresskit/engine"
	"progresskit/integrations/webhook"
	"progresskit/leaderboard"
	"progresskit/progress"
	"progresskit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Board   leaderboard.Board
	Service *progress.Service
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.PersistenceGateway, error) {
	return setupStorage(ctx, cfg)
}

func provideBoard(cfg *config.Config) leaderboard.Board {
	if !cfg.Engine.LeaderboardEnabled {
		return nil
	}
	return leaderboard.NewSkipList()
}

func provideService(cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, board leaderboard.Board, gateway engine.PersistenceGateway) (*progress.Service, error) {
	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Engine.Timezone, err)
	}

	mode := engine.DispatchAsync
	if cfg.Engine.DispatchMode == "sync" {
		mode = engine.DispatchSync
	}

	opts := []progress.Option{
		progress.WithGateway(gateway),
		progress.WithClock(clock.NewSystem(loc)),
		progress.WithDispatchMode(mode),
		progress.WithRealtime(hub),
		progress.WithLogger(logger),
	}
	if len(cfg.Engine.WebhookEndpoints) > 0 {
		opts = append(opts, progress.WithNotifier(webhook.New(cfg.Engine.WebhookEndpoints)))
	}

	svc := progress.New(opts...)
	if board != nil {
		leaderboard.Attach(board, svc.Bus)
	}
	return svc, nil
}

func provideHandler(svc *progress.Service, hub *realtime.Hub, board leaderboard.Board, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc.Coordinator, hub, board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.PersistenceGateway, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
