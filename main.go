package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/msomdec/murmur/internal/config"
	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/events"
	"github.com/msomdec/murmur/internal/handler"
	"github.com/msomdec/murmur/internal/repository/postgres"
	"github.com/msomdec/murmur/internal/repository/sqlite"
	"github.com/msomdec/murmur/internal/service"
	"github.com/msomdec/murmur/internal/telemetry"
)

const serviceName = "murmur"

func main() {
	cfg, err := config.Load(os.Getenv("MURMUR_CONFIG"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	)).With("service", serviceName, "env", cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), events.DefaultQueueSize)
		defer kafka.Close()
		publisher = kafka
		slog.Info("publishing events to kafka", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.KafkaTopic)
	}

	limiter, closeLimiter := newLoginLimiter(cfg)
	defer closeLimiter()

	tokens := service.TokenConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Services{
		Auth:         service.NewAuthService(store.Users(), store.RefreshTokens(), tokens, cfg.BcryptCost, publisher),
		Users:        service.NewUserService(store.Users(), store.Follows(), store.RefreshTokens(), cfg.BcryptCost, publisher),
		Posts:        service.NewPostService(store.Posts(), publisher),
		Feed:         service.NewFeedService(store.Users(), store.Follows(), store.Posts()),
		Media:        service.NewMediaService(store.FileStore(), cfg.MaxUploadBytes),
		LoginLimiter: limiter,
		DB:           store,
		Registry:     telemetry.NewRegistry(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	if cfg.DatabaseDriver == "postgres" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// newLoginLimiter prefers a Redis limiter shared across instances and
// falls back to an in-process token bucket.
func newLoginLimiter(cfg *config.Config) (service.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		slog.Info("using redis login rate limiter", "addr", cfg.RedisAddr)
		return service.NewRedisLimiter(client, cfg.LoginRateLimit, cfg.LoginRateWindow, ""), func() { client.Close() }
	}
	tb := service.NewTokenBucketForWindow(cfg.LoginRateLimit, cfg.LoginRateWindow)
	return tb, tb.Close
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
