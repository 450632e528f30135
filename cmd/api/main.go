// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/pardisweb/darban/internal/admin"
	"github.com/pardisweb/darban/internal/auth"
	"github.com/pardisweb/darban/internal/config"
	"github.com/pardisweb/darban/internal/core"
	"github.com/pardisweb/darban/internal/health"
	"github.com/pardisweb/darban/internal/middleware"
	"github.com/pardisweb/darban/internal/server"
	"github.com/pardisweb/darban/internal/user"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close on exit

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	defer rdb.Close() //nolint:errcheck // best-effort close on exit

	respond := core.NewResponder(!cfg.IsProduction(), logger)

	hasher, err := core.NewHasher(cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("init hasher: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Token)
	if err != nil {
		return fmt.Errorf("init token manager: %w", err)
	}

	userRepo := user.NewRepository(db.DB)
	userService := user.NewService(userRepo, hasher)

	authService := auth.NewService(
		userService,
		tokens,
		hasher,
		cfg.Security.OneTimeTokenTTL,
	)

	authHandler, err := auth.NewHandler(
		authService,
		respond,
		cfg.Session,
		cfg.IsProduction(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("init auth handler: %w", err)
	}

	userHandler, err := user.NewHandler(userService, respond)
	if err != nil {
		return fmt.Errorf("init user handler: %w", err)
	}

	healthHandler := health.NewHandler(db, rdb)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: rdb.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  rdb.Ping,
		Respond:    respond,
	})

	authenticator := middleware.Authenticator(
		tokens,
		userService,
		cfg.Session.CookieName,
		respond,
	)

	globalLimiter := middleware.NewRateLimiter(rdb.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.KeyByIP,
			FailOpen: true,
		})

	// Sign-in gets a tighter per-IP budget to slow credential stuffing.
	signInLimiter := middleware.NewRateLimiter(rdb.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.SignInRequests,
				cfg.RateLimit.SignInBurst,
			),
			KeyFunc: middleware.KeyByIP,
		})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(globalLimiter.Handler)

		authHandler.RegisterRoutes(r, authenticator, signInLimiter.Handler)
		userHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, middleware.RequireAccess(
			respond,
			"userID",
			middleware.AccessAdmin,
		))
	})

	srv := server.New(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	healthHandler.SetShutdown(true)

	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}

	return <-errCh
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
