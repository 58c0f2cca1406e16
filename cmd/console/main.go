package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opsdeck/authcore/internal/background"
	"github.com/opsdeck/authcore/internal/config"
	"github.com/opsdeck/authcore/internal/database"
	"github.com/opsdeck/authcore/internal/handlers"
	middlewareCustom "github.com/opsdeck/authcore/internal/middleware"
	"github.com/opsdeck/authcore/internal/routes"
	"github.com/opsdeck/authcore/internal/services"
	"github.com/opsdeck/authcore/internal/store"
	"github.com/opsdeck/authcore/internal/verifier"
	pkglogger "github.com/opsdeck/authcore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store_backend", cfg.Store.Backend))

	// Select the persistence backend
	var (
		st store.Store
		db *database.DB
	)
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err = database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		st = store.NewPostgres(db)
	case config.StoreBackendRedis:
		redisStore, err := store.NewRedis(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisStore.Close()
		st = redisStore
	case config.StoreBackendMemory:
		st = store.NewMemory()
	}

	auditLogger := pkglogger.NewAuditLogger(logger)
	credentialVerifier := verifier.NewClient(&cfg.Verifier, logger)

	guard := services.NewLockoutService(st, services.LockoutConfig{
		MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
		BlockDuration:     cfg.Lockout.BlockDuration,
	}, logger)
	activity := services.NewActivityService(st, logger)
	sessions := services.NewSessionService(st, credentialVerifier, guard, activity, logger, auditLogger, cfg.Session)
	permissions := services.NewPermissionService(sessions)

	// Restore persisted state before serving a single request
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := guard.Rehydrate(startupCtx); err != nil {
		logger.Error("failed to rehydrate lockout state", slog.Any("error", err))
		startupCancel()
		os.Exit(1)
	}
	if err := sessions.Rehydrate(startupCtx); err != nil {
		logger.Error("failed to rehydrate session", slog.Any("error", err))
		startupCancel()
		os.Exit(1)
	}
	startupCancel()

	authHandler := handlers.NewAuthHandler(sessions, guard, activity, permissions)

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","store":"down"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","store":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := background.NewLockoutSweeper(guard, logger, 30*time.Second)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	go sweeper.Start(sweeperCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweeperCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
