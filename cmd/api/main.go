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

	"github.com/nikhilbhutani/audionotes/internal/api"
	"github.com/nikhilbhutani/audionotes/internal/api/handlers"
	"github.com/nikhilbhutani/audionotes/internal/cache"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/database"
	"github.com/nikhilbhutani/audionotes/internal/metrics"
	"github.com/nikhilbhutani/audionotes/internal/multimodal/stt"
	"github.com/nikhilbhutani/audionotes/internal/notes"
	"github.com/nikhilbhutani/audionotes/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, os.DirFS(cfg.Database.MigrationsPath)); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	provider, err := stt.New(stt.Config{
		Backend:       cfg.STT.Backend,
		OpenAIKey:     cfg.STT.OpenAIKey,
		OpenAIBaseURL: cfg.STT.OpenAIBaseURL,
		OpenAIModel:   cfg.STT.OpenAIModel,
		LocalBaseURL:  cfg.STT.LocalBaseURL,
		Timeout:       cfg.STT.Timeout,
	})
	if err != nil {
		slog.Error("failed to create stt provider", "error", err)
		os.Exit(1)
	}

	m := metrics.NewMetrics()
	store := storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
	svc := notes.NewService(notes.NewPgRepository(db), store, cfg.Storage.Bucket, m)

	checks := map[string]handlers.Pinger{"database": db}

	// Redis is optional; without it the note list is read from the database every time.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, list cache degraded", "error", err)
		}
		c := cache.NewCache(rdb, "audionotes:")
		svc = svc.WithCache(c, cfg.Notes.CacheTTL)
		checks["redis"] = c
	}

	router := api.NewRouter(cfg, api.Deps{
		Notes:   svc,
		STT:     provider,
		Metrics: m,
		Checks:  checks,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.STT.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"stt_backend", provider.Name(),
			"bucket", cfg.Storage.Bucket,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
