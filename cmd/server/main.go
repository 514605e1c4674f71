package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/config"
	"github.com/prepdeck/session-engine/internal/database"
	"github.com/prepdeck/session-engine/internal/engine"
	"github.com/prepdeck/session-engine/internal/feed"
	"github.com/prepdeck/session-engine/internal/handler"
	"github.com/prepdeck/session-engine/internal/logger"
	"github.com/prepdeck/session-engine/internal/repository"
	"github.com/prepdeck/session-engine/internal/router"
	"github.com/prepdeck/session-engine/internal/service"
	"github.com/prepdeck/session-engine/internal/validator"
	"github.com/prepdeck/session-engine/internal/worker"
	"github.com/prepdeck/session-engine/migrations"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting session engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Open Local Store ──────────────────────────────────────────────
	db, err := database.NewSQLite(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open SQLite store")
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	snapshotRepo := repository.NewSnapshotRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// ─── Initialize Services ──────────────────────────────────────────
	notifier := feed.New(cfg.FeedURL, log)
	attemptService := service.NewAttemptService(snapshotRepo, resultRepo, notifier, engine.SystemClock{}, log)
	resultService := service.NewResultService(resultRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Attempt: handler.NewAttemptHandler(attemptService),
		Results: handler.NewResultsHandler(resultService),
		WS:      handler.NewWSHandler(attemptService, resultService, log, cfg.AllowedOrigins),
	}

	// ─── Start Autosave Worker ─────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	autosaveWorker := worker.NewAutosaveWorker(attemptService, cfg.AutosaveInterval, log)
	if err := autosaveWorker.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start autosave worker")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the autosave schedule with one last flush.
	autosaveWorker.Stop(shutdownCtx)

	// 3. Park live attempts: stop timers, flush final snapshots.
	// Leaving is not submitting — the sessions resume on next start.
	attemptService.Shutdown(shutdownCtx)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
