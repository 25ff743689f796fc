package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/config"
	"github.com/examsecure/examsecure-backend/internal/database"
	"github.com/examsecure/examsecure-backend/internal/detector"
	"github.com/examsecure/examsecure-backend/internal/handler"
	"github.com/examsecure/examsecure-backend/internal/identity"
	"github.com/examsecure/examsecure-backend/internal/logger"
	"github.com/examsecure/examsecure-backend/internal/render"
	"github.com/examsecure/examsecure-backend/internal/router"
	"github.com/examsecure/examsecure-backend/internal/service"
	"github.com/examsecure/examsecure-backend/internal/session"
	"github.com/examsecure/examsecure-backend/internal/store"
	"github.com/examsecure/examsecure-backend/internal/validator"
	"github.com/examsecure/examsecure-backend/internal/worker"
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
		Msg("Starting ExamSecure Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Store ──────────────────────────────────────────────
	st := store.New(cfg.BcryptCost)
	if cfg.GinMode != "release" {
		if err := st.Seed(); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
		log.Info().Msg("Demo data seeded")
	}

	// ─── Initialize Renderer ───────────────────────────────────────────
	renderer, err := render.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize renderer")
	}

	// ─── Initialize Sessions ───────────────────────────────────────────
	archiver := worker.NewRedisArchiver(rdb, log)
	sessionCfg := session.Config{
		MaxWarnings:      cfg.MaxWarnings,
		PassThresholdPct: cfg.PassThresholdPct,
		DevToolsPoll:     cfg.DevToolsPoll,
		Detector: detector.Options{
			DebounceWindow: cfg.ScreenshotDebounce,
			ResizeDeltaPx:  cfg.ResizeDeltaPx,
			DevToolsGapPx:  cfg.DevToolsGapPx,
		},
	}
	sessions := session.NewManager(ctx, log, sessionCfg, st, archiver)

	// ─── Initialize Services ───────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, st)
	verifier := identity.New(cfg.IdentityBackend, rdb, cfg.BcryptCost)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, verifier, st),
		Exam:          handler.NewExamHandler(st),
		Attempt:       handler.NewAttemptHandler(st, sessions),
		QuestionImage: handler.NewQuestionImageHandler(st, sessions, renderer),
		SignalWS:      handler.NewSignalWSHandler(sessions, log, cfg.AllowedOrigins),
		Monitor:       handler.NewMonitorHandler(sessions),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	cheatWorker := worker.NewCheatArchiveWorker(pool, rdb, log)
	resultWorker := worker.NewResultArchiveWorker(pool, rdb, log)

	go cheatWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Tear down live sessions so final archive entries hit the queues.
	cancel()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
