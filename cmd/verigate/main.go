package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	vghttp "github.com/verigate/verigate/internal/adapter/http"
	vgnats "github.com/verigate/verigate/internal/adapter/nats"
	vgotel "github.com/verigate/verigate/internal/adapter/otel"
	"github.com/verigate/verigate/internal/adapter/postgres"
	"github.com/verigate/verigate/internal/adapter/ristretto"
	"github.com/verigate/verigate/internal/adapter/scoring"
	"github.com/verigate/verigate/internal/adapter/ws"
	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/domain/verification"
	"github.com/verigate/verigate/internal/logger"
	"github.com/verigate/verigate/internal/middleware"
	"github.com/verigate/verigate/internal/queue"
	"github.com/verigate/verigate/internal/resilience"
	"github.com/verigate/verigate/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"scoring_url", cfg.Scoring.URL,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	shutdownTelemetry, err := vgotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS publishing is best-effort: the audit log in postgres stays the
	// durable record, so a missing broker degrades rather than aborts.
	var mq *vgnats.Queue
	if cfg.NATS.URL != "" {
		mq, err = vgnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, audit events will not be published", "error", err)
			mq = nil
		} else {
			defer func() { _ = mq.Close() }()
		}
	}

	reportCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer reportCache.Close()

	// --- Scoring engine ---

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	engine := scoring.NewClient(cfg.Scoring.URL, cfg.Scoring.Timeout)
	engine.SetBreaker(breaker)

	// --- Services ---

	metrics, err := vgotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	audits := postgres.NewAuditLog(pool)
	reviewQueue := queue.New()

	thresholds := verification.Thresholds{
		AutoApprove: cfg.Routing.AutoApproveScore,
		AutoReject:  cfg.Routing.AutoRejectScore,
	}
	if err := thresholds.Validate(); err != nil {
		return fmt.Errorf("routing thresholds: %w", err)
	}

	ingestSvc := service.NewIngestService(store, engine, reviewQueue, audits, thresholds, cfg.Scoring.Timeout)
	ingestSvc.SetCache(reportCache, cfg.Cache.TTL)
	ingestSvc.SetBroadcaster(hub)
	ingestSvc.SetMetrics(metrics)

	reviewSvc := service.NewReviewService(store, reviewQueue, audits)
	reviewSvc.SetBroadcaster(hub)
	reviewSvc.SetMetrics(metrics)

	if mq != nil {
		ingestSvc.SetMessageQueue(mq)
		reviewSvc.SetMessageQueue(mq)
	}

	// Rehydrate the queue from the case store so pending work survives restarts.
	pending, err := store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("rebuild queue: %w", err)
	}
	reviewQueue.Rebuild(pending)
	slog.Info("review queue rebuilt", "pending", reviewQueue.Len())

	// Watched-directory ingestion for bulk scanner drops.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if cfg.Watch.Dir != "" {
		watcher := service.NewWatchService(ingestSvc, cfg.Watch.Dir, cfg.Watch.Interval, cfg.Watch.MaxParallel)
		watcher.Start(watchCtx)
		slog.Info("directory watcher started", "dir", cfg.Watch.Dir, "interval", cfg.Watch.Interval)
	}

	// --- HTTP ---

	handlers := vghttp.NewHandlers(ingestSvc, reviewSvc, hub, breaker)
	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	r := chi.NewRouter()
	r.Use(vghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(vghttp.Logger)
	r.Use(vghttp.SecurityHeaders)
	r.Use(vgotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(limiter.Handler)
	r.Use(chimw.Recoverer)

	vghttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")
	cancelWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
