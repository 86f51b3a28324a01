// Package main is the entrypoint for the SatyaShield analysis engine server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bhanukaranwal/Satyashield/internal/api"
	"github.com/bhanukaranwal/Satyashield/internal/api/handler"
	mw "github.com/bhanukaranwal/Satyashield/internal/api/middleware"
	"github.com/bhanukaranwal/Satyashield/internal/api/response"
	"github.com/bhanukaranwal/Satyashield/internal/cache"
	"github.com/bhanukaranwal/Satyashield/internal/config"
	"github.com/bhanukaranwal/Satyashield/internal/detector"
	"github.com/bhanukaranwal/Satyashield/internal/engine"
	"github.com/bhanukaranwal/Satyashield/internal/store"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "detector_provider", cfg.Detector.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Optional Redis status mirror
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		redisCache = rc
		slog.Info("redis connected")
	}

	// 3. Optional Postgres archive for terminal records
	var archive store.Archive
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		archive = store.NewPostgresArchive(pool)
		slog.Info("database connected, migrations applied")
	}

	// 4. Create the detector
	det, err := detector.NewDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}
	slog.Info("detector initialized", "detector", det.Name())

	var locator models.ModelLocator = &detector.PathLocator{BasePath: cfg.Detector.ModelBasePath}
	if cfg.Detector.Provider == "mock" {
		locator = &detector.StaticLocator{Path: "mock"}
	}

	// 5. Build and start the engine
	var archiveWrites sync.WaitGroup
	eng := engine.New(cfg.Engine, det,
		engine.WithModelLocator(locator, cfg.Detector.ModelName),
		engine.WithStatusListener(statusListener(redisCache, archive, cfg.Redis.StatusTTL, &archiveWrites)),
	)
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	// 6. Build router with dependencies
	var (
		archiveFallback handler.RecordArchive
		recentHandler   http.HandlerFunc
		statusMirror    handler.StatusMirror
	)
	if archive != nil {
		archiveFallback = archive
		recentHandler = handler.NewRecentAnalysesHandler(archive)
		go archiveJanitor(ctx, archive, cfg.Database.ArchiveRetention, cfg.Engine.CleanupInterval)
	}
	if redisCache != nil {
		statusMirror = redisCache
	}

	deps := api.Dependencies{
		Auth:      mw.NewAuth(cfg.Auth.APIKeyHashes),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Auth.RequestsPerMin),

		HealthHandler:      healthHandler(eng, redisCache, archive),
		SubmitHandler:      handler.NewSubmitHandler(eng),
		BatchSubmitHandler: handler.NewBatchSubmitHandler(eng),
		StatusHandler:      handler.NewStatusHandler(eng, statusMirror),
		ResultHandler:      handler.NewResultHandler(eng, archiveFallback),
		RecentHandler:      recentHandler,
		WaitHandler:        handler.NewWaitHandler(eng),
		QueueDepthsHandler: handler.NewQueueDepthsHandler(eng),
		MetricsHandler:     handler.NewMetricsHandler(eng),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 6 * time.Minute, // wait endpoint can poll for up to 5m
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop taking HTTP traffic first, then drain the engine so every
	// accepted job reaches a terminal state.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := eng.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("engine shutdown: %w", err)
	}
	// Terminal records produced during the drain may still be on their way to
	// the archive; each write is bounded by its own timeout.
	archiveWrites.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

// statusListener mirrors status transitions into Redis and archives terminal
// records into Postgres, both best-effort. Archive writes run off the worker
// goroutine but are tracked in writes so shutdown can flush them.
func statusListener(c cache.Cache, archive store.Archive, statusTTL time.Duration, writes *sync.WaitGroup) engine.StatusListener {
	return func(rec *models.AnalysisRecord) {
		if c != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := c.SetAnalysisStatus(ctx, rec.ID, rec.Status, statusTTL); err != nil {
				slog.Warn("status mirror write failed", "analysis_id", rec.ID, "error", err)
			}
			cancel()
		}

		if archive != nil && rec.IsTerminal() {
			writes.Add(1)
			go func() {
				defer writes.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := archive.SaveRecord(ctx, rec); err != nil {
					slog.Warn("archive write failed", "analysis_id", rec.ID, "error", err)
				}
			}()
		}
	}
}

// archiveJanitor purges archived records older than retention on the given
// interval, until ctx is cancelled.
func archiveJanitor(ctx context.Context, archive store.Archive, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			purged, err := archive.PurgeBefore(purgeCtx, time.Now().UTC().Add(-retention))
			cancel()
			if err != nil {
				slog.Warn("archive purge failed", "error", err)
				continue
			}
			if purged > 0 {
				slog.Info("purged archived analysis records", "purged", purged, "retention", retention.String())
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthHandler reports engine readiness and dependency connectivity.
func healthHandler(eng *engine.Engine, c cache.Cache, archive store.Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"engine": "ok",
		}
		if !eng.Ready() {
			checks["engine"] = "draining"
		}

		if c != nil {
			checks["cache"] = "ok"
			if err := c.Ping(r.Context()); err != nil {
				checks["cache"] = "degraded"
			}
		}
		if archive != nil {
			checks["database"] = "ok"
			if err := archive.Ping(r.Context()); err != nil {
				checks["database"] = "degraded"
			}
		}

		for _, state := range checks {
			if state != "ok" {
				response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
					"One or more services degraded", checks)
				return
			}
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
