// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/cache"
	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
	"github.com/Shivanand-hulikatti/eventhub/internal/config"
	"github.com/Shivanand-hulikatti/eventhub/internal/database"
	"github.com/Shivanand-hulikatti/eventhub/internal/geo"
	"github.com/Shivanand-hulikatti/eventhub/internal/handler"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Log) *slog.Logger {
	level, _ := cfg.SlogLevel() // validated by config.Load
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL and migrate ─────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return err
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	clk := clock.NewSystem()

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		store = cache.NewMemory(clk)
	default:
		pg := repository.NewCacheRepository(pool, clk)
		if n, err := pg.DeleteExpired(ctx); err != nil {
			log.Warn("cache cleanup failed", slog.Any("error", err))
		} else if n > 0 {
			log.Info("expired cache entries removed", slog.Int64("count", n))
		}
		store = pg
	}

	gateway := geo.NewGateway(
		geo.NewNominatimClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout),
		geo.NewOpenMeteoClient(cfg.Weather.BaseURL, cfg.Weather.Timeout),
		cache.New(store, log),
		log,
		geo.WithGeocodeTTL(cfg.Geocoder.TTL),
		geo.WithForecastTTL(cfg.Weather.TTL),
	)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk.Now)
	if err != nil {
		return err
	}

	tx := repository.NewTransactor(pool)
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	eventSvc := service.NewEventService(tx, eventRepo, regRepo, categoryRepo, gateway, clk, log)
	regSvc := service.NewRegistrationService(tx, eventRepo, regRepo, clk, log)

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(handler.New(eventSvc, regSvc, gateway, clk, log), tokens, cfg.HTTP.CORSOrigins, log)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
