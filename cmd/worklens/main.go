package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"worklens/internal/ai"
	"worklens/internal/amqp"
	"worklens/internal/config"
	"worklens/internal/core"
	apphttp "worklens/internal/http"
	applog "worklens/internal/log"
	"worklens/internal/rules"
	"worklens/internal/services"
	"worklens/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting worklens")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository (runs migrations on open)
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	store := rules.NewStore(repo)
	resolver := rules.NewResolver(store)

	// Seed default rules and settings on first run. Existing rows are
	// never overwritten, so this is safe to repeat on every start.
	if err := store.SeedDefaults(context.Background(), repo); err != nil {
		logger.Error("Failed to seed default rules", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AMQP invalidation bus (optional). Other instances publish rule
	// changes here; we drop our snapshots when one arrives.
	var bus *amqp.Client
	if cfg.AMQPURL != "" {
		bus, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		go func() {
			handler := func(axes []core.RuleAxis) { store.Invalidate(axes...) }
			if err := bus.ConsumeInvalidations(ctx, handler); err != nil && err != context.Canceled {
				logger.Error("Invalidation consumption failed", "error", err)
			}
		}()
		logger.Info("Invalidation bus connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Invalidation bus disabled - no AMQP_URL provided")
	}

	// AI provider (optional). Without a key every categorization request
	// falls back to the keyword rules.
	var provider ai.Provider
	if cfg.AnthropicAPIKey != "" {
		provider = ai.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logger.Info("AI categorization enabled", "model", cfg.AnthropicModel)
	} else {
		logger.Info("AI categorization disabled - using keyword rules only")
	}
	categorizer := ai.NewFallbackCategorizer(provider, resolver)

	analytics := services.NewAnalyticsService(repo, resolver)

	var publisher services.InvalidationPublisher
	if bus != nil {
		publisher = bus
	}
	admin := services.NewAdminService(repo, store, resolver, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, analytics, admin, repo, repo, store, categorizer, apphttp.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
	})

	// Configure server timeouts and limits. Write timeout leaves room
	// for workbook uploads.
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting worklens server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
