package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"perdiem/internal/amqp"
	"perdiem/internal/cache"
	"perdiem/internal/config"
	apphttp "perdiem/internal/http"
	"perdiem/internal/log"
	"perdiem/internal/services"
	"perdiem/internal/signing"
	"perdiem/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	appLogger := logger.WithComponent(log.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Rollover cache: Redis when configured, in-process fallback otherwise.
	var rollovers cache.RolloverCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RolloverTTL)
		if err != nil {
			appLogger.Error("Failed to initialize Redis cache", log.FieldError, err)
			os.Exit(1)
		}
		defer redisCache.Close()
		rollovers = redisCache
		appLogger.Info("Redis rollover cache initialized")
	} else {
		rollovers = cache.NewMemoryCache(cfg.RolloverTTL)
		appLogger.Info("Using in-memory rollover cache - no REDIS_URL provided")
	}

	// Refresh publisher is optional: without a broker, writes still land
	// and closed-day balances catch up on the next scheduled pass.
	var publisher services.RefreshPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		appLogger.Warn("AMQP unavailable, rollover refresh publishing disabled", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	var verifier *signing.Verifier
	if cfg.SigningSecret != "" {
		key, err := cfg.SigningKey()
		if err != nil {
			appLogger.Error("Invalid signing secret", log.FieldError, err)
			os.Exit(1)
		}
		verifier, err = signing.NewVerifier(key)
		if err != nil {
			appLogger.Error("Failed to initialize signature verifier", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		appLogger.Warn("Request signing disabled - no BACKEND_SIGNING_SECRET provided")
	}

	ledger := services.NewLedgerService(repo, repo, repo, repo, rollovers, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, verifier, apphttp.Options{
		HistoryDefaultDays: cfg.HistoryDefaultDays,
		HistoryMaxDays:     cfg.HistoryMaxDays,
		Ready:              repo.Ping,
		Logger:             logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	appLogger.Info("Starting perdiem server", log.FieldOperation, log.OpStartup, "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	appLogger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
