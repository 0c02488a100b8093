package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"perdiem/internal/amqp"
	"perdiem/internal/cache"
	"perdiem/internal/config"
	"perdiem/internal/log"
	"perdiem/internal/services"
	"perdiem/internal/storage"
	"perdiem/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	appLogger := logger.WithComponent(log.ComponentApp)

	appLogger.Info("Starting perdiem-worker", log.FieldOperation, log.OpStartup)

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

	var rollovers cache.RolloverCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RolloverTTL)
		if err != nil {
			appLogger.Error("Failed to initialize Redis cache", log.FieldError, err)
			os.Exit(1)
		}
		defer redisCache.Close()
		rollovers = redisCache
	} else {
		appLogger.Info("Redis disabled - rollovers served from daily_balances only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		appLogger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewRolloverProcessor(repo, repo, repo, repo, rollovers, cfg.RefreshBatchSize, logger)
	w := worker.New(amqpClient, processor, cfg.CloseOutSchedule, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on anything missed while the worker was down.
	if err := processor.CloseOutAll(ctx); err != nil {
		appLogger.Error("Startup close-out failed", log.FieldError, err)
		// Keep running: the scheduled pass will retry.
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.RunConsumer(gctx) })
	g.Go(func() error { return w.RunScheduler(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	appLogger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
