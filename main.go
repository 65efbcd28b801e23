package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterlud/aibudgetplanner/budget"
	"github.com/carterlud/aibudgetplanner/config"
	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/logging"
	"github.com/carterlud/aibudgetplanner/queue"
	"github.com/carterlud/aibudgetplanner/server"
	"github.com/carterlud/aibudgetplanner/storage"
	"github.com/carterlud/aibudgetplanner/storage/postgres"
	"github.com/carterlud/aibudgetplanner/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("statement service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache *budget.DividerCache
	if cfg.RedisURL != "" {
		client, err := budget.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, divider lookups are not cached", "error", err)
		} else {
			defer client.Close()
			cache = budget.NewDividerCache(client, cfg.DividerCacheTTL)
		}
	}
	budgetSvc := budget.NewService(store, cache, logger)

	jobQueue, err := queue.NewPDFJobQueue(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	if err := jobQueue.LoadJobs(); err != nil {
		logger.Warn("failed to load existing jobs", "error", err)
	}

	srv := server.NewServer(jobQueue, store, budgetSvc, extractor.New(logger), server.Options{
		HTTPAddr:       cfg.HTTPAddr,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		NumWorkers:     cfg.NumWorkers,
		PollInterval:   cfg.PollInterval,
	}, logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("statement service started", "workers", cfg.NumWorkers, "db", cfg.DBDriver)

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.DBPath)
	}
}
