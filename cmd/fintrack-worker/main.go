package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/mirror/google"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	if cfg.MirrorSpreadsheetID == "" {
		logger.Error("MIRROR_SPREADSHEET_ID is required for the mirror worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend))
	result, err := factory.CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store backend",
			applog.FieldError, err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", applog.FieldError, err)
			}
		}
	}()

	mirrorClient, err := gsheet.New(ctx, cfg.MirrorSpreadsheetID, cfg.MirrorSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.MirrorSpreadsheetID,
		"sheet", cfg.MirrorSheetName)

	mirrorWorker := worker.NewMirrorWorker(result.Store, mirrorClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming transaction events",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		err := mirrorWorker.Run(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
