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
	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
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

	var tokens session.TokenStore
	if cfg.RedisURL != "" {
		redisTokens, err := session.NewRedisTokenStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", applog.FieldError, err)
			os.Exit(1)
		}
		defer redisTokens.Close()
		tokens = redisTokens
		logger.Info("Using Redis session store")
	} else {
		memTokens := session.NewMemoryTokenStore()
		defer memTokens.Stop()
		tokens = memTokens
		logger.Info("Using in-process session store")
	}
	sessions := session.NewManager(result.Store, tokens, cfg.SessionTTL)

	opts := apphttp.Options{
		Logger:            logger.WithComponent(applog.ComponentHTTP),
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
	if cfg.AMQPURL != "" {
		bus, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer bus.Close()
		opts.Bus = bus
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, sessions, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
