package backend

import (
	"context"
	"fmt"

	applog "fintrack/internal/log"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryStore()
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryStore() (*Result, error) {
	s := memory.New()

	f.logger.Info("Initialized memory store")

	return &Result{Store: s, Cleanup: nil}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*Result, error) {
	s, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
	}

	f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)

	return &Result{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (*Result, error) {
	s, err := postgres.New(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres store")

	return &Result{Store: s, Cleanup: s.Close}, nil
}
