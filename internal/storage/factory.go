package storage

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/expense_tracker/internal/config"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
)

// Backend is a store the process owns and must close on shutdown.
type Backend interface {
	expense.Storage
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by STORAGE_DRIVER.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMySQL:
		return OpenMySQL(ctx, cfg.DatabaseDSN)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverMemory:
		return NewInMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
