// Package backend builds the storage and artifact backends selected by
// configuration.
package backend

import (
	"context"
	"fmt"

	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// Type names an expense store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Stores is an opened expense store with its preference KV.
type Stores struct {
	Expenses    storage.ExpenseStore
	Preferences storage.KV
	// Ready reports whether the store can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory opens backends from the application configuration.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// OpenStores opens the expense store named by cfg.DataBackend.
func (f *Factory) OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	switch t := Type(cfg.DataBackend); t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Stores{
			Expenses:    repo,
			Preferences: repo.Preferences(),
			Ready:       repo.Ping,
			Cleanup:     repo.Close,
		}, nil
	case Memory:
		f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart")
		return &Stores{
			Expenses:    memory.New(),
			Preferences: memory.NewKV(),
			Ready:       func(context.Context) error { return nil },
			Cleanup:     func() error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}
