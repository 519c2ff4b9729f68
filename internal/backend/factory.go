package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateSnapshotStore implements Factory.CreateSnapshotStore
func (f *DefaultFactory) CreateSnapshotStore(_ context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileStore(config)
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileStore(config Config) (*Result, error) {
	fs, err := storage.NewFileStore(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize file store: %w", err)
	}

	f.logger.Info("Initialized file snapshot backend",
		"path", fs.Path())

	return &Result{Store: fs, Cleanup: nil}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*Result, error) {
	st, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite snapshot backend",
		"db_path", config.SQLiteDBPath)

	return &Result{Store: st, Cleanup: st.Close}, nil
}
