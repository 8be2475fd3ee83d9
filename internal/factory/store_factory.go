package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/store"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
)

// StoreFactory creates conversation stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a conversation store based on the configuration
func (f *StoreFactory) CreateStore(ctx context.Context) (core.ConversationStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "json":
		return f.CreateJSONStore(storeCfg.JSONPath), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		sqliteStore, err := store.NewSQLiteStore(ctx, storeCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		return sqliteStore, nil
	case "mysql":
		mysqlStore, err := store.NewMySQLStore(ctx, storeCfg.MySQLDSN, f.logger)
		if err != nil {
			return nil, err
		}
		return mysqlStore, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

// CreateJSONStore creates a JSON file store for an explicit path
func (f *StoreFactory) CreateJSONStore(path string) *store.JSONFileStore {
	return store.NewJSONFileStore(path, f.logger)
}
