package main

import (
	"context"
	"fmt"

	"github.com/yourusername/todo-api/internal/config"
	"github.com/yourusername/todo-api/internal/store"
	"github.com/yourusername/todo-api/internal/store/redisstore"
	"github.com/yourusername/todo-api/internal/store/sqlite"
)

// openStore は STORAGE_DRIVER に応じたストアを開きます。
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverRedis:
		st, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
