package kv

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/db"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and configures a driver.
type Config struct {
	Driver     string
	PGDSN      string
	RedisAddr  string
	SQLitePath string
	KeyPrefix  string
}

// Open constructs the adapter selected by cfg.Driver and verifies connectivity.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.KeyPrefix), nil
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store := NewPostgres(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("kv: unsupported driver %q", cfg.Driver)
	}
}
