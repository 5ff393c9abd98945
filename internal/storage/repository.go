package storage

import (
	"context"
	"fmt"

	"github.com/kampuskuevent/server/internal/config"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/kampuskuevent/server/internal/storage/postgres"
	"github.com/kampuskuevent/server/internal/storage/sqlite"
)

// Store groups data access by domain behind one storage backend.
type Store interface {
	Events() events.Repository
	Participants() participants.Repository

	Ping(ctx context.Context) error
	MigrateUp() error
	MigrateDown(steps int) error
	MigrationVersion() (version uint, dirty bool, err error)
	PoolStats() metrics.PoolStats
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.URL, cfg.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
