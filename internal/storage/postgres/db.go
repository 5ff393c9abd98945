package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
)

// Store is the PostgreSQL storage backend.
type Store struct {
	pool         *pgxpool.Pool
	events       *EventRepository
	participants *ParticipantRepository
}

// Open connects a pool to databaseURL and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewStore(pool)
}

func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Store{
		pool:         pool,
		events:       &EventRepository{pool: pool},
		participants: &ParticipantRepository{pool: pool},
	}, nil
}

func (s *Store) Events() events.Repository {
	return s.events
}

func (s *Store) Participants() participants.Repository {
	return s.participants
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) MigrateUp() error {
	return MigrateUp(s.pool.Config().ConnString())
}

func (s *Store) MigrateDown(steps int) error {
	return MigrateDown(s.pool.Config().ConnString(), steps)
}

func (s *Store) MigrationVersion() (uint, bool, error) {
	return MigrationVersion(s.pool.Config().ConnString())
}

// PoolStats reports pgxpool connection counts for the metrics collector.
func (s *Store) PoolStats() metrics.PoolStats {
	stat := s.pool.Stat()
	return metrics.PoolStats{
		Open:    int(stat.TotalConns()),
		InUse:   int(stat.AcquiredConns()),
		Idle:    int(stat.IdleConns()),
		MaxOpen: int(stat.MaxConns()),
	}
}

// withTx runs fn in a transaction, rolling back on any error.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// dbErr drops domain outcomes so only storage failures count as query errors.
func dbErr(err error) error {
	switch {
	case err == nil,
		errors.Is(err, events.ErrNotFound),
		errors.Is(err, participants.ErrNotFound),
		errors.Is(err, participants.ErrCapacityExceeded):
		return nil
	}
	return err
}
