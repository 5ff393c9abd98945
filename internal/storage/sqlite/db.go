// Package sqlite is the embedded storage backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
	_ "modernc.org/sqlite"
)

// Store persists events and participants in a single SQLite file.
type Store struct {
	db           *sql.DB
	events       *EventRepository
	participants *ParticipantRepository
}

// Open opens the database at dsn (for example "file:kampuskuevent.db").
// Writes are serialized through one connection and every transaction takes
// the write lock up front.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{
		db:           db,
		events:       &EventRepository{db: db},
		participants: &ParticipantRepository{db: db},
	}, nil
}

func withPragmas(dsn string) string {
	params := []string{
		"_txlock=immediate",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func (s *Store) Events() events.Repository {
	return s.events
}

func (s *Store) Participants() participants.Repository {
	return s.participants
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) PoolStats() metrics.PoolStats {
	stat := s.db.Stats()
	return metrics.PoolStats{
		Open:    stat.OpenConnections,
		InUse:   stat.InUse,
		Idle:    stat.Idle,
		MaxOpen: stat.MaxOpenConnections,
	}
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
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
