package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
)

var _ participants.Repository = (*ParticipantRepository)(nil)

type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func (r *ParticipantRepository) List(ctx context.Context) (_ []participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_list", start, dbErr(err)) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT id, name, email, event_id
  FROM participants
 ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[participants.Participant])
	if err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	return items, nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) (_ []participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_list_by_event", start, dbErr(err)) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT id, name, email, event_id
  FROM participants
 WHERE event_id = $1
 ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants by event: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[participants.Participant])
	if err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	return items, nil
}

// Register locks the event row so concurrent registrations for the same
// event see each other's inserts before counting.
func (r *ParticipantRepository) Register(ctx context.Context, params participants.RegisterParams, admit participants.Admission) (_ *participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_register", start, dbErr(err)) }(time.Now())

	var created participants.Participant
	err = withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var quota int
		if err := tx.QueryRow(ctx, `SELECT quota FROM events WHERE id = $1 FOR UPDATE`, params.EventID).Scan(&quota); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return events.ErrNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM participants WHERE event_id = $1`, params.EventID).Scan(&count); err != nil {
			return fmt.Errorf("count participants: %w", err)
		}

		if err := admit(quota, count); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
INSERT INTO participants (name, email, event_id)
VALUES ($1, $2, $3)
RETURNING id, name, email, event_id
`, params.Name, params.Email, params.EventID).Scan(
			&created.ID,
			&created.Name,
			&created.Email,
			&created.EventID,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_delete", start, dbErr(err)) }(time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return participants.ErrNotFound
	}
	return nil
}
