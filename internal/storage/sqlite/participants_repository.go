package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/domain/participants"
	"github.com/kampuskuevent/server/internal/metrics"
)

var _ participants.Repository = (*ParticipantRepository)(nil)

type ParticipantRepository struct {
	db *sql.DB
}

func (r *ParticipantRepository) List(ctx context.Context) (_ []participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_list", start, dbErr(err)) }(time.Now())

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email, event_id
  FROM participants
 ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return collectParticipants(rows)
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) (_ []participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_list_by_event", start, dbErr(err)) }(time.Now())

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email, event_id
  FROM participants
 WHERE event_id = ?
 ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants by event: %w", err)
	}
	return collectParticipants(rows)
}

// Register runs in an immediate transaction, so the quota read, the count
// and the insert hold the database write lock together.
func (r *ParticipantRepository) Register(ctx context.Context, params participants.RegisterParams, admit participants.Admission) (_ *participants.Participant, err error) {
	defer func(start time.Time) { metrics.RecordQuery("participants_register", start, dbErr(err)) }(time.Now())

	var created participants.Participant
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		var quota int
		if err := tx.QueryRowContext(ctx, `SELECT quota FROM events WHERE id = ?`, params.EventID).Scan(&quota); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return events.ErrNotFound
			}
			return fmt.Errorf("read event quota: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE event_id = ?`, params.EventID).Scan(&count); err != nil {
			return fmt.Errorf("count participants: %w", err)
		}

		if err := admit(quota, count); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, `
INSERT INTO participants (name, email, event_id)
VALUES (?, ?, ?)
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

	res, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if affected == 0 {
		return participants.ErrNotFound
	}
	return nil
}

func collectParticipants(rows *sql.Rows) ([]participants.Participant, error) {
	defer rows.Close()

	items := make([]participants.Participant, 0)
	for rows.Next() {
		var p participants.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.EventID); err != nil {
			return nil, fmt.Errorf("scan participants: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return items, nil
}
