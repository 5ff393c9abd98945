package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/metrics"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

func (r *EventRepository) List(ctx context.Context) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_list", start, dbErr(err)) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT id, title, date, location, quota, description
  FROM events
 ORDER BY date ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[events.Event])
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_get", start, dbErr(err)) }(time.Now())

	row := r.pool.QueryRow(ctx, `
SELECT id, title, date, location, quota, description
  FROM events
 WHERE id = $1
`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.WriteParams) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_create", start, dbErr(err)) }(time.Now())

	row := r.pool.QueryRow(ctx, `
INSERT INTO events (title, date, location, quota, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, title, date, location, quota, description
`, params.Title, params.Date, params.Location, params.Quota, params.Description)
	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, params events.WriteParams) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_update", start, dbErr(err)) }(time.Now())

	row := r.pool.QueryRow(ctx, `
UPDATE events
   SET title = $2, date = $3, location = $4, quota = $5, description = $6
 WHERE id = $1
RETURNING id, title, date, location, quota, description
`, id, params.Title, params.Date, params.Location, params.Quota, params.Description)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_delete", start, dbErr(err)) }(time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.Location,
		&event.Quota,
		&event.Description,
	); err != nil {
		return nil, err
	}
	return &event, nil
}
