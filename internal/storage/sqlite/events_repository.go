package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/metrics"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	db *sql.DB
}

func (r *EventRepository) List(ctx context.Context) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_list", start, dbErr(err)) }(time.Now())

	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, date, location, quota, description
  FROM events
 ORDER BY date ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_get", start, dbErr(err)) }(time.Now())

	row := r.db.QueryRowContext(ctx, `
SELECT id, title, date, location, quota, description
  FROM events
 WHERE id = ?
`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.WriteParams) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_create", start, dbErr(err)) }(time.Now())

	row := r.db.QueryRowContext(ctx, `
INSERT INTO events (title, date, location, quota, description)
VALUES (?, ?, ?, ?, ?)
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

	row := r.db.QueryRowContext(ctx, `
UPDATE events
   SET title = ?, date = ?, location = ?, quota = ?, description = ?
 WHERE id = ?
RETURNING id, title, date, location, quota, description
`, params.Title, params.Date, params.Location, params.Quota, params.Description, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events_delete", start, dbErr(err)) }(time.Now())

	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*events.Event, error) {
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
