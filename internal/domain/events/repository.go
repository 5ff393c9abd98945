package events

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("event not found")

// Event is a campus event with a fixed participant quota.
type Event struct {
	ID          int64
	Title       string
	Date        string
	Location    string
	Quota       int
	Description string
}

// WriteParams carries the mutable fields of an event.
type WriteParams struct {
	Title       string
	Date        string
	Location    string
	Quota       int
	Description string
}

// Repository persists events. List orders by date ascending, then id.
// Update and Delete return ErrNotFound when no row matches.
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, params WriteParams) (*Event, error)
	Update(ctx context.Context, id int64, params WriteParams) (*Event, error)
	Delete(ctx context.Context, id int64) error
}
