package participants

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("participant not found")

	// ErrCapacityExceeded is returned when an event has no free seats.
	ErrCapacityExceeded = errors.New("event quota full")
)

type Participant struct {
	ID      int64
	Name    string
	Email   string
	EventID int64
}

type RegisterParams struct {
	Name    string
	Email   string
	EventID int64
}

// Repository persists participants.
//
// Register must read the event quota and the current participant count,
// call admit, and insert, all within one transaction that holds the event
// row against concurrent registrations. It returns events.ErrNotFound when
// the event does not exist and whatever admit returns when it rejects.
type Repository interface {
	List(ctx context.Context) ([]Participant, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Participant, error)
	Register(ctx context.Context, params RegisterParams, admit Admission) (*Participant, error)
	Delete(ctx context.Context, id int64) error
}
