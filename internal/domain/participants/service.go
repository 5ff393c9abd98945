package participants

import (
	"context"
	"errors"
	"strings"

	"github.com/kampuskuevent/server/internal/domain/events"
	"github.com/kampuskuevent/server/internal/telemetry"
	"github.com/kampuskuevent/server/internal/validation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Input is the public registration body.
type Input struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	EventID *int64 `json:"event_id" validate:"required"`
}

// EventLookup resolves an event by id.
type EventLookup interface {
	GetByID(ctx context.Context, id int64) (*events.Event, error)
}

type Service struct {
	repo      Repository
	events    EventLookup
	admit     Admission
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewService(repo Repository, lookup EventLookup, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		events:    lookup,
		admit:     Admit,
		validator: validation.New(),
		logger:    logger.With().Str("component", "participants").Logger(),
	}
}

func (s *Service) List(ctx context.Context) ([]Participant, error) {
	return s.repo.List(ctx)
}

// ListByEvent returns events.ErrNotFound when the event does not exist.
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]Participant, error) {
	if eventID <= 0 {
		return nil, events.ErrNotFound
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

// Register admits a participant if the event exists and has a free seat.
func (s *Service) Register(ctx context.Context, input Input) (*Participant, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	params := RegisterParams{
		Name:    input.Name,
		Email:   input.Email,
		EventID: *input.EventID,
	}
	if params.EventID <= 0 {
		return nil, events.ErrNotFound
	}

	ctx, span := telemetry.StartSpan(ctx, "participants.register", attribute.Int64("event.id", params.EventID))
	defer span.End()

	participant, err := s.repo.Register(ctx, params, s.admit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrCapacityExceeded) {
			s.logger.Info().Int64("event_id", params.EventID).Msg("registration rejected: quota full")
		}
		return nil, err
	}
	s.logger.Info().
		Int64("event_id", participant.EventID).
		Int64("participant_id", participant.ID).
		Msg("participant registered")
	return participant, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("participant_id", id).Msg("participant deleted")
	return nil
}
