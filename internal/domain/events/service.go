package events

import (
	"context"
	"strings"

	"github.com/kampuskuevent/server/internal/validation"
	"github.com/rs/zerolog"
)

// Input is the request body accepted for creating or replacing an event.
type Input struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Quota       *int   `json:"quota" validate:"required,gte=0,lte=2147483647"`
	Description string `json:"description"`
}

func (in Input) normalized() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	in.Location = strings.TrimSpace(in.Location)
	return in
}

func (in Input) params() WriteParams {
	return WriteParams{
		Title:       in.Title,
		Date:        in.Date,
		Location:    in.Location,
		Quota:       *in.Quota,
		Description: in.Description,
	}
}

type Service struct {
	repo      Repository
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validation.New(),
		logger:    logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Validate normalizes input and reports field failures as *validation.Error.
func (s *Service) Validate(input Input) (WriteParams, error) {
	input = input.normalized()
	if err := s.validator.Struct(input); err != nil {
		return WriteParams{}, err
	}
	return input.params(), nil
}

func (s *Service) Create(ctx context.Context, input Input) (*Event, error) {
	params, err := s.Validate(input)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("event_id", event.ID).Int("quota", event.Quota).Msg("event created")
	return event, nil
}

// Update replaces every mutable field. Lowering the quota below the current
// participant count leaves existing registrations in place.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Event, error) {
	params, err := s.Validate(input)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrNotFound
	}
	event, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("event_id", event.ID).Int("quota", event.Quota).Msg("event updated")
	return event, nil
}

// Delete removes the event only. Participants that referenced it are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("event_id", id).Msg("event deleted")
	return nil
}
