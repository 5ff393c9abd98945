package events

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kampuskuevent/server/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	createFn func(ctx context.Context, params WriteParams) (*Event, error)
	updateFn func(ctx context.Context, id int64, params WriteParams) (*Event, error)
	deleteFn func(ctx context.Context, id int64) error
	getFn    func(ctx context.Context, id int64) (*Event, error)
	calls    int
}

func (s *stubRepo) List(context.Context) ([]Event, error) {
	s.calls++
	return []Event{}, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*Event, error) {
	s.calls++
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, params WriteParams) (*Event, error) {
	s.calls++
	if s.createFn != nil {
		return s.createFn(ctx, params)
	}
	return &Event{ID: 1, Title: params.Title, Date: params.Date, Location: params.Location, Quota: params.Quota, Description: params.Description}, nil
}

func (s *stubRepo) Update(ctx context.Context, id int64, params WriteParams) (*Event, error) {
	s.calls++
	if s.updateFn != nil {
		return s.updateFn(ctx, id, params)
	}
	return nil, ErrNotFound
}

func (s *stubRepo) Delete(ctx context.Context, id int64) error {
	s.calls++
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return ErrNotFound
}

func intPtr(v int) *int { return &v }

func validInput() Input {
	return Input{Title: "Seminar AI", Date: "2025-03-01", Location: "Aula", Quota: intPtr(2)}
}

func TestCreateTrimsAndPersists(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, zerolog.Nop())

	input := validInput()
	input.Title = "  Seminar AI "
	event, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, int64(1), event.ID)
	require.Equal(t, "Seminar AI", event.Title)
	require.Equal(t, 2, event.Quota)
	require.Equal(t, "", event.Description)
}

func TestCreateValidationSkipsStorage(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Create(context.Background(), Input{Title: "   ", Quota: intPtr(-1)})

	require.Error(t, err)
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "title")
	require.Contains(t, verr.Fields, "date")
	require.Contains(t, verr.Fields, "location")
	require.Contains(t, verr.Fields, "quota")
	require.Zero(t, repo.calls)
}

func TestCreateMissingQuota(t *testing.T) {
	svc := NewService(&stubRepo{}, zerolog.Nop())

	input := validInput()
	input.Quota = nil
	_, err := svc.Create(context.Background(), input)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "is required", verr.Fields["quota"])
}

func TestCreateAllowsZeroQuota(t *testing.T) {
	svc := NewService(&stubRepo{}, zerolog.Nop())

	input := validInput()
	input.Quota = intPtr(0)
	event, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, 0, event.Quota)
}

func TestCreateRejectsQuotaBeyondInt32(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, zerolog.Nop())

	input := validInput()
	input.Quota = intPtr(math.MaxInt32 + 1)
	_, err := svc.Create(context.Background(), input)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "must be less than or equal to 2147483647", verr.Fields["quota"])
	require.Zero(t, repo.calls)

	input.Quota = intPtr(math.MaxInt32)
	event, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, math.MaxInt32, event.Quota)
}

func TestUpdatePassesThroughNotFound(t *testing.T) {
	svc := NewService(&stubRepo{}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 99, validInput())

	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesFields(t *testing.T) {
	repo := &stubRepo{
		updateFn: func(_ context.Context, id int64, params WriteParams) (*Event, error) {
			return &Event{ID: id, Title: params.Title, Date: params.Date, Location: params.Location, Quota: params.Quota}, nil
		},
	}
	svc := NewService(repo, zerolog.Nop())

	input := validInput()
	input.Quota = intPtr(1)
	event, err := svc.Update(context.Background(), 7, input)

	require.NoError(t, err)
	require.Equal(t, int64(7), event.ID)
	require.Equal(t, 1, event.Quota)
}

func TestNonPositiveIDsAreNotFound(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Get(ctx, 0)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, -1, validInput())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 0), ErrNotFound)
	require.Zero(t, repo.calls)
}

func TestDeleteStorageError(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&stubRepo{deleteFn: func(context.Context, int64) error { return boom }}, zerolog.Nop())

	require.ErrorIs(t, svc.Delete(context.Background(), 3), boom)
}
