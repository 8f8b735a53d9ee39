package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

const tracerName = "github.com/qrevent/qrevent/internal/service"

// Service runs the registration and check-in workflows.
type Service struct {
	store   Store
	tokens  TokenSource
	encoder ImageEncoder
	now     func() time.Time
	tracer  trace.Tracer
}

type Option func(*Service)

// WithClock overrides the time source used for validatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st Store, tokens TokenSource, encoder ImageEncoder, opts ...Option) *Service {
	s := &Service{
		store:   st,
		tokens:  tokens,
		encoder: encoder,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) loadEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.FindEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", id, err)
	}
	return event, nil
}

func (s *Service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}
