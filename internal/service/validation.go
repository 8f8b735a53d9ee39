package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/metrics"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type ParticipantIdentity struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"nom"`
	Email      string    `json:"email"`
	Profession string    `json:"profession"`
}

type EventIdentity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ValidationResult struct {
	Participant ParticipantIdentity `json:"participant"`
	Event       EventIdentity       `json:"event"`
	ValidatedAt time.Time           `json:"validated_at"`
}

// Validate consumes the ticket identified by token at the check-in station
// for expectedEventName. The stored ticket is authoritative; nothing decoded
// from the QR image is trusted.
func (s *Service) Validate(ctx context.Context, actor auth.Actor, token, expectedEventName string) (*ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.Validate")
	defer span.End()

	result, err := s.validate(ctx, actor, strings.TrimSpace(token), expectedEventName)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			metrics.ValidationRejections.WithLabelValues(e.Code).Inc()
		}
		return nil, err
	}
	metrics.TicketsValidated.Inc()
	return result, nil
}

func (s *Service) validate(ctx context.Context, actor auth.Actor, token, expectedEventName string) (*ValidationResult, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	ticket, err := s.store.FindTicketByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find ticket: %w", err)
	}

	event, participant, err := s.resolve(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if event.Name != expectedEventName {
		return nil, ErrEventMismatch
	}
	if !event.IsManagedBy(actor.ID, actor.Role) {
		return nil, ErrForbidden
	}
	if ticket.IsValidated {
		return nil, ErrAlreadyUsed
	}

	now := s.now().UTC()
	ok, err := s.store.MarkTicketValidated(ctx, ticket.ID, actor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mark ticket validated: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyUsed
	}

	return &ValidationResult{
		Participant: ParticipantIdentity{
			ID:         participant.ID,
			Name:       participant.Name,
			Email:      participant.Email,
			Profession: participant.Profession,
		},
		Event:       EventIdentity{ID: event.ID, Name: event.Name},
		ValidatedAt: now,
	}, nil
}

func (s *Service) resolve(ctx context.Context, ticket *models.Ticket) (*models.Event, *models.User, error) {
	event := ticket.Event
	if event == nil {
		var err error
		if event, err = s.loadEvent(ctx, ticket.EventID); err != nil {
			return nil, nil, err
		}
	}
	participant := ticket.Participant
	if participant == nil {
		var err error
		if participant, err = s.loadUser(ctx, ticket.ParticipantID); err != nil {
			return nil, nil, err
		}
	}
	return event, participant, nil
}
