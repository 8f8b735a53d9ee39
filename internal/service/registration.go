package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/metrics"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
	"github.com/qrevent/qrevent/internal/ticketing"
)

// maxTokenAttempts bounds regeneration after a token uniqueness violation.
const maxTokenAttempts = 3

// FormOverrides are the participant details printed on the ticket. Empty
// fields fall back to the participant's profile.
type FormOverrides struct {
	Name       string `json:"nom"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
}

type RegistrationResult struct {
	EventID       uuid.UUID
	ParticipantID uuid.UUID
	Ticket        *models.Ticket
}

// Register enrolls the acting user in the event and issues a ticket when the
// event has ticketing enabled.
//
// If the roster write succeeds but ticket issuance fails, the participant
// stays registered and the returned error wraps ErrTicketingFailed; the
// result is still returned so callers can report the partial success.
// IssueTicket is the retry path.
func (s *Service) Register(ctx context.Context, actor auth.Actor, eventID uuid.UUID, form FormOverrides) (*RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.Register")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID.String()))

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	participant, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.enroll(ctx, event, participant, form)
}

// AddParticipant is Register performed by the event's organizer or an admin
// on behalf of another user.
func (s *Service) AddParticipant(ctx context.Context, actor auth.Actor, eventID, participantID uuid.UUID) (*RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.AddParticipant")
	defer span.End()

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsManagedBy(actor.ID, actor.Role) {
		return nil, ErrForbidden
	}
	participant, err := s.loadUser(ctx, participantID)
	if err != nil {
		return nil, err
	}
	return s.enroll(ctx, event, participant, FormOverrides{})
}

func (s *Service) enroll(ctx context.Context, event *models.Event, participant *models.User, form FormOverrides) (*RegistrationResult, error) {
	registered, err := s.store.IsParticipant(ctx, event.ID, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("check roster: %w", err)
	}
	if registered {
		return nil, ErrAlreadyRegistered
	}

	if err := s.store.AddParticipant(ctx, event.ID, participant.ID); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("add participant: %w", err)
	}
	metrics.Registrations.Inc()

	result := &RegistrationResult{EventID: event.ID, ParticipantID: participant.ID}
	if !event.QROption {
		return result, nil
	}

	ticket, err := s.issue(ctx, event, participant, form)
	if err != nil {
		metrics.TicketingFailures.Inc()
		return result, fmt.Errorf("%w: %w", ErrTicketingFailed, err)
	}
	result.Ticket = ticket
	return result, nil
}

// IssueTicket returns the acting user's ticket for the event, creating it
// if registration went through without one.
func (s *Service) IssueTicket(ctx context.Context, actor auth.Actor, eventID uuid.UUID, form FormOverrides) (*models.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "service.IssueTicket")
	defer span.End()

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.QROption {
		return nil, ErrTicketingDisabled
	}
	participant, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	registered, err := s.store.IsParticipant(ctx, event.ID, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("check roster: %w", err)
	}
	if !registered {
		return nil, ErrNotRegistered
	}

	existing, err := s.store.FindTicket(ctx, event.ID, participant.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find ticket: %w", err)
	}

	ticket, err := s.issue(ctx, event, participant, form)
	if err != nil {
		metrics.TicketingFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrTicketingFailed, err)
	}
	return ticket, nil
}

func (s *Service) issue(ctx context.Context, event *models.Event, participant *models.User, form FormOverrides) (*models.Ticket, error) {
	summary := ticketing.ParticipantSummary{
		ID:         participant.ID,
		Name:       firstNonEmpty(form.Name, participant.Name),
		Email:      firstNonEmpty(form.Email, participant.Email),
		Profession: firstNonEmpty(form.Profession, participant.Profession),
	}
	eventSummary := ticketing.EventSummary{ID: event.ID, Name: event.Name}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return nil, err
		}
		image, err := s.encoder.Encode(token, eventSummary, summary)
		if err != nil {
			return nil, err
		}

		ticket := &models.Ticket{
			EventID:       event.ID,
			ParticipantID: participant.ID,
			QRCodeImage:   image,
			QRCodeToken:   token,
		}
		err = s.store.CreateTicket(ctx, ticket)
		switch {
		case err == nil:
			metrics.TicketsIssued.Inc()
			return ticket, nil
		case errors.Is(err, store.ErrTokenCollision):
			continue
		case errors.Is(err, store.ErrDuplicate):
			return s.store.FindTicket(ctx, event.ID, participant.ID)
		default:
			return nil, fmt.Errorf("create ticket: %w", err)
		}
	}
	return nil, fmt.Errorf("token collision after %d attempts", maxTokenAttempts)
}

// Unregister removes the acting user from the event. Removing an absent
// registration is not an error.
func (s *Service) Unregister(ctx context.Context, actor auth.Actor, eventID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "service.Unregister")
	defer span.End()

	if err := s.store.RemoveParticipant(ctx, eventID, actor.ID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

// RemoveParticipant is Unregister performed by the organizer or an admin.
func (s *Service) RemoveParticipant(ctx context.Context, actor auth.Actor, eventID, participantID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "service.RemoveParticipant")
	defer span.End()

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.IsManagedBy(actor.ID, actor.Role) {
		return ErrForbidden
	}
	if err := s.store.RemoveParticipant(ctx, eventID, participantID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
