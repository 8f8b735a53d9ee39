package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/ticketing"
)

// Store is the persistence the workflows need. Implementations report
// absence with store.ErrNotFound and uniqueness violations with
// store.ErrDuplicate or store.ErrTokenCollision.
type Store interface {
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	IsParticipant(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error
	// RemoveParticipant drops the roster row and any ticket for the pair.
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error

	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	FindTicket(ctx context.Context, eventID, participantID uuid.UUID) (*models.Ticket, error)
	// FindTicketByToken loads the ticket with its Event and Participant.
	FindTicketByToken(ctx context.Context, token string) (*models.Ticket, error)
	// MarkTicketValidated flips is_validated only if it is still false and
	// reports whether this call performed the transition.
	MarkTicketValidated(ctx context.Context, ticketID, validatorID uuid.UUID, at time.Time) (bool, error)
}

type TokenSource interface {
	Generate() (string, error)
}

type ImageEncoder interface {
	Encode(token string, event ticketing.EventSummary, participant ticketing.ParticipantSummary) (string, error)
}
