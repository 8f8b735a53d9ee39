package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrevent/qrevent/internal/models"
)

func (s *Store) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *Store) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) IsParticipant(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddParticipant writes the single roster row shared by both sides of the
// event/participant relationship. The composite key rejects a concurrent
// duplicate with ErrDuplicate.
func (s *Store) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	row := models.EventParticipant{EventID: eventID, UserID: userID}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("event_id = ? AND participant_id = ?", eventID, userID).Delete(&models.Ticket{}).Error
	})
}

// CreateTicket inserts ticket. A uniqueness violation is reported as
// ErrDuplicate when the pair already holds a ticket and as
// ErrTokenCollision otherwise.
func (s *Store) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	err := s.db.WithContext(ctx).Create(ticket).Error
	if err == nil {
		return nil
	}
	if !isDuplicate(err) {
		return err
	}
	if _, findErr := s.FindTicket(ctx, ticket.EventID, ticket.ParticipantID); findErr == nil {
		return ErrDuplicate
	}
	return ErrTokenCollision
}

func (s *Store) FindTicket(ctx context.Context, eventID, participantID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND participant_id = ?", eventID, participantID).
		First(&ticket).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *Store) FindTicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Participant").
		Where("qr_code_token = ?", token).
		First(&ticket).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

// MarkTicketValidated performs the one-way Issued -> Validated transition as
// a single conditional UPDATE, so concurrent scans of one token see exactly
// one success.
func (s *Store) MarkTicketValidated(ctx context.Context, ticketID, validatorID uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND is_validated = ?", ticketID, false).
		Updates(map[string]any{
			"is_validated": true,
			"validated_by": validatorID,
			"validated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListEventTickets returns the tickets of an event with their participants.
func (s *Store) ListEventTickets(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Participant").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

// ParticipantTickets returns a user's tickets with their events.
func (s *Store) ParticipantTickets(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Category").
		Where("participant_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}
