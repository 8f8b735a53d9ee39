package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrevent/qrevent/internal/models"
)

type EventFilter struct {
	City        string
	CategoryID  *uuid.UUID
	OrganizerID *uuid.UUID
}

func (f EventFilter) apply(query *gorm.DB) *gorm.DB {
	if f.City != "" {
		query = query.Where("city = ?", f.City)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.OrganizerID != nil {
		query = query.Where("organizer_id = ?", *f.OrganizerID)
	}
	return query
}

// ListEvents returns one page of events ordered by start date and the total
// number of matching events.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter, page, limit int) ([]models.Event, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := filter.apply(db.Model(&models.Event{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.Event
	offset := (page - 1) * limit
	err := filter.apply(db.Model(&models.Event{})).
		Preload("Organizer").Preload("Category").
		Offset(offset).Limit(limit).Order("start_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// GetEventDetail loads an event with its organizer, category and roster.
func (s *Store) GetEventDetail(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Category").
		Preload("Participants").
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	return translate(s.db.WithContext(ctx).Omit("Participants", "Organizer", "Category").Create(event).Error)
}

func (s *Store) SaveEvent(ctx context.Context, event *models.Event) error {
	return translate(s.db.WithContext(ctx).Omit("Participants", "Organizer", "Category").Save(event).Error)
}

// DeleteEvent removes an event together with its tickets and roster rows.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ParticipatedEvents lists the events a user is registered for.
func (s *Store) ParticipatedEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("Category").
		Joins("JOIN event_participants ON event_participants.event_id = events.id").
		Where("event_participants.user_id = ?", userID).
		Order("events.start_date ASC").
		Find(&events).Error
	return events, err
}

// OrganizerEvents lists the events created by organizerID with their roster.
func (s *Store) OrganizerEvents(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Participants").
		Where("organizer_id = ?", organizerID).
		Order("start_date DESC").
		Find(&events).Error
	return events, err
}
