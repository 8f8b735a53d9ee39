package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket binds a QR token to one (event, participant) pair. The token is the
// only lookup key used at check-in.
type Ticket struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	EventID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_event_participant" json:"event_id"`
	Event         *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	ParticipantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_event_participant" json:"participant_id"`
	Participant   *User      `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	QRCodeImage   string     `gorm:"column:qr_code_image;type:text;not null" json:"qr_code_image"`
	QRCodeToken   string     `gorm:"column:qr_code_token;not null;uniqueIndex" json:"-"`
	IsValidated   bool       `gorm:"column:is_validated;not null;default:false" json:"is_validated"`
	ValidatedByID *uuid.UUID `gorm:"column:validated_by;type:uuid" json:"validated_by,omitempty"`
	ValidatedAt   *time.Time `gorm:"column:validated_at" json:"validated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
