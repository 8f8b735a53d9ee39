package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Type         string     `json:"type,omitempty"`
	StartDate    time.Time  `gorm:"not null" json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Time         string     `json:"time,omitempty"`
	City         string     `gorm:"not null" json:"city"`
	Neighborhood string     `json:"neighborhood,omitempty"`
	Country      string     `json:"country,omitempty"`
	Description  string     `gorm:"not null" json:"description"`
	Price        int        `gorm:"not null;default:0" json:"price"`
	QROption     bool       `gorm:"column:qr_option;not null;default:false" json:"qr_option"`
	OrganizerID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"organizer_id"`
	Organizer    *User      `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	CategoryID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"category_id"`
	Category     *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Participants []User     `gorm:"many2many:event_participants;" json:"participants,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// IsManagedBy reports whether the user may administer the event: its
// organizer or any admin.
func (event *Event) IsManagedBy(userID uuid.UUID, role string) bool {
	return event.OrganizerID == userID || role == RoleAdmin
}

// EventParticipant is the roster join row. One row records both the event's
// participant and the user's participated event.
type EventParticipant struct {
	EventID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func (EventParticipant) TableName() string {
	return "event_participants"
}
