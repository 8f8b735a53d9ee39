package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name               string    `gorm:"not null" json:"name"`
	Email              string    `gorm:"unique;not null" json:"email"`
	Password           string    `gorm:"not null" json:"-"`
	Gender             string    `json:"gender,omitempty"`
	Profession         string    `json:"profession,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	RoleID             uuid.UUID `gorm:"type:uuid" json:"-"`
	Role               Role      `json:"role"`
	ParticipatedEvents []Event   `gorm:"many2many:event_participants;" json:"participated_events,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

// IsAdmin reports whether the user's loaded role is admin.
func (user *User) IsAdmin() bool {
	return user.Role.Name == RoleAdmin
}
