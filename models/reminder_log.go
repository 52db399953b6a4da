// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	EventoID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ProcesoID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Recipients   string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string    `gorm:"type:text"`
	Channel      string    `gorm:"type:varchar(20)"` // email, sms, whatsapp
	ProviderID   string    `gorm:"type:varchar(100)"`
	SentAt       time.Time
	CreatedAt    time.Time
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
