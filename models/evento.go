package models

import (
	"github.com/google/uuid"
)

// Evento is a scheduled occurrence on the calendar, optionally tied to a
// proceso. Fecha and Hora are read as text ("2006-01-02", "15:04:05") so the
// civil date and time are never shifted by the driver.
type Evento struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	Titulo       string     `gorm:"not null"`
	Fecha        string     `gorm:"type:date;not null"`
	Hora         *string    `gorm:"type:time"`
	ProcesoID    *uuid.UUID `gorm:"type:uuid;index"`
	Recordatorio bool       `gorm:"default:false"`
}

func (Evento) TableName() string {
	return "eventos"
}
