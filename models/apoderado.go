package models

import (
	"github.com/google/uuid"
)

// Apoderado is a party's representative on a proceso and the person who
// receives event reminders.
type Apoderado struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Nombre    string    `gorm:"not null"`
	Email     *string
	Telefono  *string
	ProcesoID *uuid.UUID `gorm:"type:uuid;index"`
}

func (Apoderado) TableName() string {
	return "apoderados"
}
