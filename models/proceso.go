package models

import (
	"github.com/google/uuid"
)

type Proceso struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	NumeroProceso string    `gorm:"not null"`
}

func (Proceso) TableName() string {
	return "proceso"
}
