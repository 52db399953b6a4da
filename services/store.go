package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"autoactas-backend/models"
)

// GormStore is the postgres-backed ReminderStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the delivery audit table. The eventos, proceso and
// apoderados tables belong to the main application and are never migrated here.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.ReminderLog{})
}

func (s *GormStore) ListPendingEvents(ctx context.Context, fromDate, toDate string) ([]models.Evento, error) {
	var eventos []models.Evento
	err := s.db.WithContext(ctx).
		Model(&models.Evento{}).
		Select("id, titulo, fecha::text AS fecha, hora::text AS hora, proceso_id, recordatorio").
		Where("recordatorio = ?", false).
		Where("fecha >= ? AND fecha <= ?", fromDate, toDate).
		Where("proceso_id IS NOT NULL").
		Where("hora IS NOT NULL").
		Order("fecha, hora").
		Find(&eventos).Error
	if err != nil {
		return nil, fmt.Errorf("error querying pending eventos: %w", err)
	}
	return eventos, nil
}

func (s *GormStore) ListApoderados(ctx context.Context, procesoID uuid.UUID) ([]models.Apoderado, error) {
	var apoderados []models.Apoderado
	err := s.db.WithContext(ctx).
		Where("proceso_id = ? AND email IS NOT NULL", procesoID).
		Find(&apoderados).Error
	if err != nil {
		return nil, fmt.Errorf("error querying apoderados for proceso %s: %w", procesoID, err)
	}
	return apoderados, nil
}

func (s *GormStore) ProcesoNumero(ctx context.Context, procesoID uuid.UUID) (string, error) {
	var proceso models.Proceso
	err := s.db.WithContext(ctx).
		Select("id, numero_proceso").
		Where("id = ?", procesoID).
		Take(&proceso).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProcesoNotFound
		}
		return "", fmt.Errorf("error getting proceso %s: %w", procesoID, err)
	}
	return proceso.NumeroProceso, nil
}

func (s *GormStore) MarkReminded(ctx context.Context, eventoID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.Evento{}).
		Where("id = ?", eventoID).
		Update("recordatorio", true).Error
	if err != nil {
		return fmt.Errorf("error marking evento %s as reminded: %w", eventoID, err)
	}
	return nil
}

func (s *GormStore) ClaimReminder(ctx context.Context, eventoID uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Evento{}).
		Where("id = ? AND recordatorio = ?", eventoID, false).
		Update("recordatorio", true)
	if result.Error != nil {
		return false, fmt.Errorf("error claiming evento %s: %w", eventoID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) ReleaseReminder(ctx context.Context, eventoID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.Evento{}).
		Where("id = ? AND recordatorio = ?", eventoID, true).
		Update("recordatorio", false).Error
	if err != nil {
		return fmt.Errorf("error releasing evento %s: %w", eventoID, err)
	}
	return nil
}

func (s *GormStore) LogDelivery(ctx context.Context, entry *models.ReminderLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("error creating reminder log: %w", err)
	}
	return nil
}
