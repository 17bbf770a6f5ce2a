package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

type ScheduleSettingsRepository interface {
	// Get возвращает настройки окна или schedule.ErrNotFound.
	Get(ctx context.Context, providerID uuid.UUID) (*model.ScheduleSettings, error)
	// Save создаёт или полностью перезаписывает настройки провайдера.
	Save(ctx context.Context, settings *model.ScheduleSettings) error
	// ListDue — настройки с автопродлением, у которых NextRenewalDate <= today.
	ListDue(ctx context.Context, today string) ([]model.ScheduleSettings, error)
}

type GormScheduleSettingsRepository struct {
	db *gorm.DB
}

func NewGormScheduleSettingsRepository(db *gorm.DB) *GormScheduleSettingsRepository {
	return &GormScheduleSettingsRepository{db: db}
}

func (r *GormScheduleSettingsRepository) Get(ctx context.Context, providerID uuid.UUID) (*model.ScheduleSettings, error) {
	var s model.ScheduleSettings
	err := r.db.WithContext(ctx).First(&s, "provider_id = ?", providerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, schedule.WrapStore("get schedule settings", err)
	}
	return &s, nil
}

func (r *GormScheduleSettingsRepository) Save(ctx context.Context, settings *model.ScheduleSettings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"window_length_days", "auto_renew_enabled", "renewal_advance_days",
				"window_start_date", "window_end_date",
				"last_renewal_date", "next_renewal_date",
				"updated_at",
			}),
		}).
		Create(settings).Error
	return schedule.WrapStore("save schedule settings", err)
}

func (r *GormScheduleSettingsRepository) ListDue(ctx context.Context, today string) ([]model.ScheduleSettings, error) {
	var due []model.ScheduleSettings
	err := r.db.WithContext(ctx).
		Where("auto_renew_enabled = ?", true).
		Where("next_renewal_date <> '' AND next_renewal_date <= ?", today).
		Order("next_renewal_date ASC").
		Find(&due).Error
	if err != nil {
		return nil, schedule.WrapStore("list due settings", err)
	}
	return due, nil
}
