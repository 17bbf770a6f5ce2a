package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// ProviderDirectory — справочник провайдеров, которым владеет внешняя система.
type ProviderDirectory interface {
	calendar.ProviderLookup
	// ListActiveIDs возвращает идентификаторы активных провайдеров.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindProvider возвращает (nil, nil), если провайдера нет.
func (r *GormProviderRepository) FindProvider(ctx context.Context, id uuid.UUID) (*calendar.ProviderInfo, error) {
	var p model.Provider
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, schedule.WrapStore("find provider", err)
	}
	return &calendar.ProviderInfo{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		IsActive:    p.IsActive,
	}, nil
}

func (r *GormProviderRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Provider{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, schedule.WrapStore("list active providers", err)
	}
	return ids, nil
}
