package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

type SlotEventRepository interface {
	// Append пишет событие аудита.
	Append(ctx context.Context, ev *model.SlotEvent) error
	// ListByProvider — последние события провайдера, новые первыми.
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]model.SlotEvent, error)
}

type GormSlotEventRepository struct {
	db *gorm.DB
}

func NewGormSlotEventRepository(db *gorm.DB) *GormSlotEventRepository {
	return &GormSlotEventRepository{db: db}
}

func (r *GormSlotEventRepository) Append(ctx context.Context, ev *model.SlotEvent) error {
	return schedule.WrapStore("append event", r.db.WithContext(ctx).Create(ev).Error)
}

func (r *GormSlotEventRepository) ListByProvider(
	ctx context.Context,
	providerID uuid.UUID,
	limit int,
) ([]model.SlotEvent, error) {
	var events []model.SlotEvent
	q := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, schedule.WrapStore("list events", err)
	}
	return events, nil
}
