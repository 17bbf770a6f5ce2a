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

const insertBatchSize = 200

type SlotRepository interface {
	// InsertIfAbsent вставляет слоты, пропуская уже существующие ключи
	// (provider_id, date, time). Существующие строки, в том числе booked,
	// никогда не перезаписываются. Возвращает число реально вставленных.
	InsertIfAbsent(ctx context.Context, slots []model.Slot) (int64, error)
	// MarkBooked: available -> booked одним условным UPDATE.
	// Если слот не найден или не свободен — schedule.ErrConflict.
	MarkBooked(ctx context.Context, providerID uuid.UUID, date, clock, appointmentID string) error
	// MarkAvailable: booked -> available. Иначе schedule.ErrNotFound.
	MarkAvailable(ctx context.Context, providerID uuid.UUID, date, clock string) error
	// ReleaseByAppointment освобождает все слоты записи.
	ReleaseByAppointment(ctx context.Context, appointmentID string) (int64, error)
	// Get возвращает слот по ключу.
	Get(ctx context.Context, providerID uuid.UUID, date, clock string) (*model.Slot, error)
	// LastMaterializedDate — максимальная дата слота провайдера, "" если слотов нет.
	LastMaterializedDate(ctx context.Context, providerID uuid.UUID) (string, error)
	// ListByProviderRange — все слоты провайдера за даты [from, to].
	ListByProviderRange(ctx context.Context, providerID uuid.UUID, from, to string) ([]model.Slot, error)
	// ListOccupied — занятые (booked/blocked) слоты на дату.
	ListOccupied(ctx context.Context, providerID uuid.UUID, date string) ([]model.Slot, error)
	// DeleteBefore удаляет незабронированные слоты с датой раньше before.
	DeleteBefore(ctx context.Context, before string) (int64, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) InsertIfAbsent(ctx context.Context, slots []model.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	for i := range slots {
		if slots[i].Status == "" {
			slots[i].Status = model.SlotStatusAvailable
		}
		if slots[i].Kind == "" {
			slots[i].Kind = string(schedule.SlotKindRegular)
		}
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}, {Name: "date"}, {Name: "time"}},
			DoNothing: true,
		}).
		CreateInBatches(slots, insertBatchSize)
	if res.Error != nil {
		return 0, schedule.WrapStore("insert slots", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormSlotRepository) MarkBooked(
	ctx context.Context,
	providerID uuid.UUID,
	date, clock, appointmentID string,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Slot{}).
			Where("provider_id = ? AND date = ? AND time = ?", providerID, date, clock).
			Where("status = ?", model.SlotStatusAvailable).
			Updates(map[string]any{
				"status":         model.SlotStatusBooked,
				"appointment_id": appointmentID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return schedule.ErrConflict
		}

		return tx.Create(&model.SlotEvent{
			EventType:     model.EventTypeSlotBooked,
			ProviderID:    providerID,
			Date:          date,
			Time:          clock,
			AppointmentID: &appointmentID,
		}).Error
	})
	return schedule.WrapStore("book slot", err)
}

func (r *GormSlotRepository) MarkAvailable(ctx context.Context, providerID uuid.UUID, date, clock string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot model.Slot
		err := tx.Where("provider_id = ? AND date = ? AND time = ?", providerID, date, clock).
			Where("status = ?", model.SlotStatusBooked).
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schedule.ErrNotFound
		}
		if err != nil {
			return err
		}

		res := tx.Model(&model.Slot{}).
			Where("id = ? AND status = ?", slot.ID, model.SlotStatusBooked).
			Updates(map[string]any{
				"status":         model.SlotStatusAvailable,
				"appointment_id": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return schedule.ErrNotFound
		}

		return tx.Create(&model.SlotEvent{
			EventType:     model.EventTypeSlotReleased,
			ProviderID:    providerID,
			Date:          date,
			Time:          clock,
			AppointmentID: slot.AppointmentID,
		}).Error
	})
	return schedule.WrapStore("release slot", err)
}

func (r *GormSlotRepository) ReleaseByAppointment(ctx context.Context, appointmentID string) (int64, error) {
	var released int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slots []model.Slot
		err := tx.Where("appointment_id = ? AND status = ?", appointmentID, model.SlotStatusBooked).
			Find(&slots).Error
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			return schedule.ErrNotFound
		}

		res := tx.Model(&model.Slot{}).
			Where("appointment_id = ? AND status = ?", appointmentID, model.SlotStatusBooked).
			Updates(map[string]any{
				"status":         model.SlotStatusAvailable,
				"appointment_id": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		released = res.RowsAffected

		events := make([]model.SlotEvent, 0, len(slots))
		for _, s := range slots {
			events = append(events, model.SlotEvent{
				EventType:     model.EventTypeSlotReleased,
				ProviderID:    s.ProviderID,
				Date:          s.Date,
				Time:          s.Time,
				AppointmentID: &appointmentID,
				Details:       "released by appointment",
			})
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		return 0, schedule.WrapStore("release by appointment", err)
	}
	return released, nil
}

func (r *GormSlotRepository) Get(ctx context.Context, providerID uuid.UUID, date, clock string) (*model.Slot, error) {
	var slot model.Slot
	err := r.db.WithContext(ctx).
		First(&slot, "provider_id = ? AND date = ? AND time = ?", providerID, date, clock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, schedule.WrapStore("get slot", err)
	}
	return &slot, nil
}

func (r *GormSlotRepository) LastMaterializedDate(ctx context.Context, providerID uuid.UUID) (string, error) {
	var last string
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("provider_id = ?", providerID).
		Select("COALESCE(MAX(date), '')").
		Scan(&last).Error
	if err != nil {
		return "", schedule.WrapStore("last slot date", err)
	}
	return last, nil
}

func (r *GormSlotRepository) ListByProviderRange(
	ctx context.Context,
	providerID uuid.UUID,
	from, to string,
) ([]model.Slot, error) {
	if to < from {
		return nil, nil
	}

	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC, time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, schedule.WrapStore("list slots", err)
	}
	return slots, nil
}

func (r *GormSlotRepository) ListOccupied(ctx context.Context, providerID uuid.UUID, date string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date = ?", providerID, date).
		Where("status IN ?", []model.SlotStatus{model.SlotStatusBooked, model.SlotStatusBlocked}).
		Order("time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, schedule.WrapStore("list occupied slots", err)
	}
	return slots, nil
}

func (r *GormSlotRepository) DeleteBefore(ctx context.Context, before string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("date < ? AND status <> ?", before, model.SlotStatusBooked).
		Delete(&model.Slot{})
	if res.Error != nil {
		return 0, schedule.WrapStore("delete expired slots", res.Error)
	}
	return res.RowsAffected, nil
}
