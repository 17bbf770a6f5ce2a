package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

type ScheduleConfigRepository interface {
	// Get возвращает конфигурацию провайдера или schedule.ErrNotFound.
	Get(ctx context.Context, providerID uuid.UUID) (schedule.Config, error)
	// Upsert проверяет и сохраняет конфигурацию, заменяя прежнюю.
	Upsert(ctx context.Context, cfg schedule.Config) error
}

type GormScheduleConfigRepository struct {
	db *gorm.DB
}

func NewGormScheduleConfigRepository(db *gorm.DB) *GormScheduleConfigRepository {
	return &GormScheduleConfigRepository{db: db}
}

func (r *GormScheduleConfigRepository) Get(ctx context.Context, providerID uuid.UUID) (schedule.Config, error) {
	var row model.ScheduleConfig
	err := r.db.WithContext(ctx).First(&row, "provider_id = ?", providerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schedule.Config{}, schedule.ErrNotFound
	}
	if err != nil {
		return schedule.Config{}, schedule.WrapStore("get schedule config", err)
	}
	return decodeConfig(row)
}

func (r *GormScheduleConfigRepository) Upsert(ctx context.Context, cfg schedule.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	row, err := encodeConfig(cfg)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"work_days", "work_periods", "break_times",
				"work_hours_start", "work_hours_end",
				"slot_duration_minutes", "buffer_minutes", "max_slots_per_day",
				"updated_at",
			}),
		}).
		Create(&row).Error
	return schedule.WrapStore("upsert schedule config", err)
}

func encodeConfig(cfg schedule.Config) (model.ScheduleConfig, error) {
	row := model.ScheduleConfig{
		ProviderID:          cfg.ProviderID,
		SlotDurationMinutes: cfg.SlotDurationMinutes,
		BufferMinutes:       cfg.BufferMinutes,
		MaxSlotsPerDay:      cfg.MaxSlotsPerDay,
	}
	if len(cfg.WorkPeriods) == 0 {
		row.WorkHoursStart = cfg.WorkHoursStart.String()
		row.WorkHoursEnd = cfg.WorkHoursEnd.String()
	}

	var err error
	if row.WorkDays, err = marshalJSON(cfg.WorkDays); err != nil {
		return row, err
	}
	if row.WorkPeriods, err = marshalJSON(cfg.WorkPeriods); err != nil {
		return row, err
	}
	if row.BreakTimes, err = marshalJSON(cfg.Breaks); err != nil {
		return row, err
	}
	return row, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode schedule config: %w", err)
	}
	return datatypes.JSON(b), nil
}

// decodeConfig разбирает строку таблицы. Битый JSON — ошибка конфигурации,
// а не пустой список.
func decodeConfig(row model.ScheduleConfig) (schedule.Config, error) {
	cfg := schedule.Config{
		ProviderID:          row.ProviderID,
		SlotDurationMinutes: row.SlotDurationMinutes,
		BufferMinutes:       row.BufferMinutes,
		MaxSlotsPerDay:      row.MaxSlotsPerDay,
	}

	var days []calendar.Weekday
	if err := unmarshalColumn("work_days", row.WorkDays, &days); err != nil {
		return cfg, err
	}
	for _, d := range days {
		w, err := calendar.ParseWeekday(string(d))
		if err != nil {
			return cfg, &schedule.ConfigError{Field: "work_days", Reason: err.Error()}
		}
		cfg.WorkDays = append(cfg.WorkDays, w)
	}

	if err := unmarshalColumn("work_periods", row.WorkPeriods, &cfg.WorkPeriods); err != nil {
		return cfg, err
	}
	if err := unmarshalColumn("break_times", row.BreakTimes, &cfg.Breaks); err != nil {
		return cfg, err
	}

	if row.WorkHoursStart != "" || row.WorkHoursEnd != "" {
		start, err := calendar.ParseClock(row.WorkHoursStart)
		if err != nil {
			return cfg, &schedule.ConfigError{Field: "work_hours", Reason: err.Error()}
		}
		end, err := calendar.ParseClock(row.WorkHoursEnd)
		if err != nil {
			return cfg, &schedule.ConfigError{Field: "work_hours", Reason: err.Error()}
		}
		cfg.WorkHoursStart, cfg.WorkHoursEnd = start, end
	}

	return cfg, nil
}

func unmarshalColumn(field string, raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &schedule.ConfigError{Field: field, Reason: fmt.Sprintf("malformed json: %v", err)}
	}
	return nil
}
