package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/slot-engine/internal/calendar"
)

// Значения по умолчанию для конфигурации и окна.
const (
	DefaultSlotDurationMinutes = 30
	DefaultBufferMinutes       = 5
	DefaultMaxSlotsPerDay      = 20
	DefaultWindowLengthDays    = 30
	DefaultRenewalAdvanceDays  = 7
	// Верхняя граница длины окна: всё окно генерируется одним пакетом.
	MaxWindowLengthDays = 366

	// Метка периода, который строится из WorkHoursStart/WorkHoursEnd.
	LegacyPeriodLabel = "default"
)

type SlotKind string

const (
	SlotKindRegular   SlotKind = "regular"
	SlotKindEmergency SlotKind = "emergency"
	SlotKindFollowup  SlotKind = "followup"
)

// Valid сообщает, известен ли тип слота. Пустое значение трактуется как regular.
func (k SlotKind) Valid() bool {
	switch k {
	case "", SlotKindRegular, SlotKindEmergency, SlotKindFollowup:
		return true
	}
	return false
}

// WorkPeriod — одна смена внутри рабочего дня (например, утро и вечер).
type WorkPeriod struct {
	Start  calendar.Clock `json:"start"`
	End    calendar.Clock `json:"end"`
	Label  string         `json:"label,omitempty"`
	Active bool           `json:"active"`
	Kind   SlotKind       `json:"kind,omitempty"`
}

// Перерыв вычитается из генерации.
type Break struct {
	Start  calendar.Clock `json:"start"`
	End    calendar.Clock `json:"end"`
	Reason string         `json:"reason,omitempty"`
}

// Config — повторяющаяся конфигурация расписания провайдера.
type Config struct {
	ProviderID uuid.UUID `json:"provider_id"`

	WorkDays    []calendar.Weekday `json:"work_days"`
	WorkPeriods []WorkPeriod       `json:"work_periods,omitempty"`
	Breaks      []Break            `json:"break_times,omitempty"`

	// Одиночный интервал из старой схемы, используется при пустом WorkPeriods.
	WorkHoursStart calendar.Clock `json:"work_hours_start"`
	WorkHoursEnd   calendar.Clock `json:"work_hours_end"`

	SlotDurationMinutes int `json:"slot_duration_minutes"`
	BufferMinutes       int `json:"buffer_minutes"`
	// Подсказка: генерация и бронирование её не ограничивают.
	MaxSlotsPerDay int `json:"max_slots_per_day"`
}

// DefaultConfig используется для провайдера без своей конфигурации:
// вс–чт, 08:00–17:00, слоты по 30 минут, обед 12:00–13:00.
func DefaultConfig(providerID uuid.UUID) Config {
	return Config{
		ProviderID: providerID,
		WorkDays: []calendar.Weekday{
			calendar.Sunday, calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday,
		},
		WorkHoursStart: calendar.NewClock(8, 0),
		WorkHoursEnd:   calendar.NewClock(17, 0),
		Breaks: []Break{
			{Start: calendar.NewClock(12, 0), End: calendar.NewClock(13, 0), Reason: "lunch"},
		},
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		BufferMinutes:       DefaultBufferMinutes,
		MaxSlotsPerDay:      DefaultMaxSlotsPerDay,
	}
}

// Validate проверяет конфигурацию. Ничего не исправляет молча.
// Перерывы вне рабочих периодов допустимы: они просто ни на что не влияют.
func (c Config) Validate() error {
	if c.ProviderID == uuid.Nil {
		return configErrorf("provider_id", "is required")
	}
	if c.SlotDurationMinutes <= 0 {
		return configErrorf("slot_duration_minutes", "must be positive, got %d", c.SlotDurationMinutes)
	}
	if c.BufferMinutes < 0 {
		return configErrorf("buffer_minutes", "must not be negative, got %d", c.BufferMinutes)
	}
	if c.MaxSlotsPerDay < 0 {
		return configErrorf("max_slots_per_day", "must not be negative, got %d", c.MaxSlotsPerDay)
	}

	for _, d := range c.WorkDays {
		if _, err := calendar.ParseWeekday(string(d)); err != nil {
			return configErrorf("work_days", "%v", err)
		}
	}

	for i, p := range c.WorkPeriods {
		field := fmt.Sprintf("work_periods[%d]", i)
		if err := validateInterval(field, p.Start, p.End); err != nil {
			return err
		}
		if !p.Kind.Valid() {
			return configErrorf(field, "unknown slot kind %q", p.Kind)
		}
	}
	if len(c.WorkPeriods) == 0 {
		if err := validateInterval("work_hours", c.WorkHoursStart, c.WorkHoursEnd); err != nil {
			return err
		}
	}

	for i, b := range c.Breaks {
		if err := validateInterval(fmt.Sprintf("break_times[%d]", i), b.Start, b.End); err != nil {
			return err
		}
	}

	return nil
}

func validateInterval(field string, start, end calendar.Clock) error {
	if !start.Valid() || !end.Valid() {
		return configErrorf(field, "time of day out of range")
	}
	if end <= start {
		return configErrorf(field, "end %s must be after start %s", end, start)
	}
	return nil
}

// EffectivePeriods возвращает периоды, по которым идёт генерация:
// активные из WorkPeriods либо единственный период из WorkHoursStart/WorkHoursEnd.
func (c Config) EffectivePeriods() []WorkPeriod {
	if len(c.WorkPeriods) == 0 {
		return []WorkPeriod{{
			Start:  c.WorkHoursStart,
			End:    c.WorkHoursEnd,
			Label:  LegacyPeriodLabel,
			Active: true,
			Kind:   SlotKindRegular,
		}}
	}

	out := make([]WorkPeriod, 0, len(c.WorkPeriods))
	for _, p := range c.WorkPeriods {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}
