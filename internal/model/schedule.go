package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// schedule_configs — повторяющийся шаблон рабочего времени провайдера.
// Структурированные поля хранятся как JSON и разбираются на границе репозитория.
type ScheduleConfig struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// ["sunday","monday",...]
	WorkDays datatypes.JSON
	// [{"start":"08:00","end":"12:00","label":"morning","active":true,"kind":"regular"}]
	WorkPeriods datatypes.JSON
	// [{"start":"12:00","end":"13:00","reason":"lunch"}]
	BreakTimes datatypes.JSON

	// Старая схема: один интервал на день, если WorkPeriods пуст.
	WorkHoursStart string `gorm:"type:varchar(5)"`
	WorkHoursEnd   string `gorm:"type:varchar(5)"`

	SlotDurationMinutes int `gorm:"not null"`
	BufferMinutes       int `gorm:"not null"`
	MaxSlotsPerDay      int `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *ScheduleConfig) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// schedule_settings — состояние скользящего окна, одна строка на провайдера.
// Меняется только менеджером расписания.
type ScheduleSettings struct {
	ProviderID uuid.UUID `gorm:"type:uuid;primaryKey"`

	WindowLengthDays   int  `gorm:"not null"`
	AutoRenewEnabled   bool `gorm:"not null;index"`
	RenewalAdvanceDays int  `gorm:"not null"`

	// Даты в формате YYYY-MM-DD, пустая строка — ещё не задано.
	WindowStartDate string `gorm:"type:varchar(10)"`
	WindowEndDate   string `gorm:"type:varchar(10)"`
	LastRenewalDate string `gorm:"type:varchar(10)"`
	// Всегда WindowEndDate - RenewalAdvanceDays.
	NextRenewalDate string `gorm:"type:varchar(10);index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
