package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статус слота расписания.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	// Выставляется внешней логикой (отпуск, ручная блокировка).
	SlotStatusBlocked SlotStatus = "blocked"
)

// slots — материализованные слоты окна бронирования.
// Ключ (provider_id, date, time) уникален: повторная генерация ничего не дублирует.
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_slots_provider_date_time,priority:1"`
	// YYYY-MM-DD, строка сравнивается лексикографически.
	Date string `gorm:"type:varchar(10);not null;uniqueIndex:ux_slots_provider_date_time,priority:2;index"`
	// HH:MM
	Time string `gorm:"type:varchar(5);not null;uniqueIndex:ux_slots_provider_date_time,priority:3"`

	DurationMinutes int    `gorm:"not null"`
	PeriodLabel     string `gorm:"type:varchar(64)"`
	Kind            string `gorm:"type:varchar(32);not null"`

	Status SlotStatus `gorm:"type:varchar(32);not null;index"`
	// Заполнен тогда и только тогда, когда слот забронирован.
	AppointmentID *string `gorm:"type:varchar(64);index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Slot) TableName() string { return "slots" }

func (s *Slot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
