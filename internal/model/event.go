package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeSlotBooked        EventType = "slot_booked"
	EventTypeSlotReleased      EventType = "slot_released"
	EventTypeWindowInitialized EventType = "window_initialized"
	EventTypeWindowRenewed     EventType = "window_renewed"
)

// slot_events — события аудита по слотам и окну
type SlotEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ProviderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Date          string    `gorm:"type:varchar(10)"`
	Time          string    `gorm:"type:varchar(5)"`
	AppointmentID *string   `gorm:"type:varchar(64);index"`

	Details string `gorm:"type:text"`
}

func (e *SlotEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
