package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider — исполнитель услуг (врач, мастер и т.п.).
// Таблицу наполняет внешний справочник, ядро её только читает.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Имя/отображаемое название в интерфейсе.
	DisplayName string `gorm:"type:varchar(255);not null"`

	// Неактивные провайдеры не участвуют в продлении окна.
	IsActive bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
