package calendar

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Ошибки проверки провайдера.
var (
	ErrInvalidProviderID = errors.New("invalid provider id")
	ErrProviderNotFound  = errors.New("provider not found")
	ErrProviderInactive  = errors.New("provider is inactive")
)

// ProviderInfo — то, что справочник провайдеров сообщает о провайдере.
type ProviderInfo struct {
	ID          uuid.UUID
	DisplayName string
	IsActive    bool
}

// ProviderLookup — источник данных о провайдерах.
// В реале это обёртка над БД, в тестах мок.
type ProviderLookup interface {
	FindProvider(ctx context.Context, id uuid.UUID) (*ProviderInfo, error)
}

// ValidateProvider:
//   - проверяет корректность идентификатора;
//   - вытаскивает провайдера из справочника;
//   - проверяет, что он активен.
func ValidateProvider(
	ctx context.Context,
	lookup ProviderLookup,
	providerID uuid.UUID,
) (*ProviderInfo, error) {
	if providerID == uuid.Nil {
		return nil, ErrInvalidProviderID
	}

	p, err := lookup.FindProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProviderNotFound
	}

	if !p.IsActive {
		return nil, ErrProviderInactive
	}

	return p, nil
}
