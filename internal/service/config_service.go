package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/repository"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// ConfigService — административный доступ к конфигурации расписания.
// Смена конфигурации действует только на ещё не сгенерированные даты.
type ConfigService struct {
	configs   repository.ScheduleConfigRepository
	providers repository.ProviderDirectory
	log       *zap.Logger
}

func NewConfigService(
	configs repository.ScheduleConfigRepository,
	providers repository.ProviderDirectory,
	log *zap.Logger,
) *ConfigService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfigService{configs: configs, providers: providers, log: log.Named("config")}
}

// SetScheduleConfig проверяет и сохраняет конфигурацию провайдера.
func (s *ConfigService) SetScheduleConfig(ctx context.Context, cfg schedule.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.checkExists(ctx, cfg.ProviderID); err != nil {
		return err
	}
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return err
	}
	s.log.Info("schedule config saved",
		zap.String("provider_id", cfg.ProviderID.String()),
		zap.Int("work_days", len(cfg.WorkDays)),
		zap.Int("work_periods", len(cfg.WorkPeriods)),
		zap.Int("breaks", len(cfg.Breaks)),
	)
	return nil
}

// GetScheduleConfig возвращает действующую конфигурацию. isDefault = true,
// если у провайдера нет своей и отдана конфигурация по умолчанию.
func (s *ConfigService) GetScheduleConfig(
	ctx context.Context,
	providerID uuid.UUID,
) (cfg schedule.Config, isDefault bool, err error) {
	if providerID == uuid.Nil {
		return schedule.Config{}, false, &schedule.ConfigError{Field: "provider_id", Reason: "is required"}
	}
	cfg, err = s.configs.Get(ctx, providerID)
	if errors.Is(err, schedule.ErrNotFound) {
		return schedule.DefaultConfig(providerID), true, nil
	}
	if err != nil {
		return schedule.Config{}, false, err
	}
	return cfg, false, nil
}

// checkExists проверяет только существование: неактивному провайдеру
// конфигурацию менять можно.
func (s *ConfigService) checkExists(ctx context.Context, providerID uuid.UUID) error {
	if s.providers == nil {
		return nil
	}
	_, err := calendar.ValidateProvider(ctx, s.providers, providerID)
	if errors.Is(err, calendar.ErrProviderInactive) {
		return nil
	}
	if err != nil {
		return providerError(err)
	}
	return nil
}
