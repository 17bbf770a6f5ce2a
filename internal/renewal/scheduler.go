// Package renewal запускает пакетное продление окна по таймеру.
// Само ядро не знает, кто и как часто его вызывает.
package renewal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/service"
)

const (
	DefaultInterval = 6 * time.Hour
	DefaultLeaseKey = "slot-engine:renewal:lease"
	DefaultLeaseTTL = 10 * time.Minute
)

// Renewer вызывается на каждом тике.
type Renewer interface {
	CheckAndRenewAll(ctx context.Context) (service.RenewalReport, error)
}

// Cleaner удаляет незабронированные слоты прошедших дат.
type Cleaner interface {
	CleanupExpired(ctx context.Context, before time.Time) (int64, error)
}

type Config struct {
	Interval time.Duration

	// Без Locker аренда не берётся (одна реплика).
	Locker   Locker
	LeaseKey string
	LeaseTTL time.Duration

	// Если Cleaner задан и CleanupAfterDays > 0, после продления
	// удаляются слоты старше CleanupAfterDays дней.
	Cleaner          Cleaner
	CleanupAfterDays int

	// Часовой пояс расписания: от него считается «сегодня» для очистки.
	Location *time.Location

	Now func() time.Time
}

// Scheduler хранит только время последнего запуска.
type Scheduler struct {
	renewer Renewer
	log     *zap.Logger
	cfg     Config

	mu         sync.RWMutex
	lastRun    time.Time
	lastReport service.RenewalReport
}

func NewScheduler(renewer Renewer, log *zap.Logger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LeaseKey == "" {
		cfg.LeaseKey = DefaultLeaseKey
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		renewer: renewer,
		log:     log.Named("renewal"),
		cfg:     cfg,
	}
}

// Run выполняет продление сразу и затем раз в Interval, пока ctx не отменён.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("renewal scheduler started", zap.Duration("interval", s.cfg.Interval))

	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("renewal scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("renewal run failed", zap.Error(err))
	}
}

// RunOnce выполняет один проход. ran=false: аренду держит другая реплика.
func (s *Scheduler) RunOnce(ctx context.Context) (report service.RenewalReport, ran bool, err error) {
	if s.cfg.Locker != nil {
		unlock, ok, err := s.cfg.Locker.TryLock(ctx, s.cfg.LeaseKey, s.cfg.LeaseTTL)
		if err != nil {
			return report, false, err
		}
		if !ok {
			s.log.Debug("renewal lease is held elsewhere, skipping run")
			return report, false, nil
		}
		defer func() {
			// ctx может быть уже отменён, а аренду надо вернуть.
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				s.log.Warn("release renewal lease", zap.Error(uerr))
			}
		}()
	}

	report, err = s.renewer.CheckAndRenewAll(ctx)
	if err != nil {
		return report, true, err
	}

	if s.cfg.Cleaner != nil && s.cfg.CleanupAfterDays > 0 {
		today := calendar.DateOnly(s.cfg.Now().In(s.cfg.Location))
		before := calendar.AddDays(today, -s.cfg.CleanupAfterDays)
		if _, cerr := s.cfg.Cleaner.CleanupExpired(ctx, before); cerr != nil {
			s.log.Warn("cleanup expired slots", zap.Error(cerr))
		}
	}

	s.mu.Lock()
	s.lastRun = s.cfg.Now()
	s.lastReport = report
	s.mu.Unlock()

	return report, true, nil
}

// LastRun возвращает время последнего успешного прохода и его итог.
func (s *Scheduler) LastRun() (time.Time, service.RenewalReport) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastReport
}
