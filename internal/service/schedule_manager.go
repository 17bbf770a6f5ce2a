package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/metrics"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/repository"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// ManagerConfig — политика окна по умолчанию.
type ManagerConfig struct {
	WindowLengthDays   int
	RenewalAdvanceDays int
	// Сколько провайдеров продлевается параллельно в CheckAndRenewAll.
	Concurrency int
	// Таймзона, в которой считается «сегодня».
	Location *time.Location
	Now      func() time.Time
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.WindowLengthDays <= 0 {
		c.WindowLengthDays = schedule.DefaultWindowLengthDays
	}
	if c.RenewalAdvanceDays < 0 {
		c.RenewalAdvanceDays = schedule.DefaultRenewalAdvanceDays
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// WindowResult описывает итог одной инициализации или продления.
type WindowResult struct {
	ProviderID uuid.UUID
	From       string
	To         string
	Inserted   int64
	// NextRenewalDate после операции.
	NextRenewal string
}

type RenewalFailure struct {
	ProviderID uuid.UUID
	Err        error
}

// RenewalReport — итог пакетного продления.
type RenewalReport struct {
	Renewed []uuid.UUID
	Failed  []RenewalFailure
	// Просрочены, но неактивны в справочнике.
	Skipped []uuid.UUID
}

func (r RenewalReport) RenewedCount() int { return len(r.Renewed) }

// RenewalPolicy — административные настройки автопродления.
type RenewalPolicy struct {
	AutoRenew   bool
	AdvanceDays int
}

// ScheduleManager материализует скользящее окно слотов и продлевает его.
// Настройки окна меняет только он.
type ScheduleManager struct {
	configs   repository.ScheduleConfigRepository
	settings  repository.ScheduleSettingsRepository
	slots     repository.SlotRepository
	events    repository.SlotEventRepository
	providers repository.ProviderDirectory

	log *zap.Logger
	cfg ManagerConfig
}

func NewScheduleManager(
	configs repository.ScheduleConfigRepository,
	settings repository.ScheduleSettingsRepository,
	slots repository.SlotRepository,
	events repository.SlotEventRepository,
	providers repository.ProviderDirectory,
	log *zap.Logger,
	cfg ManagerConfig,
) *ScheduleManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleManager{
		configs:   configs,
		settings:  settings,
		slots:     slots,
		events:    events,
		providers: providers,
		log:       log.Named("schedule_manager"),
		cfg:       cfg.withDefaults(),
	}
}

func (m *ScheduleManager) today() time.Time {
	return calendar.DateOnly(m.cfg.Now().In(m.cfg.Location))
}

// Initialize материализует окно [today, today+windowLengthDays-1].
// Уже материализованные даты не генерируются повторно, и конец окна
// назад не сдвигается. windowLengthDays = 0 берёт длину из настроек.
func (m *ScheduleManager) Initialize(
	ctx context.Context,
	providerID uuid.UUID,
	windowLengthDays int,
) (*WindowResult, error) {
	res, err := m.initialize(ctx, providerID, windowLengthDays)
	metrics.ObserveWindow(metrics.OpInitialize, err)
	return res, err
}

func (m *ScheduleManager) initialize(
	ctx context.Context,
	providerID uuid.UUID,
	windowLengthDays int,
) (*WindowResult, error) {
	if windowLengthDays < 0 || windowLengthDays > schedule.MaxWindowLengthDays {
		return nil, &schedule.ConfigError{
			Field:  "window_length_days",
			Reason: fmt.Sprintf("must be in [0, %d], got %d", schedule.MaxWindowLengthDays, windowLengthDays),
		}
	}
	if err := m.checkProvider(ctx, providerID); err != nil {
		return nil, err
	}

	current, err := m.settings.Get(ctx, providerID)
	if err != nil && !errors.Is(err, schedule.ErrNotFound) {
		return nil, err
	}

	st := m.newSettings(providerID, current)
	if windowLengthDays > 0 {
		st.WindowLengthDays = windowLengthDays
	}
	if st.RenewalAdvanceDays >= st.WindowLengthDays {
		return nil, &schedule.ConfigError{
			Field: "window_length_days",
			Reason: fmt.Sprintf("must be greater than renewal_advance_days (%d), got %d",
				st.RenewalAdvanceDays, st.WindowLengthDays),
		}
	}

	from := m.today()
	to := calendar.AddDays(from, st.WindowLengthDays-1)

	// Уже материализованные даты не генерируются заново: после смены
	// конфигурации на них легла бы вторая сетка слотов.
	last, err := m.lastMaterialized(ctx, providerID, current)
	if err != nil {
		return nil, err
	}
	genFrom, end := from, to
	if last != "" {
		lastDate, err := calendar.ParseDate(last, m.cfg.Location)
		if err != nil {
			return nil, &schedule.StoreError{Op: "parse window end", Err: err}
		}
		if !lastDate.Before(from) {
			genFrom = calendar.AddDays(lastDate, 1)
		}
		if lastDate.After(to) {
			end = lastDate
		}
	}

	var inserted int64
	if !genFrom.After(to) {
		if inserted, err = m.materialize(ctx, providerID, genFrom, to); err != nil {
			return nil, err
		}
	}

	start := calendar.FormatDate(from)
	if st.WindowStartDate == "" || st.WindowStartDate > start {
		st.WindowStartDate = start
	}
	st.WindowEndDate = calendar.FormatDate(end)
	st.LastRenewalDate = calendar.FormatDate(from)
	st.NextRenewalDate = nextRenewal(end, st.RenewalAdvanceDays)
	if err := m.settings.Save(ctx, st); err != nil {
		return nil, err
	}

	res := &WindowResult{
		ProviderID:  providerID,
		From:        st.WindowStartDate,
		To:          st.WindowEndDate,
		Inserted:    inserted,
		NextRenewal: st.NextRenewalDate,
	}
	m.audit(ctx, model.EventTypeWindowInitialized, res)
	m.log.Info("schedule window initialized",
		zap.String("provider_id", providerID.String()),
		zap.String("from", res.From),
		zap.String("to", res.To),
		zap.Int64("inserted", inserted),
	)
	return res, nil
}

// Renew продлевает окно на WindowLengthDays дней сразу после последней
// материализованной даты. Без окна делегирует Initialize.
func (m *ScheduleManager) Renew(ctx context.Context, providerID uuid.UUID) (*WindowResult, error) {
	current, err := m.settings.Get(ctx, providerID)
	if err != nil && !errors.Is(err, schedule.ErrNotFound) {
		metrics.ObserveWindow(metrics.OpRenew, err)
		return nil, err
	}

	last, err := m.lastMaterialized(ctx, providerID, current)
	if err != nil {
		metrics.ObserveWindow(metrics.OpRenew, err)
		return nil, err
	}
	if last == "" {
		length := 0
		if current != nil {
			length = current.WindowLengthDays
		}
		return m.Initialize(ctx, providerID, length)
	}

	res, err := m.renewAfter(ctx, providerID, current, last)
	metrics.ObserveWindow(metrics.OpRenew, err)
	return res, err
}

// lastMaterialized возвращает последнюю дату, на которую уже есть слоты:
// максимум из конца окна в настройках и поздней даты в таблице слотов.
// Пустая строка означает, что окна ещё нет.
func (m *ScheduleManager) lastMaterialized(
	ctx context.Context,
	providerID uuid.UUID,
	current *model.ScheduleSettings,
) (string, error) {
	last := ""
	if current != nil {
		last = current.WindowEndDate
	}
	stored, err := m.slots.LastMaterializedDate(ctx, providerID)
	if err != nil {
		return "", err
	}
	// YYYY-MM-DD сравнивается как строка.
	if stored > last {
		last = stored
	}
	return last, nil
}

func (m *ScheduleManager) renewAfter(
	ctx context.Context,
	providerID uuid.UUID,
	current *model.ScheduleSettings,
	last string,
) (*WindowResult, error) {
	lastDate, err := calendar.ParseDate(last, m.cfg.Location)
	if err != nil {
		return nil, &schedule.StoreError{Op: "parse window end", Err: err}
	}

	st := m.newSettings(providerID, current)
	from := calendar.AddDays(lastDate, 1)
	to := calendar.AddDays(from, st.WindowLengthDays-1)

	inserted, err := m.materialize(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	if st.WindowStartDate == "" {
		st.WindowStartDate = calendar.FormatDate(from)
	}
	st.WindowEndDate = calendar.FormatDate(to)
	st.LastRenewalDate = calendar.FormatDate(m.today())
	st.NextRenewalDate = nextRenewal(to, st.RenewalAdvanceDays)
	if err := m.settings.Save(ctx, st); err != nil {
		return nil, err
	}

	res := &WindowResult{
		ProviderID:  providerID,
		From:        calendar.FormatDate(from),
		To:          st.WindowEndDate,
		Inserted:    inserted,
		NextRenewal: st.NextRenewalDate,
	}
	m.audit(ctx, model.EventTypeWindowRenewed, res)
	m.log.Info("schedule window renewed",
		zap.String("provider_id", providerID.String()),
		zap.String("from", res.From),
		zap.String("to", res.To),
		zap.Int64("inserted", inserted),
	)
	return res, nil
}

// CheckAndRenewAll продлевает всех провайдеров, у которых подошла дата
// продления. Ошибка одного провайдера не прерывает пакет.
func (m *ScheduleManager) CheckAndRenewAll(ctx context.Context) (RenewalReport, error) {
	started := time.Now()
	var report RenewalReport

	today := calendar.FormatDate(m.today())
	due, err := m.settings.ListDue(ctx, today)
	if err != nil {
		return report, fmt.Errorf("list due providers: %w", err)
	}
	if len(due) == 0 {
		m.finishBatch(started, report)
		return report, nil
	}

	active, err := m.activeProviders(ctx)
	if err != nil {
		return report, fmt.Errorf("list active providers: %w", err)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(m.cfg.Concurrency)

	for _, st := range due {
		providerID := st.ProviderID
		if active != nil {
			if _, ok := active[providerID]; !ok {
				report.Skipped = append(report.Skipped, providerID)
				continue
			}
		}

		g.Go(func() error {
			_, err := m.Renew(ctx, providerID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.log.Error("renew provider failed",
					zap.String("provider_id", providerID.String()),
					zap.Error(err),
				)
				report.Failed = append(report.Failed, RenewalFailure{ProviderID: providerID, Err: err})
				return nil
			}
			report.Renewed = append(report.Renewed, providerID)
			return nil
		})
	}
	_ = g.Wait()

	sortIDs(report.Renewed)
	sortIDs(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].ProviderID.String() < report.Failed[j].ProviderID.String()
	})

	m.finishBatch(started, report)
	return report, nil
}

func (m *ScheduleManager) finishBatch(started time.Time, report RenewalReport) {
	metrics.RenewalBatchDuration.Observe(time.Since(started).Seconds())
	metrics.LastRenewalTimestamp.SetToCurrentTime()
	m.log.Info("renewal batch finished",
		zap.Int("renewed", len(report.Renewed)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("took", time.Since(started)),
	)
}

// activeProviders возвращает nil, если справочник не подключён.
func (m *ScheduleManager) activeProviders(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	if m.providers == nil {
		return nil, nil
	}
	ids, err := m.providers.ListActiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Settings возвращает состояние окна провайдера.
func (m *ScheduleManager) Settings(ctx context.Context, providerID uuid.UUID) (*model.ScheduleSettings, error) {
	return m.settings.Get(ctx, providerID)
}

// SetRenewalPolicy меняет автопродление и запас дней, пересчитывая
// NextRenewalDate от текущего конца окна.
func (m *ScheduleManager) SetRenewalPolicy(
	ctx context.Context,
	providerID uuid.UUID,
	policy RenewalPolicy,
) (*model.ScheduleSettings, error) {
	st, err := m.settings.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if policy.AdvanceDays < 0 || policy.AdvanceDays >= st.WindowLengthDays {
		return nil, &schedule.ConfigError{
			Field:  "renewal_advance_days",
			Reason: fmt.Sprintf("must be in [0, %d), got %d", st.WindowLengthDays, policy.AdvanceDays),
		}
	}

	st.AutoRenewEnabled = policy.AutoRenew
	st.RenewalAdvanceDays = policy.AdvanceDays
	if st.WindowEndDate != "" {
		end, err := calendar.ParseDate(st.WindowEndDate, m.cfg.Location)
		if err != nil {
			return nil, &schedule.StoreError{Op: "parse window end", Err: err}
		}
		st.NextRenewalDate = nextRenewal(end, st.RenewalAdvanceDays)
	}

	if err := m.settings.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Выборка журнала по умолчанию и её верхняя граница.
const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// Events возвращает журнал аудита провайдера, новые события первыми.
func (m *ScheduleManager) Events(ctx context.Context, providerID uuid.UUID, limit int) ([]model.SlotEvent, error) {
	if providerID == uuid.Nil {
		return nil, &schedule.ConfigError{Field: "provider_id", Reason: "is required"}
	}
	if m.events == nil {
		return nil, nil
	}
	switch {
	case limit <= 0:
		limit = defaultEventsLimit
	case limit > maxEventsLimit:
		limit = maxEventsLimit
	}
	return m.events.ListByProvider(ctx, providerID, limit)
}

// CleanupExpired удаляет незабронированные слоты с датой раньше before.
func (m *ScheduleManager) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	n, err := m.slots.DeleteBefore(ctx, calendar.FormatDate(before))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info("expired slots removed",
			zap.String("before", calendar.FormatDate(before)),
			zap.Int64("deleted", n),
		)
	}
	return n, nil
}

// configFor возвращает конфигурацию провайдера или конфигурацию по умолчанию.
func (m *ScheduleManager) configFor(ctx context.Context, providerID uuid.UUID) (schedule.Config, error) {
	cfg, err := m.configs.Get(ctx, providerID)
	if errors.Is(err, schedule.ErrNotFound) {
		m.log.Debug("no schedule config, using default",
			zap.String("provider_id", providerID.String()))
		return schedule.DefaultConfig(providerID), nil
	}
	return cfg, err
}

// materialize генерирует и вставляет слоты на даты [from, to].
func (m *ScheduleManager) materialize(
	ctx context.Context,
	providerID uuid.UUID,
	from, to time.Time,
) (int64, error) {
	cfg, err := m.configFor(ctx, providerID)
	if err != nil {
		return 0, err
	}

	var rows []model.Slot
	for _, date := range calendar.DatesBetween(from, to) {
		day := calendar.FormatDate(date)
		candidates := schedule.Generate(cfg, date)

		if cfg.MaxSlotsPerDay > 0 && len(candidates) > cfg.MaxSlotsPerDay {
			metrics.MaxSlotsExceeded.Inc()
			m.log.Warn("generated slots exceed max_slots_per_day",
				zap.String("provider_id", providerID.String()),
				zap.String("date", day),
				zap.Int("generated", len(candidates)),
				zap.Int("max_slots_per_day", cfg.MaxSlotsPerDay),
			)
		}

		// Пересекающиеся периоды дают одинаковое время: остаётся первый.
		seen := make(map[calendar.Clock]struct{}, len(candidates))
		for _, c := range candidates {
			if _, dup := seen[c.Start]; dup {
				continue
			}
			seen[c.Start] = struct{}{}
			rows = append(rows, model.Slot{
				ProviderID:      providerID,
				Date:            day,
				Time:            c.Start.String(),
				DurationMinutes: c.DurationMinutes,
				PeriodLabel:     c.PeriodLabel,
				Kind:            string(c.Kind),
				Status:          model.SlotStatusAvailable,
			})
		}
	}

	inserted, err := m.slots.InsertIfAbsent(ctx, rows)
	if err != nil {
		return 0, err
	}
	metrics.SlotsGenerated.Add(float64(inserted))
	return inserted, nil
}

func (m *ScheduleManager) checkProvider(ctx context.Context, providerID uuid.UUID) error {
	if providerID == uuid.Nil {
		return &schedule.ConfigError{Field: "provider_id", Reason: "is required"}
	}
	if m.providers == nil {
		return nil
	}
	if _, err := calendar.ValidateProvider(ctx, m.providers, providerID); err != nil {
		return providerError(err)
	}
	return nil
}

// newSettings копирует текущие настройки или заполняет их значениями по умолчанию.
func (m *ScheduleManager) newSettings(providerID uuid.UUID, current *model.ScheduleSettings) *model.ScheduleSettings {
	if current != nil {
		st := *current
		if st.WindowLengthDays <= 0 {
			st.WindowLengthDays = m.cfg.WindowLengthDays
		}
		return &st
	}
	return &model.ScheduleSettings{
		ProviderID:         providerID,
		WindowLengthDays:   m.cfg.WindowLengthDays,
		AutoRenewEnabled:   true,
		RenewalAdvanceDays: m.cfg.RenewalAdvanceDays,
	}
}

func (m *ScheduleManager) audit(ctx context.Context, typ model.EventType, res *WindowResult) {
	if m.events == nil {
		return
	}
	ev := &model.SlotEvent{
		EventType:  typ,
		ProviderID: res.ProviderID,
		Date:       res.From,
		Details:    fmt.Sprintf("window %s..%s, inserted %d", res.From, res.To, res.Inserted),
	}
	// Аудит не должен ломать уже выполненную операцию.
	if err := m.events.Append(ctx, ev); err != nil {
		m.log.Warn("append audit event failed",
			zap.String("provider_id", res.ProviderID.String()),
			zap.String("event", string(typ)),
			zap.Error(err),
		)
	}
}

func nextRenewal(windowEnd time.Time, advanceDays int) string {
	return calendar.FormatDate(calendar.AddDays(windowEnd, -advanceDays))
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

// providerError переводит ошибки справочника в доменные.
func providerError(err error) error {
	switch {
	case errors.Is(err, calendar.ErrProviderNotFound):
		return fmt.Errorf("%w: %v", schedule.ErrNotFound, err)
	case errors.Is(err, calendar.ErrInvalidProviderID):
		return &schedule.ConfigError{Field: "provider_id", Reason: err.Error()}
	default:
		return err
	}
}
