package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// Конфигурация по умолчанию даёт 13 слотов в рабочий день.
const defaultSlotsPerDay = 13

func TestScheduleManager_InitializeWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	res, err := env.manager.Initialize(ctx, providerID, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", res.From)
	assert.Equal(t, "2025-02-03", res.To)
	assert.Equal(t, "2025-01-31", res.NextRenewal)

	st, err := env.manager.Settings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, 30, st.WindowLengthDays)
	assert.True(t, st.AutoRenewEnabled)
	assert.Equal(t, "2025-01-05", st.WindowStartDate)
	assert.Equal(t, "2025-02-03", st.WindowEndDate)
	assert.Equal(t, "2025-01-05", st.LastRenewalDate)
	assert.Equal(t, "2025-01-31", st.NextRenewalDate)

	// 2025-01-05..2025-02-03: 30 дней, из них вс–чт — 22.
	assert.EqualValues(t, 22*defaultSlotsPerDay, res.Inserted)
	assert.EqualValues(t, res.Inserted, env.countSlots(t, providerID))

	friday, err := env.booking.GetAvailableSlots(ctx, providerID, "2025-01-10", "2025-01-11")
	require.NoError(t, err)
	assert.Empty(t, friday)

	events, err := env.events.ListByProvider(ctx, providerID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeWindowInitialized, events[0].EventType)
}

func TestScheduleManager_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	first, err := env.manager.Initialize(ctx, providerID, 14)
	require.NoError(t, err)
	require.Positive(t, first.Inserted)
	total := env.countSlots(t, providerID)

	require.NoError(t, env.booking.Book(ctx, providerID, "2025-01-06", "08:00", "A1"))

	second, err := env.manager.Initialize(ctx, providerID, 14)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.Inserted)
	assert.Equal(t, total, env.countSlots(t, providerID))

	slot, err := env.slots.Get(ctx, providerID, "2025-01-06", "08:00")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, slot.Status)
	require.NotNil(t, slot.AppointmentID)
	assert.Equal(t, "A1", *slot.AppointmentID)
}

func TestScheduleManager_UsesStoredConfig(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	require.NoError(t, env.cfgSvc.SetScheduleConfig(ctx, schedule.Config{
		ProviderID:          providerID,
		WorkDays:            []calendar.Weekday{calendar.Sunday},
		WorkHoursStart:      calendar.MustClock("08:00"),
		WorkHoursEnd:        calendar.MustClock("12:00"),
		SlotDurationMinutes: 30,
	}))

	res, err := env.manager.Initialize(ctx, providerID, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 8, res.Inserted)

	days, err := env.booking.GetAvailableSlots(ctx, providerID, "2025-01-05", "2025-01-11")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-01-05", days[0].Date)
	assert.Equal(t, calendar.Sunday, days[0].Weekday)
	assert.Equal(t, "08:00", days[0].Slots[0].Time)
	assert.Equal(t, "11:30", days[0].Slots[7].Time)
}

func TestScheduleManager_InitializeChecksProvider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.manager.Initialize(ctx, uuid.New(), 7)
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	inactive := env.addProvider(t, false)
	_, err = env.manager.Initialize(ctx, inactive, 7)
	assert.ErrorIs(t, err, calendar.ErrProviderInactive)

	_, err = env.manager.Initialize(ctx, uuid.Nil, 7)
	assert.ErrorIs(t, err, schedule.ErrInvalidConfig)
}

func TestScheduleManager_RenewIsGapFree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 7)
	require.NoError(t, err)

	res, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-12", res.From)
	assert.Equal(t, "2025-01-18", res.To)
	assert.Equal(t, "2025-01-15", res.NextRenewal)

	res, err = env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-19", res.From)
	assert.Equal(t, "2025-01-25", res.To)

	st, err := env.manager.Settings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", st.WindowStartDate)
	assert.Equal(t, "2025-01-25", st.WindowEndDate)
	assert.Equal(t, "2025-01-22", st.NextRenewalDate)

	// Каждый рабочий день от начала окна до конца материализован полностью.
	from, _ := calendar.ParseDate("2025-01-05", nil)
	to, _ := calendar.ParseDate("2025-01-25", nil)
	days, err := env.booking.GetAvailableSlots(ctx, providerID, "2025-01-05", "2025-01-25")
	require.NoError(t, err)

	byDate := map[string]DaySlots{}
	for _, d := range days {
		byDate[d.Date] = d
	}
	cfg := schedule.DefaultConfig(providerID)
	for _, date := range calendar.DatesBetween(from, to) {
		key := calendar.FormatDate(date)
		want := len(schedule.Generate(cfg, date))
		assert.Equal(t, want, len(byDate[key].Slots), "date %s", key)
	}
}

func TestScheduleManager_RenewWithoutWindowInitializes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	res, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", res.From)
	assert.Equal(t, "2025-02-03", res.To)
}

func TestScheduleManager_RenewFallsBackToSlotTable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.slots.InsertIfAbsent(ctx, []model.Slot{
		{ProviderID: providerID, Date: "2025-01-08", Time: "08:00", DurationMinutes: 30},
	})
	require.NoError(t, err)

	res, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-09", res.From)
	assert.Equal(t, "2025-02-07", res.To)

	st, err := env.manager.Settings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-09", st.WindowStartDate)
	assert.Equal(t, "2025-02-07", st.WindowEndDate)
}

func TestScheduleManager_CheckAndRenewAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	healthy := env.addProvider(t, true)
	broken := env.addProvider(t, true)
	retired := env.addProvider(t, true)
	notDue := env.addProvider(t, true)

	// Окно 10 дней с 2025-01-05: конец 2025-01-14, продление с 2025-01-11.
	for _, id := range []uuid.UUID{healthy, broken, retired} {
		_, err := env.manager.Initialize(ctx, id, 10)
		require.NoError(t, err)
	}

	require.NoError(t, env.cfgSvc.SetScheduleConfig(ctx, schedule.DefaultConfig(broken)))
	require.NoError(t, env.db.Model(&model.ScheduleConfig{}).
		Where("provider_id = ?", broken).
		Update("work_periods", `{"not":"a list"}`).Error)
	require.NoError(t, env.db.Model(&model.Provider{}).
		Where("id = ?", retired).
		Update("is_active", false).Error)

	env.clock.Set(day(2025, time.January, 11))
	_, err := env.manager.Initialize(ctx, notDue, 10)
	require.NoError(t, err)

	report, err := env.manager.CheckAndRenewAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{healthy}, report.Renewed)
	assert.Equal(t, 1, report.RenewedCount())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, broken, report.Failed[0].ProviderID)
	assert.True(t, errors.Is(report.Failed[0].Err, schedule.ErrInvalidConfig))
	assert.Equal(t, []uuid.UUID{retired}, report.Skipped)

	st, err := env.manager.Settings(ctx, healthy)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-24", st.WindowEndDate)
	assert.Equal(t, "2025-01-21", st.NextRenewalDate)
	assert.Equal(t, "2025-01-11", st.LastRenewalDate)

	st, err = env.manager.Settings(ctx, broken)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-14", st.WindowEndDate)

	st, err = env.manager.Settings(ctx, notDue)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-20", st.WindowEndDate)

	// Второй проход в тот же день: продлевать уже некого, кроме сломанного.
	report, err = env.manager.CheckAndRenewAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Renewed)
	assert.Len(t, report.Failed, 1)
}

func TestScheduleManager_CheckAndRenewAllSkipsDisabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 10)
	require.NoError(t, err)
	_, err = env.manager.SetRenewalPolicy(ctx, providerID, RenewalPolicy{AutoRenew: false, AdvanceDays: 3})
	require.NoError(t, err)

	env.clock.Set(day(2025, time.January, 20))
	report, err := env.manager.CheckAndRenewAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Renewed)
	assert.Empty(t, report.Failed)
}

func TestScheduleManager_SetRenewalPolicy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.SetRenewalPolicy(ctx, providerID, RenewalPolicy{AutoRenew: true, AdvanceDays: 3})
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	_, err = env.manager.Initialize(ctx, providerID, 10)
	require.NoError(t, err)

	st, err := env.manager.SetRenewalPolicy(ctx, providerID, RenewalPolicy{AutoRenew: true, AdvanceDays: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, st.RenewalAdvanceDays)
	assert.Equal(t, "2025-01-11", st.NextRenewalDate)

	_, err = env.manager.SetRenewalPolicy(ctx, providerID, RenewalPolicy{AutoRenew: true, AdvanceDays: 10})
	var cfgErr *schedule.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "renewal_advance_days", cfgErr.Field)
}

func TestScheduleManager_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 7)
	require.NoError(t, err)
	require.NoError(t, env.booking.Book(ctx, providerID, "2025-01-05", "08:00", "A1"))

	before, _ := calendar.ParseDate("2025-01-06", nil)
	n, err := env.manager.CleanupExpired(ctx, before)
	require.NoError(t, err)
	assert.EqualValues(t, defaultSlotsPerDay-1, n)

	slot, err := env.slots.Get(ctx, providerID, "2025-01-05", "08:00")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, slot.Status)
}

func TestScheduleManager_ReinitializeKeepsMaterializedDates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 0)
	require.NoError(t, err)
	renewed, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	require.Equal(t, "2025-03-05", renewed.To)
	materialized := env.countSlots(t, providerID)

	env.clock.Set(day(2025, time.January, 10))
	again, err := env.manager.Initialize(ctx, providerID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, again.Inserted)
	assert.Equal(t, "2025-01-05", again.From)
	assert.Equal(t, "2025-03-05", again.To)
	assert.Equal(t, "2025-03-02", again.NextRenewal)

	st, err := env.manager.Settings(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", st.WindowStartDate)
	assert.Equal(t, "2025-03-05", st.WindowEndDate)
	assert.Equal(t, "2025-01-10", st.LastRenewalDate)

	cfg := schedule.DefaultConfig(providerID)
	cfg.SlotDurationMinutes = 45
	cfg.BufferMinutes = 0
	require.NoError(t, env.cfgSvc.SetScheduleConfig(ctx, cfg))

	res, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-06", res.From)
	assert.Equal(t, "2025-04-04", res.To)

	// На уже материализованных датах не появилось второй сетки.
	var (
		old       int64
		mixedGrid int64
	)
	require.NoError(t, env.db.Model(&model.Slot{}).
		Where("provider_id = ? AND date <= ?", providerID, "2025-03-05").
		Count(&old).Error)
	assert.Equal(t, materialized, old)
	require.NoError(t, env.db.Model(&model.Slot{}).
		Where("provider_id = ? AND date <= ? AND duration_minutes = ?", providerID, "2025-03-05", 45).
		Count(&mixedGrid).Error)
	assert.Zero(t, mixedGrid)
}

func TestScheduleManager_RenewStartsAfterLatestStoredSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 10)
	require.NoError(t, err)

	// Слот за концом окна из настроек, например от прежнего развёртывания.
	_, err = env.slots.InsertIfAbsent(ctx, []model.Slot{
		{ProviderID: providerID, Date: "2025-01-20", Time: "08:00", DurationMinutes: 30},
	})
	require.NoError(t, err)

	res, err := env.manager.Renew(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-21", res.From)
	assert.Equal(t, "2025-01-30", res.To)
}

func TestScheduleManager_InitializeRejectsWindowLength(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	for _, days := range []int{-1, schedule.MaxWindowLengthDays + 1, 10_000_000, 3, 1} {
		_, err := env.manager.Initialize(ctx, providerID, days)
		var cfgErr *schedule.ConfigError
		require.True(t, errors.As(err, &cfgErr), "days=%d: got %v", days, err)
		assert.Equal(t, "window_length_days", cfgErr.Field)
	}

	_, err := env.manager.Settings(ctx, providerID)
	assert.ErrorIs(t, err, schedule.ErrNotFound)
	assert.Zero(t, env.countSlots(t, providerID))

	res, err := env.manager.Initialize(ctx, providerID, schedule.MaxWindowLengthDays)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", res.To)
}

func TestScheduleManager_Events(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	providerID := env.addProvider(t, true)

	_, err := env.manager.Initialize(ctx, providerID, 7)
	require.NoError(t, err)
	require.NoError(t, env.booking.Book(ctx, providerID, "2025-01-06", "08:00", "A1"))

	events, err := env.manager.Events(ctx, providerID, 0)
	require.NoError(t, err)
	types := make([]model.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType)
	}
	assert.ElementsMatch(t, []model.EventType{model.EventTypeWindowInitialized, model.EventTypeSlotBooked}, types)

	events, err = env.manager.Events(ctx, providerID, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = env.manager.Events(ctx, uuid.Nil, 0)
	assert.ErrorIs(t, err, schedule.ErrInvalidConfig)
}
