package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 10, 0, 0, 0, time.UTC)
}

type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	configs  *repository.GormScheduleConfigRepository
	settings *repository.GormScheduleSettingsRepository
	slots    *repository.GormSlotRepository
	events   *repository.GormSlotEventRepository
	dir      *repository.GormProviderRepository

	manager *ScheduleManager
	booking *BookingService
	cfgSvc  *ConfigService
}

// newTestEnv поднимает sqlite в памяти; «сегодня» — воскресенье 2025-01-05.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	env := &testEnv{
		db:       db,
		clock:    &fakeClock{t: day(2025, time.January, 5)},
		configs:  repository.NewGormScheduleConfigRepository(db),
		settings: repository.NewGormScheduleSettingsRepository(db),
		slots:    repository.NewGormSlotRepository(db),
		events:   repository.NewGormSlotEventRepository(db),
		dir:      repository.NewGormProviderRepository(db),
	}
	env.manager = NewScheduleManager(env.configs, env.settings, env.slots, env.events, env.dir, nil, ManagerConfig{
		WindowLengthDays:   30,
		RenewalAdvanceDays: 3,
		Concurrency:        2,
		Now:                env.clock.Now,
	})
	env.booking = NewBookingService(env.slots, nil)
	env.cfgSvc = NewConfigService(env.configs, env.dir, nil)
	return env
}

func (e *testEnv) addProvider(t *testing.T, active bool) uuid.UUID {
	t.Helper()
	p := model.Provider{ID: uuid.New(), DisplayName: "provider", IsActive: active}
	if err := e.db.Create(&p).Error; err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return p.ID
}

func (e *testEnv) countSlots(t *testing.T, providerID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.Slot{}).Where("provider_id = ?", providerID).Count(&n).Error; err != nil {
		t.Fatalf("count slots: %v", err)
	}
	return n
}
