package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/Leganyst/slot-engine/internal/schedule"
)

// AppConfig — всё, что нужно процессу кроме БД.
type AppConfig struct {
	GRPCAddr string
	HTTPAddr string
	LogLevel string

	Renewal  RenewalConfig
	Schedule ScheduleDefaults
	Redis    RedisConfig
}

// RenewalConfig — параметры фонового продления окна.
type RenewalConfig struct {
	Enabled     bool
	Interval    time.Duration
	Concurrency int
	LeaseTTL    time.Duration
	// 0 отключает удаление прошедших дат.
	CleanupAfterDays int
}

// ScheduleDefaults — значения для провайдеров без своих настроек.
type ScheduleDefaults struct {
	WindowDays         int
	RenewalAdvanceDays int
	TimeZone           string
	Location           *time.Location
}

// Пустой Addr отключает распределённую блокировку продления.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadDotEnv подхватывает .env, если он есть. Отсутствие файла не ошибка.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		GRPCAddr: getEnv("GRPC_ADDR", ":50051"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Renewal: RenewalConfig{
			Enabled:     getEnvBool("RENEWAL_ENABLED", true),
			Interval:    getEnvDuration("RENEWAL_INTERVAL", 6*time.Hour),
			Concurrency: getEnvInt("RENEWAL_CONCURRENCY", 4),
			LeaseTTL:    getEnvDuration("RENEWAL_LEASE_TTL", 10*time.Minute),

			CleanupAfterDays: getEnvInt("RENEWAL_CLEANUP_AFTER_DAYS", 0),
		},
		Schedule: ScheduleDefaults{
			WindowDays:         getEnvInt("DEFAULT_WINDOW_DAYS", 30),
			RenewalAdvanceDays: getEnvInt("DEFAULT_RENEWAL_ADVANCE_DAYS", 7),
			TimeZone:           getEnv("SCHEDULE_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate проверяет конфигурацию и разрешает таймзону.
func (c *AppConfig) Validate() error {
	if c.GRPCAddr == "" {
		return fmt.Errorf("GRPC_ADDR must not be empty")
	}
	if c.Renewal.Interval <= 0 {
		return fmt.Errorf("RENEWAL_INTERVAL must be positive")
	}
	if c.Renewal.Concurrency <= 0 {
		return fmt.Errorf("RENEWAL_CONCURRENCY must be positive")
	}
	if c.Renewal.CleanupAfterDays < 0 {
		return fmt.Errorf("RENEWAL_CLEANUP_AFTER_DAYS must not be negative")
	}
	if c.Redis.Addr != "" && c.Renewal.LeaseTTL <= 0 {
		return fmt.Errorf("RENEWAL_LEASE_TTL must be positive when REDIS_ADDR is set")
	}
	if c.Schedule.WindowDays <= 0 || c.Schedule.WindowDays > schedule.MaxWindowLengthDays {
		return fmt.Errorf("DEFAULT_WINDOW_DAYS must be in [1, %d]", schedule.MaxWindowLengthDays)
	}
	if c.Schedule.RenewalAdvanceDays < 0 || c.Schedule.RenewalAdvanceDays >= c.Schedule.WindowDays {
		return fmt.Errorf("DEFAULT_RENEWAL_ADVANCE_DAYS must be in [0, DEFAULT_WINDOW_DAYS)")
	}

	loc, err := time.LoadLocation(c.Schedule.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}
	c.Schedule.Location = loc

	return nil
}
