package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — нет конфигурации, слота или настроек.
	ErrNotFound = errors.New("not found")
	// ErrConflict — слот уже занят, заблокирован или не существует.
	ErrConflict = errors.New("slot is not available")
	// Базовая ошибка для всех ConfigError.
	ErrInvalidConfig = errors.New("invalid schedule config")
)

// ConfigError описывает отклонённую конфигурацию расписания.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidConfig, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StoreError оборачивает сбой хранилища. Повторы остаются на вызывающей стороне.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore оборачивает err в StoreError, пропуская nil и доменные ошибки.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidConfig) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
