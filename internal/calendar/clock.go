package calendar

import (
	"errors"
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid time of day")

// Clock — время суток в минутах от полуночи.
// Рабочие периоды не переходят через полночь, поэтому даты здесь нет.
type Clock int

// NewClock собирает время суток из часов и минут.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock разбирает строку формата "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

// MustClock как ParseClock, но паникует. Только для констант и тестов.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String возвращает время в формате "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Valid сообщает, лежит ли значение внутри суток.
func (c Clock) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

// On переносит время суток на конкретную дату.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// AddMinutes сдвигает время суток на n минут с заворачиванием внутри суток.
func AddMinutes(c Clock, n int) Clock {
	v := (int(c) + n) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return Clock(v)
}

// Overlaps проверяет пересечение полуоткрытых интервалов [startA, endA) и [startB, endB).
func Overlaps(startA, endA, startB, endB Clock) bool {
	return !(endA <= startB || startA >= endB)
}

// MarshalText кодирует время как "HH:MM" (JSON и прочие текстовые форматы).
func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidClock, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
