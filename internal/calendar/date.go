package calendar

import (
	"fmt"
	"time"
)

// DateLayout — формат хранения дат слотов и настроек.
const DateLayout = "2006-01-02"

// DateOnly отбрасывает время, оставляя полночь в той же локации.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// FormatDate форматирует дату в YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate разбирает YYYY-MM-DD в полночь указанной локации (UTC, если loc == nil).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays сдвигает дату на n календарных дней.
func AddDays(date time.Time, n int) time.Time {
	return DateOnly(date).AddDate(0, 0, n)
}

// DatesBetween возвращает все даты от from до to включительно.
// Если to раньше from, список пуст.
func DatesBetween(from, to time.Time) []time.Time {
	from, to = DateOnly(from), DateOnly(to)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
