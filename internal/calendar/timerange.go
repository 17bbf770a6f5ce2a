package calendar

import (
	"fmt"
	"time"
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SlotRange переводит слот (дата, начало, длительность) в абсолютный интервал
// в часовом поясе date.
func SlotRange(date time.Time, start Clock, durationMinutes int) TimeRange {
	from := start.On(date)
	return TimeRange{Start: from, End: from.Add(time.Duration(durationMinutes) * time.Minute)}
}

// HasOverlap проверяет, пересекается ли newRange с existing.
// При inclusive касание концами считается пересечением.
func HasOverlap(
	newRange TimeRange,
	existing []TimeRange,
	inclusive bool,
) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if rangesOverlap(newRange, tr, inclusive) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

func rangesOverlap(a, b TimeRange, inclusive bool) bool {
	if inclusive {
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}

	// Полуоткрытые интервалы [Start, End)
	// пересекаются, если a.Start < b.End && b.Start < a.End
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FormatSlotForUser форматирует интервал в человекочитаемую строку,
// например "Понедельник, 06.01.2025, 08:00–08:30".
func FormatSlotForUser(tr TimeRange, loc *time.Location) string {
	start := tr.Start
	end := tr.End

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	return fmt.Sprintf("%s, %s, %s–%s",
		WeekdayName(start).DisplayName(),
		start.Format("02.01.2006"),
		start.Format("15:04"),
		end.Format("15:04"),
	)
}
