package schedule

import (
	"time"

	"github.com/Leganyst/slot-engine/internal/calendar"
)

// Candidate описывает слот-кандидат на конкретную дату.
type Candidate struct {
	Date            time.Time
	Start           calendar.Clock
	End             calendar.Clock
	DurationMinutes int
	PeriodLabel     string
	Kind            SlotKind
}

// Generate строит кандидатов на дату по конфигурации. Чистая функция.
//
// Внутри периода слот выдаётся, пока slotEnd+buffer <= period.End; курсор
// сдвигается на duration+buffer. Слоты, задевающие перерыв, отбрасываются.
// Порядок: по периодам, внутри периода по времени. Пересекающиеся периоды
// дают дубли, их снимает уникальный ключ хранилища.
func Generate(cfg Config, date time.Time) []Candidate {
	if !calendar.ContainsWeekday(cfg.WorkDays, calendar.WeekdayName(date)) {
		return nil
	}
	if cfg.SlotDurationMinutes <= 0 || cfg.BufferMinutes < 0 {
		return nil
	}

	day := calendar.DateOnly(date)
	step := cfg.SlotDurationMinutes + cfg.BufferMinutes

	var out []Candidate
	for _, p := range cfg.EffectivePeriods() {
		kind := p.Kind
		if kind == "" {
			kind = SlotKindRegular
		}

		// Считаем в целых минутах, чтобы не заворачиваться через полночь.
		for cursor := int(p.Start); cursor+step <= int(p.End); cursor += step {
			start := calendar.Clock(cursor)
			end := calendar.Clock(cursor + cfg.SlotDurationMinutes)
			if hitsBreak(cfg.Breaks, start, end) {
				continue
			}
			out = append(out, Candidate{
				Date:            day,
				Start:           start,
				End:             end,
				DurationMinutes: cfg.SlotDurationMinutes,
				PeriodLabel:     p.Label,
				Kind:            kind,
			})
		}
	}
	return out
}

func hitsBreak(breaks []Break, start, end calendar.Clock) bool {
	for _, b := range breaks {
		if calendar.Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
