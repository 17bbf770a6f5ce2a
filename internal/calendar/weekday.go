package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Weekday — канонический идентификатор дня недели, не зависящий от локали.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdayByTime = map[time.Weekday]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// Названия для отображения пользователю. Локализация — забота клиента,
// здесь только русский вариант по умолчанию.
var ruWeekdays = map[Weekday]string{
	Monday:    "Понедельник",
	Tuesday:   "Вторник",
	Wednesday: "Среда",
	Thursday:  "Четверг",
	Friday:    "Пятница",
	Saturday:  "Суббота",
	Sunday:    "Воскресенье",
}

// WeekdayName возвращает канонический день недели для даты.
func WeekdayName(date time.Time) Weekday {
	return weekdayByTime[date.Weekday()]
}

// ParseWeekday принимает имя дня недели без учёта регистра и пробелов.
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ruWeekdays[w]; !ok {
		return "", fmt.Errorf("unknown weekday %q", s)
	}
	return w, nil
}

// DisplayName — человекочитаемое название дня.
func (w Weekday) DisplayName() string {
	return ruWeekdays[w]
}

// ContainsWeekday проверяет вхождение дня в список.
func ContainsWeekday(list []Weekday, w Weekday) bool {
	for _, d := range list {
		if d == w {
			return true
		}
	}
	return false
}
