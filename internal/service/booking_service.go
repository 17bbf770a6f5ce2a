package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/metrics"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/repository"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// Максимальная ширина запроса GetAvailableSlots в днях.
const maxListRangeDays = 366

// DaySlots содержит слоты одной даты и счётчики по статусам.
type DaySlots struct {
	Date    string
	Weekday calendar.Weekday
	Slots   []model.Slot

	Available int
	Booked    int
	Blocked   int
}

// With заполнен только при конфликте.
type ConflictResult struct {
	Conflict bool
	With     *model.Slot
}

// BookingService — единственный путь, которым слот уходит из available.
// Взаимное исключение обеспечивает условный UPDATE в хранилище, а не блокировки в процессе.
type BookingService struct {
	slots repository.SlotRepository
	log   *zap.Logger
}

func NewBookingService(slots repository.SlotRepository, log *zap.Logger) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{slots: slots, log: log.Named("booking")}
}

// Book переводит слот available -> booked. Занятый, заблокированный или
// отсутствующий слот дают schedule.ErrConflict.
func (s *BookingService) Book(
	ctx context.Context,
	providerID uuid.UUID,
	date, clock, appointmentID string,
) error {
	key, err := normalizeSlotKey(providerID, date, clock)
	if err != nil {
		return err
	}
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return &schedule.ConfigError{Field: "appointment_id", Reason: "is required"}
	}

	err = s.slots.MarkBooked(ctx, providerID, key.date, key.clock, appointmentID)
	switch {
	case errors.Is(err, schedule.ErrConflict):
		metrics.BookingConflicts.Inc()
		s.log.Info("slot booking conflict",
			zap.String("provider_id", providerID.String()),
			zap.String("date", key.date),
			zap.String("time", key.clock),
			zap.String("appointment_id", appointmentID),
		)
		return err
	case err != nil:
		return err
	}

	metrics.SlotsBooked.Inc()
	s.log.Info("slot booked",
		zap.String("provider_id", providerID.String()),
		zap.String("date", key.date),
		zap.String("time", key.clock),
		zap.String("appointment_id", appointmentID),
	)
	return nil
}

// Release переводит слот booked -> available. Иначе schedule.ErrNotFound.
func (s *BookingService) Release(ctx context.Context, providerID uuid.UUID, date, clock string) error {
	key, err := normalizeSlotKey(providerID, date, clock)
	if err != nil {
		return err
	}
	if err := s.slots.MarkAvailable(ctx, providerID, key.date, key.clock); err != nil {
		return err
	}

	metrics.SlotsReleased.Inc()
	s.log.Info("slot released",
		zap.String("provider_id", providerID.String()),
		zap.String("date", key.date),
		zap.String("time", key.clock),
	)
	return nil
}

// ReleaseByAppointment вызывается при отмене записи и освобождает все её слоты.
func (s *BookingService) ReleaseByAppointment(ctx context.Context, appointmentID string) (int64, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return 0, &schedule.ConfigError{Field: "appointment_id", Reason: "is required"}
	}
	n, err := s.slots.ReleaseByAppointment(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	metrics.SlotsReleased.Add(float64(n))
	s.log.Info("appointment slots released",
		zap.String("appointment_id", appointmentID),
		zap.Int64("released", n),
	)
	return n, nil
}

// ConflictCheck проверяет, пересекается ли [start, start+duration) с
// занятыми (booked/blocked) слотами даты.
func (s *BookingService) ConflictCheck(
	ctx context.Context,
	providerID uuid.UUID,
	date, start string,
	durationMinutes int,
) (ConflictResult, error) {
	key, err := normalizeSlotKey(providerID, date, start)
	if err != nil {
		return ConflictResult{}, err
	}
	if durationMinutes <= 0 || durationMinutes > calendar.MinutesPerDay {
		return ConflictResult{}, &schedule.ConfigError{
			Field:  "duration_minutes",
			Reason: fmt.Sprintf("must be in [1, %d], got %d", calendar.MinutesPerDay, durationMinutes),
		}
	}

	occupied, err := s.slots.ListOccupied(ctx, providerID, key.date)
	if err != nil {
		return ConflictResult{}, err
	}

	day, _ := calendar.ParseDate(key.date, nil)
	proposed := calendar.SlotRange(day, calendar.MustClock(key.clock), durationMinutes)
	existing := make([]calendar.TimeRange, 0, len(occupied))
	for i := range occupied {
		slotStart, err := calendar.ParseClock(occupied[i].Time)
		if err != nil {
			return ConflictResult{}, &schedule.StoreError{Op: "parse slot time", Err: err}
		}
		existing = append(existing, calendar.SlotRange(day, slotStart, occupied[i].DurationMinutes))
	}

	has, conflicts := calendar.HasOverlap(proposed, existing, false)
	if !has {
		return ConflictResult{}, nil
	}
	// Начало слота уникально в пределах даты.
	for i := range existing {
		if !existing[i].Start.Equal(conflicts[0].Start) {
			continue
		}
		s.log.Debug("proposed interval conflicts with occupied slot",
			zap.String("provider_id", providerID.String()),
			zap.String("requested", calendar.FormatSlotForUser(proposed, nil)),
			zap.String("occupied", calendar.FormatSlotForUser(existing[i], nil)),
			zap.String("status", string(occupied[i].Status)),
		)
		return ConflictResult{Conflict: true, With: &occupied[i]}, nil
	}
	return ConflictResult{Conflict: true}, nil
}

// GetAvailableSlots возвращает слоты за даты [from, to] по дням.
// Даты без слотов не попадают в результат.
func (s *BookingService) GetAvailableSlots(
	ctx context.Context,
	providerID uuid.UUID,
	from, to string,
) ([]DaySlots, error) {
	if providerID == uuid.Nil {
		return nil, &schedule.ConfigError{Field: "provider_id", Reason: "is required"}
	}
	fromDate, err := calendar.ParseDate(from, nil)
	if err != nil {
		return nil, &schedule.ConfigError{Field: "date_from", Reason: err.Error()}
	}
	toDate, err := calendar.ParseDate(to, nil)
	if err != nil {
		return nil, &schedule.ConfigError{Field: "date_to", Reason: err.Error()}
	}
	if toDate.Before(fromDate) {
		return nil, &schedule.ConfigError{Field: "date_to", Reason: "must not be before date_from"}
	}
	if days := int(toDate.Sub(fromDate).Hours() / 24); days >= maxListRangeDays {
		return nil, &schedule.ConfigError{
			Field:  "date_to",
			Reason: fmt.Sprintf("range is limited to %d days", maxListRangeDays),
		}
	}

	slots, err := s.slots.ListByProviderRange(ctx, providerID, calendar.FormatDate(fromDate), calendar.FormatDate(toDate))
	if err != nil {
		return nil, err
	}
	return groupByDate(slots), nil
}

// groupByDate ожидает слоты, отсортированные по дате и времени.
func groupByDate(slots []model.Slot) []DaySlots {
	var out []DaySlots
	for _, slot := range slots {
		if len(out) == 0 || out[len(out)-1].Date != slot.Date {
			day := DaySlots{Date: slot.Date}
			if d, err := calendar.ParseDate(slot.Date, nil); err == nil {
				day.Weekday = calendar.WeekdayName(d)
			}
			out = append(out, day)
		}
		day := &out[len(out)-1]
		day.Slots = append(day.Slots, slot)
		switch slot.Status {
		case model.SlotStatusAvailable:
			day.Available++
		case model.SlotStatusBooked:
			day.Booked++
		case model.SlotStatusBlocked:
			day.Blocked++
		}
	}
	return out
}

type slotKey struct {
	date  string
	clock string
}

// normalizeSlotKey проверяет дату и время и приводит их к формату хранения.
func normalizeSlotKey(providerID uuid.UUID, date, clock string) (slotKey, error) {
	if providerID == uuid.Nil {
		return slotKey{}, &schedule.ConfigError{Field: "provider_id", Reason: "is required"}
	}
	d, err := calendar.ParseDate(strings.TrimSpace(date), nil)
	if err != nil {
		return slotKey{}, &schedule.ConfigError{Field: "date", Reason: err.Error()}
	}
	c, err := calendar.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return slotKey{}, &schedule.ConfigError{Field: "time", Reason: err.Error()}
	}
	return slotKey{date: calendar.FormatDate(d), clock: c.String()}, nil
}
