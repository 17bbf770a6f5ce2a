package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	schedulingv1 "github.com/Leganyst/slot-engine/internal/api/schedulingv1"
	"github.com/Leganyst/slot-engine/internal/calendar"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/schedule"
)

// SchedulingServer — gRPC-обёртка над менеджером окна, бронированием и конфигурацией.
type SchedulingServer struct {
	schedulingv1.UnimplementedSchedulingServer

	manager *ScheduleManager
	booking *BookingService
	configs *ConfigService
}

func NewSchedulingServer(
	manager *ScheduleManager,
	booking *BookingService,
	configs *ConfigService,
) *SchedulingServer {
	return &SchedulingServer{
		manager: manager,
		booking: booking,
		configs: configs,
	}
}

func (s *SchedulingServer) GetAvailableSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}

	days, err := s.booking.GetAvailableSlots(ctx, providerID, stringField(req, "date_from"), stringField(req, "date_to"))
	if err != nil {
		return nil, toStatus(err)
	}

	// Без page_size отдаются все дни диапазона.
	resp := map[string]any{}
	if pageSize := intField(req, "page_size"); pageSize > 0 {
		page := calendar.Paginate(days, intField(req, "page"), pageSize)
		days = page.Items
		resp["page"] = page.Page
		resp["page_size"] = page.PageSize
		resp["total"] = page.Total
		resp["total_pages"] = page.TotalPages
		resp["has_next"] = page.HasNext
		resp["has_prev"] = page.HasPrev
	}

	out := make([]any, 0, len(days))
	for _, d := range days {
		slots := make([]any, 0, len(d.Slots))
		for _, slot := range d.Slots {
			slots = append(slots, slotMap(slot))
		}
		out = append(out, map[string]any{
			"date":      d.Date,
			"weekday":   string(d.Weekday),
			"available": d.Available,
			"booked":    d.Booked,
			"blocked":   d.Blocked,
			"slots":     slots,
		})
	}
	resp["days"] = out
	return newStruct(resp)
}

func (s *SchedulingServer) BookSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	err = s.booking.Book(ctx, providerID,
		stringField(req, "date"),
		stringField(req, "time"),
		stringField(req, "appointment_id"),
	)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"status": string(model.SlotStatusBooked)})
}

// ReleaseSlot освобождает слот по ключу или все слоты записи по appointment_id.
func (s *SchedulingServer) ReleaseSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if appointmentID := stringField(req, "appointment_id"); appointmentID != "" && stringField(req, "date") == "" {
		n, err := s.booking.ReleaseByAppointment(ctx, appointmentID)
		if err != nil {
			return nil, toStatus(err)
		}
		return newStruct(map[string]any{"released": n})
	}

	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	if err := s.booking.Release(ctx, providerID, stringField(req, "date"), stringField(req, "time")); err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"released": 1})
}

func (s *SchedulingServer) CheckConflict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	res, err := s.booking.ConflictCheck(ctx, providerID,
		stringField(req, "date"),
		stringField(req, "start"),
		intField(req, "duration_minutes"),
	)
	if err != nil {
		return nil, toStatus(err)
	}

	out := map[string]any{"conflict": res.Conflict}
	if res.With != nil {
		out["with"] = slotMap(*res.With)
	}
	return newStruct(out)
}

func (s *SchedulingServer) SetScheduleConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode config: %v", err)
	}
	var cfg schedule.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode config: %v", err)
	}

	if err := s.configs.SetScheduleConfig(ctx, cfg); err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"provider_id": cfg.ProviderID.String()})
}

func (s *SchedulingServer) GetScheduleConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	cfg, isDefault, err := s.configs.GetScheduleConfig(ctx, providerID)
	if err != nil {
		return nil, toStatus(err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode config: %v", err)
	}
	cfgStruct := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, cfgStruct); err != nil {
		return nil, status.Errorf(codes.Internal, "encode config: %v", err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"config":     structpb.NewStructValue(cfgStruct),
		"is_default": structpb.NewBoolValue(isDefault),
	}}, nil
}

func (s *SchedulingServer) InitializeSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	res, err := s.manager.Initialize(ctx, providerID, intField(req, "window_length_days"))
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(windowMap(res))
}

func (s *SchedulingServer) RenewSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	res, err := s.manager.Renew(ctx, providerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(windowMap(res))
}

func (s *SchedulingServer) RenewAll(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report, err := s.manager.CheckAndRenewAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	failed := make([]any, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, map[string]any{
			"provider_id": f.ProviderID.String(),
			"error":       f.Err.Error(),
		})
	}
	return newStruct(map[string]any{
		"renewed": idList(report.Renewed),
		"failed":  failed,
		"skipped": idList(report.Skipped),
	})
}

func (s *SchedulingServer) GetScheduleSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	st, err := s.manager.Settings(ctx, providerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(settingsMap(st))
}

// SetRenewalPolicy меняет только переданные поля, остальные берутся из текущих настроек.
func (s *SchedulingServer) SetRenewalPolicy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	current, err := s.manager.Settings(ctx, providerID)
	if err != nil {
		return nil, toStatus(err)
	}

	policy := RenewalPolicy{
		AutoRenew:   current.AutoRenewEnabled,
		AdvanceDays: current.RenewalAdvanceDays,
	}
	if v, ok := req.GetFields()["auto_renew_enabled"]; ok {
		if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
			return nil, status.Error(codes.InvalidArgument, "auto_renew_enabled must be a bool")
		}
		policy.AutoRenew = v.GetBoolValue()
	}
	if _, ok := req.GetFields()["renewal_advance_days"]; ok {
		policy.AdvanceDays = intField(req, "renewal_advance_days")
	}

	st, err := s.manager.SetRenewalPolicy(ctx, providerID, policy)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(settingsMap(st))
}

func (s *SchedulingServer) ListSlotEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := providerIDField(req)
	if err != nil {
		return nil, err
	}
	events, err := s.manager.Events(ctx, providerID, intField(req, "limit"))
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]any, 0, len(events))
	for _, ev := range events {
		m := map[string]any{
			"id":         ev.ID.String(),
			"event_type": string(ev.EventType),
			"created_at": ev.CreatedAt.UTC().Format(time.RFC3339),
			"date":       ev.Date,
			"time":       ev.Time,
			"details":    ev.Details,
		}
		if ev.AppointmentID != nil {
			m["appointment_id"] = *ev.AppointmentID
		}
		out = append(out, m)
	}
	return newStruct(map[string]any{"events": out})
}

// toStatus переводит доменные ошибки в коды gRPC.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *schedule.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, schedule.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, schedule.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, calendar.ErrProviderInactive):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func providerIDField(req *structpb.Struct) (uuid.UUID, error) {
	raw := stringField(req, "provider_id")
	if raw == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "provider_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid provider_id: %v", err)
	}
	return id, nil
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// intField обрезает число до диапазона int32: дальше его проверяет сервис.
func intField(req *structpb.Struct, name string) int {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0
	}
	n := v.GetNumberValue()
	switch {
	case math.IsNaN(n):
		return 0
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int(n)
}

func slotMap(slot model.Slot) map[string]any {
	m := map[string]any{
		"date":             slot.Date,
		"time":             slot.Time,
		"duration_minutes": slot.DurationMinutes,
		"status":           string(slot.Status),
		"period_label":     slot.PeriodLabel,
		"kind":             slot.Kind,
	}
	if slot.AppointmentID != nil {
		m["appointment_id"] = *slot.AppointmentID
	}
	return m
}

func windowMap(res *WindowResult) map[string]any {
	return map[string]any{
		"provider_id":       res.ProviderID.String(),
		"window_start":      res.From,
		"window_end":        res.To,
		"inserted":          res.Inserted,
		"next_renewal_date": res.NextRenewal,
	}
}

func settingsMap(st *model.ScheduleSettings) map[string]any {
	return map[string]any{
		"provider_id":          st.ProviderID.String(),
		"window_length_days":   st.WindowLengthDays,
		"auto_renew_enabled":   st.AutoRenewEnabled,
		"renewal_advance_days": st.RenewalAdvanceDays,
		"window_start":         st.WindowStartDate,
		"window_end":           st.WindowEndDate,
		"last_renewal_date":    st.LastRenewalDate,
		"next_renewal_date":    st.NextRenewalDate,
	}
}

func idList(ids []uuid.UUID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
