// Package schedulingv1 описывает gRPC-сервис slotengine.v1.Scheduling.
//
// Сообщения передаются как google.protobuf.Struct, поля запросов и ответов перечислены
// у методов SchedulingServer. Описание сервиса собрано вручную в том же
// виде, что выдаёт protoc-gen-go-grpc.
package schedulingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "slotengine.v1.Scheduling"

const (
	Scheduling_GetAvailableSlots_FullMethodName   = "/slotengine.v1.Scheduling/GetAvailableSlots"
	Scheduling_BookSlot_FullMethodName            = "/slotengine.v1.Scheduling/BookSlot"
	Scheduling_ReleaseSlot_FullMethodName         = "/slotengine.v1.Scheduling/ReleaseSlot"
	Scheduling_CheckConflict_FullMethodName       = "/slotengine.v1.Scheduling/CheckConflict"
	Scheduling_SetScheduleConfig_FullMethodName   = "/slotengine.v1.Scheduling/SetScheduleConfig"
	Scheduling_GetScheduleConfig_FullMethodName   = "/slotengine.v1.Scheduling/GetScheduleConfig"
	Scheduling_InitializeSchedule_FullMethodName  = "/slotengine.v1.Scheduling/InitializeSchedule"
	Scheduling_RenewSchedule_FullMethodName       = "/slotengine.v1.Scheduling/RenewSchedule"
	Scheduling_RenewAll_FullMethodName            = "/slotengine.v1.Scheduling/RenewAll"
	Scheduling_GetScheduleSettings_FullMethodName = "/slotengine.v1.Scheduling/GetScheduleSettings"
	Scheduling_SetRenewalPolicy_FullMethodName    = "/slotengine.v1.Scheduling/SetRenewalPolicy"
	Scheduling_ListSlotEvents_FullMethodName      = "/slotengine.v1.Scheduling/ListSlotEvents"
)

// SchedulingServer is the server API for Scheduling service.
type SchedulingServer interface {
	// {provider_id, date_from, date_to, page?, page_size?} -> {days: [{date, weekday, available, booked, blocked, slots: [...]}], page?...}
	GetAvailableSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, date, time, appointment_id} -> {}
	BookSlot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, date, time} | {appointment_id} -> {released}
	ReleaseSlot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, date, start, duration_minutes} -> {conflict, with?}
	CheckConflict(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// конфигурация в JSON-виде -> {}
	SetScheduleConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id} -> {config, is_default}
	GetScheduleConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, window_length_days?} -> окно
	InitializeSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id} -> окно
	RenewSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {} -> {renewed: [...], failed: [{provider_id, error}], skipped: [...]}
	RenewAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id} -> состояние окна и политика продления
	GetScheduleSettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, auto_renew_enabled?, renewal_advance_days?} -> состояние окна
	SetRenewalPolicy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {provider_id, limit?} -> {events: [...]}, новые первыми
	ListSlotEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedSchedulingServer встраивается в реализации для совместимости вперёд.
type UnimplementedSchedulingServer struct{}

func (UnimplementedSchedulingServer) GetAvailableSlots(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvailableSlots not implemented")
}
func (UnimplementedSchedulingServer) BookSlot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method BookSlot not implemented")
}
func (UnimplementedSchedulingServer) ReleaseSlot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ReleaseSlot not implemented")
}
func (UnimplementedSchedulingServer) CheckConflict(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckConflict not implemented")
}
func (UnimplementedSchedulingServer) SetScheduleConfig(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetScheduleConfig not implemented")
}
func (UnimplementedSchedulingServer) GetScheduleConfig(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetScheduleConfig not implemented")
}
func (UnimplementedSchedulingServer) InitializeSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method InitializeSchedule not implemented")
}
func (UnimplementedSchedulingServer) RenewSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RenewSchedule not implemented")
}
func (UnimplementedSchedulingServer) RenewAll(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RenewAll not implemented")
}
func (UnimplementedSchedulingServer) GetScheduleSettings(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetScheduleSettings not implemented")
}
func (UnimplementedSchedulingServer) SetRenewalPolicy(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetRenewalPolicy not implemented")
}
func (UnimplementedSchedulingServer) ListSlotEvents(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSlotEvents not implemented")
}

func RegisterSchedulingServer(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&Scheduling_ServiceDesc, srv)
}

type unaryCall func(SchedulingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Scheduling_ServiceDesc is the grpc.ServiceDesc for Scheduling service.
var Scheduling_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAvailableSlots",
			Handler:    unaryHandler(Scheduling_GetAvailableSlots_FullMethodName, SchedulingServer.GetAvailableSlots),
		},
		{
			MethodName: "BookSlot",
			Handler:    unaryHandler(Scheduling_BookSlot_FullMethodName, SchedulingServer.BookSlot),
		},
		{
			MethodName: "ReleaseSlot",
			Handler:    unaryHandler(Scheduling_ReleaseSlot_FullMethodName, SchedulingServer.ReleaseSlot),
		},
		{
			MethodName: "CheckConflict",
			Handler:    unaryHandler(Scheduling_CheckConflict_FullMethodName, SchedulingServer.CheckConflict),
		},
		{
			MethodName: "SetScheduleConfig",
			Handler:    unaryHandler(Scheduling_SetScheduleConfig_FullMethodName, SchedulingServer.SetScheduleConfig),
		},
		{
			MethodName: "GetScheduleConfig",
			Handler:    unaryHandler(Scheduling_GetScheduleConfig_FullMethodName, SchedulingServer.GetScheduleConfig),
		},
		{
			MethodName: "InitializeSchedule",
			Handler:    unaryHandler(Scheduling_InitializeSchedule_FullMethodName, SchedulingServer.InitializeSchedule),
		},
		{
			MethodName: "RenewSchedule",
			Handler:    unaryHandler(Scheduling_RenewSchedule_FullMethodName, SchedulingServer.RenewSchedule),
		},
		{
			MethodName: "RenewAll",
			Handler:    unaryHandler(Scheduling_RenewAll_FullMethodName, SchedulingServer.RenewAll),
		},
		{
			MethodName: "GetScheduleSettings",
			Handler:    unaryHandler(Scheduling_GetScheduleSettings_FullMethodName, SchedulingServer.GetScheduleSettings),
		},
		{
			MethodName: "SetRenewalPolicy",
			Handler:    unaryHandler(Scheduling_SetRenewalPolicy_FullMethodName, SchedulingServer.SetRenewalPolicy),
		},
		{
			MethodName: "ListSlotEvents",
			Handler:    unaryHandler(Scheduling_ListSlotEvents_FullMethodName, SchedulingServer.ListSlotEvents),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "slotengine/v1/scheduling.proto",
}

// SchedulingClient is the client API for Scheduling service.
type SchedulingClient interface {
	GetAvailableSlots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	BookSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ReleaseSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CheckConflict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetScheduleConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetScheduleConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	InitializeSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RenewSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RenewAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetScheduleSettings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetRenewalPolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListSlotEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type schedulingClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingClient(cc grpc.ClientConnInterface) SchedulingClient {
	return &schedulingClient{cc}
}

func (c *schedulingClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulingClient) GetAvailableSlots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_GetAvailableSlots_FullMethodName, in, opts...)
}

func (c *schedulingClient) BookSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_BookSlot_FullMethodName, in, opts...)
}

func (c *schedulingClient) ReleaseSlot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_ReleaseSlot_FullMethodName, in, opts...)
}

func (c *schedulingClient) CheckConflict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_CheckConflict_FullMethodName, in, opts...)
}

func (c *schedulingClient) SetScheduleConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_SetScheduleConfig_FullMethodName, in, opts...)
}

func (c *schedulingClient) GetScheduleConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_GetScheduleConfig_FullMethodName, in, opts...)
}

func (c *schedulingClient) InitializeSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_InitializeSchedule_FullMethodName, in, opts...)
}

func (c *schedulingClient) RenewSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_RenewSchedule_FullMethodName, in, opts...)
}

func (c *schedulingClient) RenewAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_RenewAll_FullMethodName, in, opts...)
}

func (c *schedulingClient) GetScheduleSettings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_GetScheduleSettings_FullMethodName, in, opts...)
}

func (c *schedulingClient) SetRenewalPolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_SetRenewalPolicy_FullMethodName, in, opts...)
}

func (c *schedulingClient) ListSlotEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Scheduling_ListSlotEvents_FullMethodName, in, opts...)
}
