package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "studyplanner.v1.PlannerService"

// PlannerServer is the handler type registered for ServiceName.
type PlannerServer interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ PlannerServer = (*PlannerService)(nil)

type unaryCall func(PlannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PlannerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PlannerServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes PlannerService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartSession", PlannerServer.StartSession),
		unary("SubmitProfile", PlannerServer.SubmitProfile),
		unary("Generate", PlannerServer.Generate),
		unary("GetSnapshot", PlannerServer.GetSnapshot),
		unary("Reset", PlannerServer.Reset),
		unary("Export", PlannerServer.Export),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "studyplanner/v1/planner.proto",
}

// RegisterPlannerServer registers srv on s.
func RegisterPlannerServer(s grpc.ServiceRegistrar, srv PlannerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
