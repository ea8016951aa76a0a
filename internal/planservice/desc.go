package planservice

import (
	"context"

	"google.golang.org/grpc"

	"github.com/cory-johannsen/stashplan/internal/allocation"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stashplan.v1.Planner"

// PlannerServer is the server API of the planner service.
type PlannerServer interface {
	Plan(context.Context, *PlanRequest) (*allocation.Report, error)
	Suggest(context.Context, *SuggestRequest) (*allocation.Suggestion, error)
	Recommend(context.Context, *RecommendRequest) (*RecommendResponse, error)
	GetPreferences(context.Context, *GetPreferencesRequest) (*PreferencesResponse, error)
	PutPreferences(context.Context, *PutPreferencesRequest) (*PreferencesResponse, error)
}

// PlannerServiceDesc describes the planner service for grpc.Server.RegisterService.
var PlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Plan", PlannerServer.Plan),
		unaryMethod("Suggest", PlannerServer.Suggest),
		unaryMethod("Recommend", PlannerServer.Recommend),
		unaryMethod("GetPreferences", PlannerServer.GetPreferences),
		unaryMethod("PutPreferences", PlannerServer.PutPreferences),
	},
	Metadata: "stashplan/v1/planner",
}

// RegisterPlannerServer registers srv with s.
//
// Precondition: srv must be non-nil.
func RegisterPlannerServer(s grpc.ServiceRegistrar, srv PlannerServer) {
	s.RegisterService(&PlannerServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryMethod[Req, Resp any](name string, call func(PlannerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PlannerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PlannerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
