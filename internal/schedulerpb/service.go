package schedulerpb

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service path segment used by both the hand-wired
// ServiceDesc and the client stub below.
const ServiceName = "reddit.scheduler.Scheduler"

// SchedulerServer is the four-operation interface spec.md §4.3 describes.
// frontend.Servicer implements it.
type SchedulerServer interface {
	ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error)
	SchedulePost(context.Context, *SchedulePostRequest) (*SchedulePostResponse, error)
	EditPost(context.Context, *EditPostRequest) (*EditPostResponse, error)
	ListFlairs(context.Context, *ListFlairsRequest) (*ListFlairsResponse, error)
}

func listPostsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListPostsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).ListPosts(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ListPosts"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).ListPosts(ctx, req.(*ListPostsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func schedulePostHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(SchedulePostRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).SchedulePost(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/SchedulePost"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).SchedulePost(ctx, req.(*SchedulePostRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func editPostHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(EditPostRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).EditPost(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/EditPost"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).EditPost(ctx, req.(*EditPostRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func listFlairsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListFlairsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).ListFlairs(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ListFlairs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).ListFlairs(ctx, req.(*ListFlairsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is registered with a *grpc.Server via RegisterSchedulerServer.
// It is hand-written in place of a protoc-generated _grpc.pb.go file; each
// MethodDesc's Handler decodes the request with the server's configured
// codec (the jsonCodec registered in codec.go) and dispatches to
// SchedulerServer, exactly as generated code would.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListPosts", Handler: listPostsHandler},
		{MethodName: "SchedulePost", Handler: schedulePostHandler},
		{MethodName: "EditPost", Handler: editPostHandler},
		{MethodName: "ListFlairs", Handler: listFlairsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "schedulerpb/service.proto",
}

// RegisterSchedulerServer wires srv into gs under ServiceDesc.
func RegisterSchedulerServer(gs *grpc.Server, srv SchedulerServer) {
	gs.RegisterService(&ServiceDesc, srv)
}

// ─── CLIENT STUB ──────────────────────────────────────────────────────────────

// SchedulerClient is the client-side counterpart of SchedulerServer, used by
// cmd/scheduler-cli.
type SchedulerClient interface {
	ListPosts(ctx context.Context, req *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error)
	SchedulePost(ctx context.Context, req *SchedulePostRequest, opts ...grpc.CallOption) (*SchedulePostResponse, error)
	EditPost(ctx context.Context, req *EditPostRequest, opts ...grpc.CallOption) (*EditPostResponse, error)
	ListFlairs(ctx context.Context, req *ListFlairsRequest, opts ...grpc.CallOption) (*ListFlairsResponse, error)
}

type schedulerClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerClient builds a client bound to cc, forcing every call onto
// the "json" content-subtype registered in codec.go so it round-trips with
// the hand-wired ServiceDesc above.
func NewSchedulerClient(cc grpc.ClientConnInterface) SchedulerClient {
	return &schedulerClient{cc: cc}
}

func (c *schedulerClient) ListPosts(ctx context.Context, req *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error) {
	out := new(ListPostsResponse)
	opts = append(opts, grpc.CallContentSubtype(codecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListPosts", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) SchedulePost(ctx context.Context, req *SchedulePostRequest, opts ...grpc.CallOption) (*SchedulePostResponse, error) {
	out := new(SchedulePostResponse)
	opts = append(opts, grpc.CallContentSubtype(codecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/SchedulePost", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) EditPost(ctx context.Context, req *EditPostRequest, opts ...grpc.CallOption) (*EditPostResponse, error) {
	out := new(EditPostResponse)
	opts = append(opts, grpc.CallContentSubtype(codecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/EditPost", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerClient) ListFlairs(ctx context.Context, req *ListFlairsRequest, opts ...grpc.CallOption) (*ListFlairsResponse, error) {
	out := new(ListFlairsResponse)
	opts = append(opts, grpc.CallContentSubtype(codecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListFlairs", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
