package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "picklewickel.scores.v1.Scores"

// ScoresServer is the server API for the Scores service. Requests and
// responses are JSON-shaped google.protobuf.Struct messages carrying the
// same fields as the HTTP API.
type ScoresServer interface {
	GetSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestScrape(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, Scores_StreamEventsServer) error
}

// Scores_StreamEventsServer is the server side of StreamEvents
type Scores_StreamEventsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type scoresStreamEventsServer struct {
	grpc.ServerStream
}

func (x *scoresStreamEventsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterScoresServer registers srv on s.
func RegisterScoresServer(s grpc.ServiceRegistrar, srv ScoresServer) {
	s.RegisterService(&Scores_ServiceDesc, srv)
}

func unaryHandler(method string, call func(ScoresServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScoresServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ScoresServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ScoresServer).StreamEvents(m, &scoresStreamEventsServer{stream})
}

// Scores_ServiceDesc is the grpc.ServiceDesc for the Scores service.
var Scores_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoresServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSchedule", Handler: unaryHandler("GetSchedule", ScoresServer.GetSchedule)},
		{MethodName: "GetMatch", Handler: unaryHandler("GetMatch", ScoresServer.GetMatch)},
		{MethodName: "IngestScrape", Handler: unaryHandler("IngestScrape", ScoresServer.IngestScrape)},
		{MethodName: "ApproveMatch", Handler: unaryHandler("ApproveMatch", ScoresServer.ApproveMatch)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: streamEventsHandler, ServerStreams: true},
	},
	Metadata: "picklewickel/scores/v1/scores.proto",
}

// ScoresClient is the client API for the Scores service
type ScoresClient struct {
	cc grpc.ClientConnInterface
}

// NewScoresClient wraps a connection.
func NewScoresClient(cc grpc.ClientConnInterface) *ScoresClient {
	return &ScoresClient{cc: cc}
}

func (c *ScoresClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScoresClient) GetSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSchedule", in, opts...)
}

func (c *ScoresClient) GetMatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetMatch", in, opts...)
}

func (c *ScoresClient) IngestScrape(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "IngestScrape", in, opts...)
}

func (c *ScoresClient) ApproveMatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ApproveMatch", in, opts...)
}

// StreamEvents opens the server stream; call Recv until it errors.
func (c *ScoresClient) StreamEvents(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &Scores_ServiceDesc.Streams[0], "/"+ServiceName+"/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
