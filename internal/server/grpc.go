package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProjectServiceName is the fully qualified gRPC service name.
const ProjectServiceName = "qube.v1.ProjectService"

// ChangeVisibilityRequest is the qube.v1.ChangeVisibilityRequest message.
// On the wire it is a google.protobuf.Struct keyed like the web action's
// form parameters.
type ChangeVisibilityRequest struct {
	Project    string
	Visibility string
}

func (r *ChangeVisibilityRequest) fromStruct(s *structpb.Struct) {
	r.Project = structString(s, "project")
	r.Visibility = structString(s, "visibility")
}

// UpdateProjectVisibilityRequest is the qube.v1.UpdateProjectVisibilityRequest
// message, carried as a Struct like ChangeVisibilityRequest.
type UpdateProjectVisibilityRequest struct {
	Organization      string
	ProjectVisibility string
}

func (r *UpdateProjectVisibilityRequest) fromStruct(s *structpb.Struct) {
	r.Organization = structString(s, "organization")
	r.ProjectVisibility = structString(s, "projectVisibility")
}

// ProjectServiceServer is the gRPC surface of the visibility actions.
type ProjectServiceServer interface {
	ChangeVisibility(context.Context, *ChangeVisibilityRequest) (*emptypb.Empty, error)
	UpdateProjectVisibility(context.Context, *UpdateProjectVisibilityRequest) (*emptypb.Empty, error)
}

// ProjectServiceDesc describes qube.v1.ProjectService for grpc.Server.
var ProjectServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ChangeVisibility", Handler: unaryHandler("ChangeVisibility", ProjectServiceServer.ChangeVisibility)},
		{MethodName: "UpdateProjectVisibility", Handler: unaryHandler("UpdateProjectVisibility", ProjectServiceServer.UpdateProjectVisibility)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "qube/v1/projects.proto",
}

// structMessage is implemented by request messages decoded from a Struct.
type structMessage[T any] interface {
	*T
	fromStruct(*structpb.Struct)
}

func unaryHandler[T any, M structMessage[T]](method string, call func(ProjectServiceServer, context.Context, M) (*emptypb.Empty, error)) grpc.MethodHandler {
	fullMethod := "/" + ProjectServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		wire := new(structpb.Struct)
		if err := dec(wire); err != nil {
			return nil, err
		}
		in := M(new(T))
		in.fromStruct(wire)
		if interceptor == nil {
			return call(srv.(ProjectServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProjectServiceServer), ctx, req.(M))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// grpcProjectService adapts a ProjectServer to ProjectServiceServer.
type grpcProjectService struct {
	s *ProjectServer
}

func (g grpcProjectService) ChangeVisibility(ctx context.Context, req *ChangeVisibilityRequest) (*emptypb.Empty, error) {
	sess := SessionFrom(ctx)
	if err := sess.CheckLoggedIn(); err != nil {
		return nil, err
	}
	if req.Project == "" {
		return nil, missingParam("project")
	}
	vis, err := parseVisibilityParam("visibility", req.Visibility, true)
	if err != nil {
		return nil, err
	}
	if err := g.s.ChangeVisibility(ctx, sess, req.Project, *vis); err != nil {
		return nil, toStatus(err).Err()
	}
	return &emptypb.Empty{}, nil
}

func (g grpcProjectService) UpdateProjectVisibility(ctx context.Context, req *UpdateProjectVisibilityRequest) (*emptypb.Empty, error) {
	if req.Organization == "" {
		return nil, missingParam("organization")
	}
	vis, err := parseVisibilityParam("projectVisibility", req.ProjectVisibility, true)
	if err != nil {
		return nil, err
	}
	if err := g.s.UpdateProjectVisibility(ctx, SessionFrom(ctx), req.Organization, *vis); err != nil {
		return nil, toStatus(err).Err()
	}
	return &emptypb.Empty{}, nil
}

func structString(s *structpb.Struct, field string) string {
	return s.GetFields()[field].GetStringValue()
}

// NewGRPCServer creates a gRPC server with standard interceptors and
// registers the ProjectService.
func NewGRPCServer(s *ProjectServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			s.SessionInterceptor,
		),
	)
	srv.RegisterService(&ProjectServiceDesc, grpcProjectService{s: s})
	return srv
}
