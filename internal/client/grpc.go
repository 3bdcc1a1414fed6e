package client

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/qube/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const projectService = "/qube.v1.ProjectService/"

// GRPCClient implements VisibilityClient using the gRPC transport.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// A non-empty token is sent as a bearer authorization header on each call.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn, token: token}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// changeVisibilityRequest mirrors qube.v1.ChangeVisibilityRequest.
type changeVisibilityRequest struct {
	project    string
	visibility model.Visibility
}

func (r changeVisibilityRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"project":    r.project,
		"visibility": r.visibility.String(),
	})
}

// updateProjectVisibilityRequest mirrors qube.v1.UpdateProjectVisibilityRequest.
type updateProjectVisibilityRequest struct {
	organization string
	visibility   model.Visibility
}

func (r updateProjectVisibilityRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"organization":      r.organization,
		"projectVisibility": r.visibility.String(),
	})
}

func (c *GRPCClient) ChangeVisibility(ctx context.Context, project string, visibility model.Visibility) error {
	return c.invoke(ctx, "ChangeVisibility", changeVisibilityRequest{project: project, visibility: visibility})
}

func (c *GRPCClient) UpdateProjectVisibility(ctx context.Context, organization string, visibility model.Visibility) error {
	return c.invoke(ctx, "UpdateProjectVisibility", updateProjectVisibilityRequest{organization: organization, visibility: visibility})
}

func (c *GRPCClient) invoke(ctx context.Context, method string, msg interface{ toStruct() (*structpb.Struct, error) }) error {
	req, err := msg.toStruct()
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.conn.Invoke(ctx, projectService+method, req, &emptypb.Empty{})
}
