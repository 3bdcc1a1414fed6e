// Package client provides transport-agnostic interfaces for the qube
// service, an HTTP implementation of the web actions and a gRPC
// implementation of the visibility actions.
package client

import (
	"context"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// VisibilityClient changes project and organization visibility. It is
// implemented by HTTPClient and GRPCClient.
type VisibilityClient interface {
	ChangeVisibility(ctx context.Context, project string, visibility model.Visibility) error
	UpdateProjectVisibility(ctx context.Context, organization string, visibility model.Visibility) error
	Close() error
}

// ProjectsClient is the interface the qube CLI uses to talk to the server.
type ProjectsClient interface {
	VisibilityClient

	CreateProject(ctx context.Context, req CreateRequest) (*model.WireComponent, error)
	ShowComponent(ctx context.Context, key string) (*model.WireComponent, error)
	SuggestComponents(ctx context.Context, q search.ComponentIndexQuery) ([]*model.WireComponent, error)
	Health(ctx context.Context) (string, error)
}

var (
	_ ProjectsClient   = (*HTTPClient)(nil)
	_ VisibilityClient = (*GRPCClient)(nil)
)
