package events

import (
	"context"

	"github.com/alfredjeanlab/qube/internal/model"
)

// Event topic constants
const (
	TopicProjectCreated           = "qube.project.created"
	TopicProjectVisibilityChanged = "qube.project.visibility_changed"

	TopicOrganizationProjectVisibilityUpdated = "qube.organization.project_visibility_updated"

	// Authorization records for the component index, one message per root.
	TopicPermissionsIndexed = "qube.permissions.indexed"
)

// Event types

type ProjectCreated struct {
	Project *model.WireComponent `json:"project"`
	Actor   string               `json:"actor"`
}

type ProjectVisibilityChanged struct {
	ProjectUUID string           `json:"project_uuid"`
	ProjectKey  string           `json:"project_key"`
	Visibility  model.Visibility `json:"visibility"`
	Actor       string           `json:"actor"`
}

type OrganizationProjectVisibilityUpdated struct {
	OrganizationKey string           `json:"organization_key"`
	Visibility      model.Visibility `json:"visibility"`
	Actor           string           `json:"actor"`
}

type PermissionsIndexed struct {
	Authorization *model.Authorization `json:"authorization"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
