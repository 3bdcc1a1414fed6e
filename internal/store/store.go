package store

import (
	"context"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// Store defines the persistence interface for components, organizations
// and permissions. Lookups of a single missing row return sql.ErrNoRows.
type Store interface {
	// Components
	GetComponentByKey(ctx context.Context, key string) (*model.Component, error)
	GetComponentByUUID(ctx context.Context, uuid string) (*model.Component, error)
	InsertComponent(ctx context.Context, c *model.Component) error
	SetPrivateForRootComponentUUID(ctx context.Context, rootUUID string, private bool) error
	SearchComponents(ctx context.Context, q search.ComponentIndexQuery, userID *int64) ([]*model.Component, error)
	GetLastAnalysis(ctx context.Context, componentUUID string) (*model.Analysis, error) // nil when never analyzed

	// Organizations
	GetOrganizationByKey(ctx context.Context, key string) (*model.Organization, error)
	GetOrganizationByUUID(ctx context.Context, uuid string) (*model.Organization, error)
	SetNewProjectPrivate(ctx context.Context, orgUUID string, private bool) error

	// Analysis queue
	SelectQueueByComponentUUID(ctx context.Context, componentUUID string) ([]*model.QueueTask, error)

	// Group permissions
	SelectGroupIDsWithPermissionOnProjectBut(ctx context.Context, resourceID int64, role string) ([]int64, error)
	InsertGroupPermission(ctx context.Context, p *model.GroupPermission) error
	DeleteGroupPermissionsByRootComponentIDAndGroupID(ctx context.Context, resourceID int64, groupID *int64) error
	DeleteGroupPermissionsByRootComponentIDAndPermission(ctx context.Context, resourceID int64, role string) error

	// User permissions
	SelectUserIDsWithPermissionOnProjectBut(ctx context.Context, resourceID int64, role string) ([]int64, error)
	InsertUserPermission(ctx context.Context, p *model.UserPermission) error
	DeleteProjectPermissionOfAnyUser(ctx context.Context, resourceID int64, role string) error

	// Sessions and effective permissions. A nil userID is an anonymous caller.
	GetUserByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	SelectProjectPermissions(ctx context.Context, userID *int64, resourceID int64) ([]string, error)
	SelectOrganizationPermissions(ctx context.Context, userID *int64, orgUUID string) ([]string, error)

	// Authorization records for the component index
	SelectAuthorizationsByProjectUUIDs(ctx context.Context, uuids []string) ([]*model.Authorization, error)
	SelectAllAuthorizations(ctx context.Context) ([]*model.Authorization, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
