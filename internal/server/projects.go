package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/idgen"
	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/store"
)

// ChangeVisibility makes a project or view public or private and rewrites
// its stored grants to match. Changing to the current visibility is a no-op.
func (s *ProjectServer) ChangeVisibility(ctx context.Context, sess *Session, projectKey string, visibility model.Visibility) error {
	if err := sess.CheckLoggedIn(); err != nil {
		return err
	}
	if projectKey == "" {
		return missingParam("project")
	}
	if _, err := model.ParseVisibility(visibility.String()); err != nil {
		return toStatus(err).Err()
	}

	private := visibility.IsPrivate()
	var changed *model.Component
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		c, err := tx.GetComponentByKey(ctx, projectKey)
		if err != nil {
			return storeError(err, fmt.Sprintf("Component key '%s' not found", projectKey))
		}
		if !c.IsRoot() {
			return badRequest("Component must either be a project or a view")
		}
		if private && c.Qualifier == model.QualifierView {
			return badRequest("Views can't be made private")
		}
		if err := sess.CheckComponentPermission(ctx, tx, model.PermissionAdmin, c); err != nil {
			return err
		}
		tasks, err := tx.SelectQueueByComponentUUID(ctx, c.UUID)
		if err != nil {
			return storeError(err, "")
		}
		if len(tasks) > 0 {
			return badRequest("Component visibility can't be changed as long as it has background task(s) pending or in progress")
		}

		if c.Private == private {
			return nil
		}
		if err := tx.SetPrivateForRootComponentUUID(ctx, c.UUID, private); err != nil {
			return storeError(err, "")
		}
		if private {
			err = updatePermissionsToPrivate(ctx, tx, c)
		} else {
			err = updatePermissionsToPublic(ctx, tx, c)
		}
		if err != nil {
			return storeError(err, "")
		}
		c.Private = private
		changed = c
		return nil
	})
	if err != nil {
		return err
	}
	if changed == nil {
		return nil
	}

	visibilityChanges.WithLabelValues(visibility.String()).Inc()
	slog.Info("project visibility changed", "project", changed.Key, "visibility", visibility, "actor", sess.Login())
	s.reindex(ctx, changed.UUID)
	s.publish(ctx, events.TopicProjectVisibilityChanged, events.ProjectVisibilityChanged{
		ProjectUUID: changed.UUID,
		ProjectKey:  changed.Key,
		Visibility:  visibility,
		Actor:       sess.Login(),
	})
	return nil
}

// updatePermissionsToPrivate drops the grants of the anyone group and makes
// the public permissions explicit for every group and user that already
// holds some permission on the project.
func updatePermissionsToPrivate(ctx context.Context, tx store.Store, c *model.Component) error {
	if err := tx.DeleteGroupPermissionsByRootComponentIDAndGroupID(ctx, c.ID, nil); err != nil {
		return err
	}
	resourceID := c.ID
	for _, perm := range model.PublicPermissions {
		groupIDs, err := tx.SelectGroupIDsWithPermissionOnProjectBut(ctx, c.ID, perm)
		if err != nil {
			return err
		}
		for _, gid := range groupIDs {
			if err := tx.InsertGroupPermission(ctx, &model.GroupPermission{
				OrganizationUUID: c.OrganizationUUID,
				GroupID:          &gid,
				ResourceID:       &resourceID,
				Role:             perm,
			}); err != nil {
				return err
			}
		}

		userIDs, err := tx.SelectUserIDsWithPermissionOnProjectBut(ctx, c.ID, perm)
		if err != nil {
			return err
		}
		for _, uid := range userIDs {
			if err := tx.InsertUserPermission(ctx, &model.UserPermission{
				OrganizationUUID: c.OrganizationUUID,
				UserID:           uid,
				ResourceID:       &resourceID,
				Role:             perm,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// updatePermissionsToPublic removes every grant of the public permissions,
// which become implicit again.
func updatePermissionsToPublic(ctx context.Context, tx store.Store, c *model.Component) error {
	for _, perm := range model.PublicPermissions {
		if err := tx.DeleteGroupPermissionsByRootComponentIDAndPermission(ctx, c.ID, perm); err != nil {
			return err
		}
		if err := tx.DeleteProjectPermissionOfAnyUser(ctx, c.ID, perm); err != nil {
			return err
		}
	}
	return nil
}

// CreateProjectInput holds the parameters of a project creation.
type CreateProjectInput struct {
	Organization string // defaults to the server's default organization
	Key          string
	Name         string
	Branch       string
	Visibility   *model.Visibility // defaults to the organization setting
}

// CreateProject provisions a new project in an organization. The creator
// becomes its administrator.
func (s *ProjectServer) CreateProject(ctx context.Context, sess *Session, in CreateProjectInput) (*model.WireComponent, error) {
	if err := sess.CheckLoggedIn(); err != nil {
		return nil, err
	}
	if in.Key == "" {
		return nil, missingParam("project")
	}
	if in.Name == "" {
		return nil, missingParam("name")
	}
	orgKey := in.Organization
	if orgKey == "" {
		orgKey = s.defaultOrg
	}
	key := in.Key
	if in.Branch != "" {
		key = in.Key + ":" + in.Branch
	}

	var (
		created *model.Component
		org     *model.Organization
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		org, err = tx.GetOrganizationByKey(ctx, orgKey)
		if err != nil {
			return storeError(err, fmt.Sprintf("No organization with key '%s' can be found.", orgKey))
		}
		if err := sess.CheckOrganizationPermission(ctx, tx, model.OrganizationProvisioning, org.UUID); err != nil {
			return err
		}
		if _, err := tx.GetComponentByKey(ctx, key); err == nil {
			return badRequest("Could not create Project, key already exists: %s", key)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return storeError(err, "")
		}

		private := org.NewProjectPrivate
		if in.Visibility != nil {
			private = in.Visibility.IsPrivate()
		}
		uuid, err := idgen.NewUUID()
		if err != nil {
			return storeError(err, "")
		}
		c := &model.Component{
			UUID:             uuid,
			OrganizationUUID: org.UUID,
			RootUUID:         uuid,
			Key:              key,
			Name:             in.Name,
			Scope:            model.ScopeProject,
			Qualifier:        model.QualifierProject,
			Private:          private,
			CreatedAt:        s.now(),
		}
		if err := tx.InsertComponent(ctx, c); err != nil {
			return storeError(err, "")
		}

		perms := []string{model.PermissionAdmin}
		if private {
			perms = append(perms, model.PublicPermissions...)
		}
		for _, perm := range perms {
			if err := tx.InsertUserPermission(ctx, &model.UserPermission{
				OrganizationUUID: org.UUID,
				UserID:           sess.user.ID,
				ResourceID:       &c.ID,
				Role:             perm,
			}); err != nil {
				return storeError(err, "")
			}
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	wc, err := componentToWire(created, org, nil)
	if err != nil {
		return nil, storeError(err, "")
	}
	slog.Info("project created", "project", created.Key, "organization", org.Key, "actor", sess.Login())
	s.reindex(ctx, created.UUID)
	s.publish(ctx, events.TopicProjectCreated, events.ProjectCreated{Project: wc, Actor: sess.Login()})
	return wc, nil
}
