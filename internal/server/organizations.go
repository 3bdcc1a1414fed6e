package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/store"
)

// UpdateProjectVisibility sets the default visibility of projects created
// later in an organization. Existing projects are left untouched.
func (s *ProjectServer) UpdateProjectVisibility(ctx context.Context, sess *Session, organizationKey string, visibility model.Visibility) error {
	if organizationKey == "" {
		return missingParam("organization")
	}
	if _, err := model.ParseVisibility(visibility.String()); err != nil {
		return toStatus(err).Err()
	}

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		org, err := tx.GetOrganizationByKey(ctx, organizationKey)
		if err != nil {
			return storeError(err, fmt.Sprintf("No organization with key '%s' can be found.", organizationKey))
		}
		if err := sess.CheckOrganizationPermission(ctx, tx, model.OrganizationAdminister, org.UUID); err != nil {
			return err
		}
		if err := tx.SetNewProjectPrivate(ctx, org.UUID, visibility.IsPrivate()); err != nil {
			return storeError(err, fmt.Sprintf("No organization with key '%s' can be found.", organizationKey))
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("default project visibility updated", "organization", organizationKey, "visibility", visibility, "actor", sess.Login())
	s.publish(ctx, events.TopicOrganizationProjectVisibilityUpdated, events.OrganizationProjectVisibilityUpdated{
		OrganizationKey: organizationKey,
		Visibility:      visibility,
		Actor:           sess.Login(),
	})
	return nil
}
