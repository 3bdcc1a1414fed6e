package server

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// ShowComponent returns a component with the date of the last analysis of
// its root. The caller must be able to browse the root.
func (s *ProjectServer) ShowComponent(ctx context.Context, sess *Session, key string) (*model.WireComponent, error) {
	if key == "" {
		return nil, missingParam("component")
	}
	c, err := s.store.GetComponentByKey(ctx, key)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("Component key '%s' not found", key))
	}
	if err := sess.CheckComponentPermission(ctx, s.store, model.PermissionUser, c); err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganizationByUUID(ctx, c.OrganizationUUID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("Organization of component '%s' not found", key))
	}
	rootUUID := c.RootUUID
	if rootUUID == "" {
		rootUUID = c.UUID
	}
	last, err := s.store.GetLastAnalysis(ctx, rootUUID)
	if err != nil {
		return nil, storeError(err, "")
	}
	wc, err := componentToWire(c, org, last)
	if err != nil {
		return nil, storeError(err, "")
	}
	return wc, nil
}

// SuggestComponents runs q against the components the caller may browse.
func (s *ProjectServer) SuggestComponents(ctx context.Context, sess *Session, q search.ComponentIndexQuery) ([]*model.WireComponent, error) {
	found, err := s.store.SearchComponents(ctx, q, sess.userID())
	if err != nil {
		return nil, storeError(err, "")
	}
	suggestionQueries.Inc()

	orgs := make(map[string]*model.Organization)
	out := make([]*model.WireComponent, 0, len(found))
	for _, c := range found {
		org, ok := orgs[c.OrganizationUUID]
		if !ok {
			org, err = s.store.GetOrganizationByUUID(ctx, c.OrganizationUUID)
			if err != nil {
				return nil, storeError(err, fmt.Sprintf("Organization of component '%s' not found", c.Key))
			}
			orgs[c.OrganizationUUID] = org
		}
		wc, err := componentToWire(c, org, nil)
		if err != nil {
			return nil, storeError(err, "")
		}
		out = append(out, wc)
	}
	return out, nil
}
