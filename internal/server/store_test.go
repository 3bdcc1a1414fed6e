package server

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
	"github.com/alfredjeanlab/qube/internal/store"
)

// mockStore is an in-memory store.Store. Grants follow the database
// conventions: a nil GroupID is the anyone group and a nil ResourceID is an
// organization-level grant.
type mockStore struct {
	components  map[string]*model.Component // by key
	orgs        map[string]*model.Organization // by key
	queue       map[string][]*model.QueueTask // by component uuid
	analyses    map[string]*model.Analysis    // by component uuid
	users       map[string]*model.User        // by token hash
	groupsUsers map[int64][]int64             // user id -> group ids
	groupPerms  []model.GroupPermission
	userPerms   []model.UserPermission
	nextID      int64

	writes      int
	tokenLookup int
}

func newMockStore() *mockStore {
	return &mockStore{
		components:  make(map[string]*model.Component),
		orgs:        make(map[string]*model.Organization),
		queue:       make(map[string][]*model.QueueTask),
		analyses:    make(map[string]*model.Analysis),
		users:       make(map[string]*model.User),
		groupsUsers: make(map[int64][]int64),
		nextID:      100,
	}
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) GetComponentByKey(_ context.Context, key string) (*model.Component, error) {
	c, ok := m.components[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) GetComponentByUUID(_ context.Context, uuid string) (*model.Component, error) {
	for _, c := range m.components {
		if c.UUID == uuid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) InsertComponent(_ context.Context, c *model.Component) error {
	m.writes++
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.components[c.Key] = &cp
	return nil
}

func (m *mockStore) SetPrivateForRootComponentUUID(_ context.Context, rootUUID string, private bool) error {
	m.writes++
	for _, c := range m.components {
		if c.UUID == rootUUID || c.RootUUID == rootUUID {
			c.Private = private
		}
	}
	return nil
}

func (m *mockStore) SearchComponents(_ context.Context, q search.ComponentIndexQuery, userID *int64) ([]*model.Component, error) {
	var out []*model.Component
	term := strings.ToLower(q.Query())
	for _, c := range m.components {
		if !strings.Contains(strings.ToLower(c.Key), term) && !strings.Contains(strings.ToLower(c.Name), term) {
			continue
		}
		if qs := q.Qualifiers(); len(qs) > 0 && !slices.Contains(qs, c.Qualifier.String()) {
			continue
		}
		root := c
		if c.RootUUID != c.UUID {
			r, err := m.GetComponentByUUID(context.Background(), c.RootUUID)
			if err != nil {
				continue
			}
			root = r
		}
		if root.Private {
			perms, _ := m.SelectProjectPermissions(context.Background(), userID, root.ID)
			if !slices.Contains(perms, model.PermissionUser) {
				continue
			}
		}
		cp := *c
		out = append(out, &cp)
	}
	fav, recent := q.FavoriteKeys(), q.RecentlyBrowsedKeys()
	rank := func(c *model.Component) int {
		switch {
		case slices.Contains(fav, c.Key):
			return 0
		case slices.Contains(recent, c.Key):
			return 1
		}
		return 2
	}
	slices.SortFunc(out, func(a, b *model.Component) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(out) > q.Limit() {
		out = out[:q.Limit()]
	}
	return out, nil
}

func (m *mockStore) GetLastAnalysis(_ context.Context, componentUUID string) (*model.Analysis, error) {
	return m.analyses[componentUUID], nil
}

func (m *mockStore) GetOrganizationByKey(_ context.Context, key string) (*model.Organization, error) {
	o, ok := m.orgs[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) GetOrganizationByUUID(_ context.Context, uuid string) (*model.Organization, error) {
	for _, o := range m.orgs {
		if o.UUID == uuid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) SetNewProjectPrivate(_ context.Context, orgUUID string, private bool) error {
	m.writes++
	for _, o := range m.orgs {
		if o.UUID == orgUUID {
			o.NewProjectPrivate = private
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockStore) SelectQueueByComponentUUID(_ context.Context, componentUUID string) ([]*model.QueueTask, error) {
	return m.queue[componentUUID], nil
}

func (m *mockStore) SelectGroupIDsWithPermissionOnProjectBut(_ context.Context, resourceID int64, role string) ([]int64, error) {
	holders := map[int64]bool{}
	for _, p := range m.groupPerms {
		if p.GroupID != nil && p.ResourceID != nil && *p.ResourceID == resourceID {
			holders[*p.GroupID] = holders[*p.GroupID] || p.Role == role
		}
	}
	var out []int64
	for id, hasRole := range holders {
		if !hasRole {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *mockStore) InsertGroupPermission(_ context.Context, p *model.GroupPermission) error {
	m.writes++
	m.groupPerms = append(m.groupPerms, *p)
	return nil
}

func (m *mockStore) DeleteGroupPermissionsByRootComponentIDAndGroupID(_ context.Context, resourceID int64, groupID *int64) error {
	m.writes++
	m.groupPerms = slices.DeleteFunc(m.groupPerms, func(p model.GroupPermission) bool {
		return p.ResourceID != nil && *p.ResourceID == resourceID && sameGroup(p.GroupID, groupID)
	})
	return nil
}

func (m *mockStore) DeleteGroupPermissionsByRootComponentIDAndPermission(_ context.Context, resourceID int64, role string) error {
	m.writes++
	m.groupPerms = slices.DeleteFunc(m.groupPerms, func(p model.GroupPermission) bool {
		return p.ResourceID != nil && *p.ResourceID == resourceID && p.Role == role
	})
	return nil
}

func (m *mockStore) SelectUserIDsWithPermissionOnProjectBut(_ context.Context, resourceID int64, role string) ([]int64, error) {
	holders := map[int64]bool{}
	for _, p := range m.userPerms {
		if p.ResourceID != nil && *p.ResourceID == resourceID {
			holders[p.UserID] = holders[p.UserID] || p.Role == role
		}
	}
	var out []int64
	for id, hasRole := range holders {
		if !hasRole {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *mockStore) InsertUserPermission(_ context.Context, p *model.UserPermission) error {
	m.writes++
	m.userPerms = append(m.userPerms, *p)
	return nil
}

func (m *mockStore) DeleteProjectPermissionOfAnyUser(_ context.Context, resourceID int64, role string) error {
	m.writes++
	m.userPerms = slices.DeleteFunc(m.userPerms, func(p model.UserPermission) bool {
		return p.ResourceID != nil && *p.ResourceID == resourceID && p.Role == role
	})
	return nil
}

func (m *mockStore) GetUserByTokenHash(_ context.Context, tokenHash string) (*model.User, error) {
	m.tokenLookup++
	u, ok := m.users[tokenHash]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockStore) SelectProjectPermissions(_ context.Context, userID *int64, resourceID int64) ([]string, error) {
	return m.effective(userID, func(res *int64, _ string) bool {
		return res != nil && *res == resourceID
	}), nil
}

func (m *mockStore) SelectOrganizationPermissions(_ context.Context, userID *int64, orgUUID string) ([]string, error) {
	return m.effective(userID, func(res *int64, org string) bool {
		return res == nil && org == orgUUID
	}), nil
}

func (m *mockStore) effective(userID *int64, match func(res *int64, org string) bool) []string {
	var groups []int64
	if userID != nil {
		groups = m.groupsUsers[*userID]
	}
	var out []string
	for _, p := range m.groupPerms {
		if !match(p.ResourceID, p.OrganizationUUID) {
			continue
		}
		if p.GroupID == nil || slices.Contains(groups, *p.GroupID) {
			out = append(out, p.Role)
		}
	}
	if userID != nil {
		for _, p := range m.userPerms {
			if match(p.ResourceID, p.OrganizationUUID) && p.UserID == *userID {
				out = append(out, p.Role)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (m *mockStore) SelectAuthorizationsByProjectUUIDs(_ context.Context, _ []string) ([]*model.Authorization, error) {
	return nil, nil
}

func (m *mockStore) SelectAllAuthorizations(_ context.Context) ([]*model.Authorization, error) {
	return nil, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}

func sameGroup(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// hasGroupGrant reports whether group (nil = anyone) holds role on resourceID.
func (m *mockStore) hasGroupGrant(groupID *int64, resourceID int64, role string) bool {
	for _, p := range m.groupPerms {
		if sameGroup(p.GroupID, groupID) && p.ResourceID != nil && *p.ResourceID == resourceID && p.Role == role {
			return true
		}
	}
	return false
}

// hasUserGrant reports whether userID holds role on resourceID.
func (m *mockStore) hasUserGrant(userID, resourceID int64, role string) bool {
	for _, p := range m.userPerms {
		if p.UserID == userID && p.ResourceID != nil && *p.ResourceID == resourceID && p.Role == role {
			return true
		}
	}
	return false
}

// recordingIndexer records IndexProjectsByUUIDs calls.
type recordingIndexer struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingIndexer) IndexProjectsByUUIDs(_ context.Context, uuids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slices.Clone(uuids))
	return r.err
}

// recordingPublisher records published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
