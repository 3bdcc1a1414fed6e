package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/qube/internal/model"
)

// authorizationBatchSize bounds the uuid list of one authorization lookup.
const authorizationBatchSize = 1000

// SelectGroupIDsWithPermissionOnProjectBut returns the groups holding at
// least one permission on the project but not role. The anyone group is
// never returned.
func (q queries) SelectGroupIDsWithPermissionOnProjectBut(ctx context.Context, resourceID int64, role string) ([]int64, error) {
	return q.selectIDs(ctx, `
		SELECT DISTINCT gr1.group_id FROM group_roles gr1
		WHERE gr1.resource_id = $1 AND gr1.group_id IS NOT NULL
		AND NOT EXISTS (
			SELECT 1 FROM group_roles gr2
			WHERE gr2.resource_id = gr1.resource_id AND gr2.group_id = gr1.group_id AND gr2.role = $2
		)
		ORDER BY gr1.group_id`, resourceID, role)
}

// SelectUserIDsWithPermissionOnProjectBut returns the users holding at least
// one direct permission on the project but not role.
func (q queries) SelectUserIDsWithPermissionOnProjectBut(ctx context.Context, resourceID int64, role string) ([]int64, error) {
	return q.selectIDs(ctx, `
		SELECT DISTINCT ur1.user_id FROM user_roles ur1
		WHERE ur1.resource_id = $1
		AND NOT EXISTS (
			SELECT 1 FROM user_roles ur2
			WHERE ur2.resource_id = ur1.resource_id AND ur2.user_id = ur1.user_id AND ur2.role = $2
		)
		ORDER BY ur1.user_id`, resourceID, role)
}

func (q queries) selectIDs(ctx context.Context, stmt string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q queries) InsertGroupPermission(ctx context.Context, p *model.GroupPermission) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO group_roles (organization_uuid, group_id, resource_id, role)
		VALUES ($1, $2, $3, $4)`,
		p.OrganizationUUID, nullInt64Ptr(p.GroupID), nullInt64Ptr(p.ResourceID), p.Role)
	if err != nil {
		return fmt.Errorf("insert group permission: %w", err)
	}
	return nil
}

// DeleteGroupPermissionsByRootComponentIDAndGroupID removes every grant of
// the group on the project. A nil groupID targets the anyone group.
func (q queries) DeleteGroupPermissionsByRootComponentIDAndGroupID(ctx context.Context, resourceID int64, groupID *int64) error {
	var err error
	if groupID == nil {
		_, err = q.db.ExecContext(ctx,
			`DELETE FROM group_roles WHERE resource_id = $1 AND group_id IS NULL`, resourceID)
	} else {
		_, err = q.db.ExecContext(ctx,
			`DELETE FROM group_roles WHERE resource_id = $1 AND group_id = $2`, resourceID, *groupID)
	}
	if err != nil {
		return fmt.Errorf("delete group permissions: %w", err)
	}
	return nil
}

func (q queries) DeleteGroupPermissionsByRootComponentIDAndPermission(ctx context.Context, resourceID int64, role string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM group_roles WHERE resource_id = $1 AND role = $2`, resourceID, role)
	if err != nil {
		return fmt.Errorf("delete group permissions: %w", err)
	}
	return nil
}

func (q queries) InsertUserPermission(ctx context.Context, p *model.UserPermission) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_roles (organization_uuid, user_id, resource_id, role)
		VALUES ($1, $2, $3, $4)`,
		p.OrganizationUUID, p.UserID, nullInt64Ptr(p.ResourceID), p.Role)
	if err != nil {
		return fmt.Errorf("insert user permission: %w", err)
	}
	return nil
}

func (q queries) DeleteProjectPermissionOfAnyUser(ctx context.Context, resourceID int64, role string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE resource_id = $1 AND role = $2`, resourceID, role)
	if err != nil {
		return fmt.Errorf("delete user permissions: %w", err)
	}
	return nil
}

// SelectProjectPermissions returns the explicit roles the user holds on the
// project, directly, through a group or through the anyone group.
func (q queries) SelectProjectPermissions(ctx context.Context, userID *int64, resourceID int64) ([]string, error) {
	if userID == nil {
		return q.selectRoles(ctx, `
			SELECT DISTINCT role FROM group_roles
			WHERE resource_id = $1 AND group_id IS NULL
			ORDER BY role`, resourceID)
	}
	return q.selectRoles(ctx, `
		SELECT role FROM group_roles
		WHERE resource_id = $1
		AND (group_id IS NULL OR group_id IN (SELECT group_id FROM groups_users WHERE user_id = $2))
		UNION
		SELECT role FROM user_roles WHERE resource_id = $1 AND user_id = $2
		ORDER BY role`, resourceID, *userID)
}

// SelectOrganizationPermissions returns the organization-level roles of the
// user.
func (q queries) SelectOrganizationPermissions(ctx context.Context, userID *int64, orgUUID string) ([]string, error) {
	if userID == nil {
		return q.selectRoles(ctx, `
			SELECT DISTINCT role FROM group_roles
			WHERE organization_uuid = $1 AND resource_id IS NULL AND group_id IS NULL
			ORDER BY role`, orgUUID)
	}
	return q.selectRoles(ctx, `
		SELECT role FROM group_roles
		WHERE organization_uuid = $1 AND resource_id IS NULL
		AND (group_id IS NULL OR group_id IN (SELECT group_id FROM groups_users WHERE user_id = $2))
		UNION
		SELECT role FROM user_roles
		WHERE organization_uuid = $1 AND resource_id IS NULL AND user_id = $2
		ORDER BY role`, orgUUID, *userID)
}

func (q queries) selectRoles(ctx context.Context, stmt string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// SelectAuthorizationsByProjectUUIDs builds the index authorization record
// of each root component in uuids. Unknown uuids are skipped.
func (q queries) SelectAuthorizationsByProjectUUIDs(ctx context.Context, uuids []string) ([]*model.Authorization, error) {
	var out []*model.Authorization
	for start := 0; start < len(uuids); start += authorizationBatchSize {
		end := min(start+authorizationBatchSize, len(uuids))
		batch, err := q.selectAuthorizations(ctx, uuids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// SelectAllAuthorizations builds the authorization record of every root.
func (q queries) SelectAllAuthorizations(ctx context.Context) ([]*model.Authorization, error) {
	return q.selectAuthorizations(ctx, nil)
}

// selectAuthorizations loads roots then their browse grants. A nil uuids
// selects every root.
func (q queries) selectAuthorizations(ctx context.Context, uuids []string) ([]*model.Authorization, error) {
	rootFilter, grantFilter := "TRUE", "TRUE"
	var rootArgs []any
	grantArgs := []any{model.PermissionUser}
	if uuids != nil {
		rootFilter, grantFilter = "p.uuid = ANY($1)", "p.uuid = ANY($2)"
		rootArgs = append(rootArgs, pq.Array(uuids))
		grantArgs = append(grantArgs, pq.Array(uuids))
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT p.uuid, p.qualifier, p.private FROM projects p
		WHERE p.enabled AND p.scope = 'PRJ' AND p.qualifier IN ('TRK', 'VW') AND p.uuid = p.root_uuid
		AND `+rootFilter+`
		ORDER BY p.uuid`, rootArgs...)
	if err != nil {
		return nil, fmt.Errorf("select authorization roots: %w", err)
	}
	byUUID := make(map[string]*model.Authorization)
	var out []*model.Authorization
	now := time.Now().UTC()
	for rows.Next() {
		var (
			a       model.Authorization
			private bool
		)
		if err := rows.Scan(&a.ProjectUUID, &a.Qualifier, &private); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan authorization root: %w", err)
		}
		a.AllowAnyone = !private
		a.GroupIDs = []int64{}
		a.UserIDs = []int64{}
		a.UpdatedAt = now
		byUUID[a.ProjectUUID] = &a
		out = append(out, &a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	if err := q.scanGrants(ctx, byUUID, `
		SELECT p.uuid, gr.group_id FROM group_roles gr JOIN projects p ON p.id = gr.resource_id
		WHERE gr.role = $1 AND `+grantFilter, grantArgs, func(a *model.Authorization, id sql.NullInt64) {
		if !id.Valid {
			a.AllowAnyone = true
			return
		}
		a.GroupIDs = append(a.GroupIDs, id.Int64)
	}); err != nil {
		return nil, err
	}
	if err := q.scanGrants(ctx, byUUID, `
		SELECT p.uuid, ur.user_id FROM user_roles ur JOIN projects p ON p.id = ur.resource_id
		WHERE ur.role = $1 AND `+grantFilter, grantArgs, func(a *model.Authorization, id sql.NullInt64) {
		a.UserIDs = append(a.UserIDs, id.Int64)
	}); err != nil {
		return nil, err
	}

	for _, a := range out {
		slices.Sort(a.GroupIDs)
		slices.Sort(a.UserIDs)
	}
	return out, nil
}

func (q queries) scanGrants(ctx context.Context, byUUID map[string]*model.Authorization, stmt string, args []any, add func(*model.Authorization, sql.NullInt64)) error {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("select authorization grants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			uuid string
			id   sql.NullInt64
		)
		if err := rows.Scan(&uuid, &id); err != nil {
			return fmt.Errorf("scan authorization grant: %w", err)
		}
		if a, ok := byUUID[uuid]; ok {
			add(a, id)
		}
	}
	return rows.Err()
}
