package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/search"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement; PostgresStore runs it on the pool and
// txStore on a transaction.
type queries struct {
	db executor
}

// componentColumns returns the projects column list, qualified by alias
// when alias is non-empty. Order matches scanComponent.
func componentColumns(alias string) string {
	cols := []string{"id", "uuid", "organization_uuid", "root_uuid", "kee", "name", "scope",
		"qualifier", "path", "description", "language", "tags", "private", "created_at"}
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (q queries) GetComponentByKey(ctx context.Context, key string) (*model.Component, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+componentColumns("")+` FROM projects WHERE kee = $1 AND enabled`, key)
	return scanComponent(row)
}

func (q queries) GetComponentByUUID(ctx context.Context, uuid string) (*model.Component, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+componentColumns("")+` FROM projects WHERE uuid = $1 AND enabled`, uuid)
	return scanComponent(row)
}

func (q queries) InsertComponent(ctx context.Context, c *model.Component) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO projects (
			uuid, organization_uuid, root_uuid, kee, name, scope, qualifier,
			path, description, language, tags, private, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13
		) RETURNING id`,
		c.UUID,
		c.OrganizationUUID,
		c.RootUUID,
		c.Key,
		c.Name,
		string(c.Scope),
		string(c.Qualifier),
		nullString(c.Path),
		nullString(c.Description),
		nullString(c.Language),
		pq.Array(tags),
		c.Private,
		c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert component: %w", err)
	}
	return nil
}

// SetPrivateForRootComponentUUID flips the flag on the root and every
// component below it.
func (q queries) SetPrivateForRootComponentUUID(ctx context.Context, rootUUID string, private bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE projects SET private = $1 WHERE uuid = $2 OR root_uuid = $2`, private, rootUUID)
	if err != nil {
		return fmt.Errorf("set private for root %s: %w", rootUUID, err)
	}
	return nil
}

// SearchComponents returns components whose key or name contains the
// query and whose root the user may browse. Favorites rank first, then
// recently browsed keys, then names alphabetically.
func (q queries) SearchComponents(ctx context.Context, query search.ComponentIndexQuery, userID *int64) ([]*model.Component, error) {
	var (
		whereClauses = []string{"p.enabled"}
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	p := nextArg()
	whereClauses = append(whereClauses,
		fmt.Sprintf(`(p.kee ILIKE '%%' || %s || '%%' OR p.name ILIKE '%%' || %s || '%%')`, p, p))
	args = append(args, escapeLike(query.Query()))

	if quals := query.Qualifiers(); len(quals) > 0 {
		whereClauses = append(whereClauses, "p.qualifier = ANY("+nextArg()+")")
		args = append(args, pq.Array(quals))
	}

	browse := nextArg()
	args = append(args, model.PermissionUser)
	visible := fmt.Sprintf(`NOT r.private OR EXISTS (
		SELECT 1 FROM group_roles gr WHERE gr.resource_id = r.id AND gr.role = %s AND gr.group_id IS NULL)`, browse)
	if userID != nil {
		u := nextArg()
		args = append(args, *userID)
		visible += fmt.Sprintf(` OR EXISTS (
		SELECT 1 FROM group_roles gr JOIN groups_users gu ON gu.group_id = gr.group_id
		WHERE gr.resource_id = r.id AND gr.role = %s AND gu.user_id = %s)
		OR EXISTS (
		SELECT 1 FROM user_roles ur WHERE ur.resource_id = r.id AND ur.role = %s AND ur.user_id = %s)`,
			browse, u, browse, u)
	}
	whereClauses = append(whereClauses, "("+visible+")")

	favorites := nextArg()
	recent := nextArg()
	limit := nextArg()
	args = append(args, pq.Array(query.FavoriteKeys()), pq.Array(query.RecentlyBrowsedKeys()), query.Limit())

	stmt := `SELECT ` + componentColumns("p") + `
		FROM projects p JOIN projects r ON r.uuid = p.root_uuid
		WHERE ` + strings.Join(whereClauses, " AND ") + `
		ORDER BY p.kee = ANY(` + favorites + `) DESC, p.kee = ANY(` + recent + `) DESC, p.name ASC
		LIMIT ` + limit

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search components: %w", err)
	}
	defer rows.Close()

	var components []*model.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// GetLastAnalysis returns nil, nil when the component was never analyzed.
func (q queries) GetLastAnalysis(ctx context.Context, componentUUID string) (*model.Analysis, error) {
	var a model.Analysis
	err := q.db.QueryRowContext(ctx, `
		SELECT uuid, component_uuid, created_at, islast FROM snapshots
		WHERE component_uuid = $1 AND islast`, componentUUID).
		Scan(&a.UUID, &a.ComponentUUID, &a.CreatedAt, &a.Last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last analysis: %w", err)
	}
	return &a, nil
}

func (q queries) SelectQueueByComponentUUID(ctx context.Context, componentUUID string) ([]*model.QueueTask, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT uuid, component_uuid, task_type, status, created_at FROM ce_queue
		WHERE component_uuid = $1 ORDER BY created_at ASC`, componentUUID)
	if err != nil {
		return nil, fmt.Errorf("select queue: %w", err)
	}
	defer rows.Close()

	var tasks []*model.QueueTask
	for rows.Next() {
		var t model.QueueTask
		if err := rows.Scan(&t.UUID, &t.ComponentUUID, &t.TaskType, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan queue task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (q queries) GetOrganizationByKey(ctx context.Context, key string) (*model.Organization, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT uuid, kee, name, new_project_private, created_at, updated_at
		FROM organizations WHERE kee = $1`, key)
	return scanOrganization(row)
}

func (q queries) GetOrganizationByUUID(ctx context.Context, uuid string) (*model.Organization, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT uuid, kee, name, new_project_private, created_at, updated_at
		FROM organizations WHERE uuid = $1`, uuid)
	return scanOrganization(row)
}

func (q queries) SetNewProjectPrivate(ctx context.Context, orgUUID string, private bool) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE organizations SET new_project_private = $1, updated_at = now()
		WHERE uuid = $2`, private, orgUUID)
	if err != nil {
		return fmt.Errorf("set new project private: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set new project private: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q queries) GetUserByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	var (
		u    model.User
		name sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT u.id, u.login, u.name, u.active FROM users u
		JOIN user_tokens t ON t.user_id = u.id
		WHERE t.token_hash = $1 AND u.active`, tokenHash).
		Scan(&u.ID, &u.Login, &name, &u.Active)
	if err != nil {
		return nil, err
	}
	u.Name = name.String
	return &u, nil
}

// escapeLike escapes the ILIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
