package postgres

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/qube/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanComponent scans a single row into a model.Component.
// The row must contain columns in the order defined by componentColumns.
func scanComponent(row scannable) (*model.Component, error) {
	var c model.Component
	var (
		path        sql.NullString
		description sql.NullString
		language    sql.NullString
		tags        pq.StringArray
	)

	err := row.Scan(
		&c.ID,
		&c.UUID,
		&c.OrganizationUUID,
		&c.RootUUID,
		&c.Key,
		&c.Name,
		&c.Scope,
		&c.Qualifier,
		&path,
		&description,
		&language,
		&tags,
		&c.Private,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Path = path.String
	c.Description = description.String
	c.Language = language.String
	if len(tags) > 0 {
		c.Tags = []string(tags)
	}
	return &c, nil
}

func scanOrganization(row scannable) (*model.Organization, error) {
	var o model.Organization
	if err := row.Scan(&o.UUID, &o.Key, &o.Name, &o.NewProjectPrivate, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// nullString converts an empty string to a NULL sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullInt64Ptr converts a *int64 to a sql.NullInt64.
func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
