package model

import "time"

// Organization owns components, groups and organization-level permissions.
type Organization struct {
	UUID              string    `json:"uuid"`
	Key               string    `json:"key"`
	Name              string    `json:"name"`
	NewProjectPrivate bool      `json:"new_project_private"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
