package model

import "time"

// Project permissions.
const (
	PermissionAdmin      = "admin"
	PermissionCodeViewer = "codeviewer"
	PermissionIssueAdmin = "issueadmin"
	PermissionScan       = "scan"
	PermissionUser       = "user"
)

// Organization permissions.
const (
	OrganizationAdminister   = "admin"
	OrganizationProvisioning = "provisioning"
)

// PublicPermissions are implicitly granted to everyone on a public project.
// Making a project private materializes them as explicit grants.
var PublicPermissions = []string{PermissionUser, PermissionCodeViewer}

// IsPublicPermission reports whether perm is one of PublicPermissions.
func IsPublicPermission(perm string) bool {
	for _, p := range PublicPermissions {
		if p == perm {
			return true
		}
	}
	return false
}

// GroupPermission grants Role to a group on a project. A nil GroupID is the
// anyone group; a nil ResourceID is an organization-level grant.
type GroupPermission struct {
	OrganizationUUID string `json:"organization_uuid"`
	GroupID          *int64 `json:"group_id,omitempty"`
	ResourceID       *int64 `json:"resource_id,omitempty"`
	Role             string `json:"role"`
}

// UserPermission grants Role to a user on a project, or on the
// organization when ResourceID is nil.
type UserPermission struct {
	OrganizationUUID string `json:"organization_uuid"`
	UserID           int64  `json:"user_id"`
	ResourceID       *int64 `json:"resource_id,omitempty"`
	Role             string `json:"role"`
}

// Authorization is the permission record pushed to the component index for
// one root component: who may browse it.
type Authorization struct {
	ProjectUUID string    `json:"project_uuid"`
	Qualifier   Qualifier `json:"qualifier"`
	GroupIDs    []int64   `json:"group_ids"`
	UserIDs     []int64   `json:"user_ids"`
	AllowAnyone bool      `json:"allow_anyone"`
	UpdatedAt   time.Time `json:"updated_at"`
}
