package model

import "time"

// Scope is the coarse classification of a component.
type Scope string

const (
	ScopeProject   Scope = "PRJ"
	ScopeDirectory Scope = "DIR"
	ScopeFile      Scope = "FIL"
)

// Qualifier is a short code classifying a component's kind.
type Qualifier string

const (
	QualifierProject    Qualifier = "TRK"
	QualifierView       Qualifier = "VW"
	QualifierSubView    Qualifier = "SVW"
	QualifierModule     Qualifier = "BRC"
	QualifierDirectory  Qualifier = "DIR"
	QualifierFile       Qualifier = "FIL"
	QualifierUnitTest   Qualifier = "UTS"
	QualifierApp        Qualifier = "APP"
	QualifierLibrary    Qualifier = "LIB"
	QualifierDeveloper  Qualifier = "DEV"
	QualifierBranchView Qualifier = "BVW"
)

// String returns the string representation of the qualifier.
func (q Qualifier) String() string {
	return string(q)
}

// Component is a stored project, view, module, directory or file.
// Visibility and permissions attach to the root component (RootUUID == UUID).
type Component struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"uuid"`
	OrganizationUUID string    `json:"organization_uuid"`
	RootUUID         string    `json:"root_uuid"`
	Key              string    `json:"key"`
	Name             string    `json:"name"`
	Scope            Scope     `json:"scope"`
	Qualifier        Qualifier `json:"qualifier"`
	Path             string    `json:"path,omitempty"`
	Description      string    `json:"description,omitempty"`
	Language         string    `json:"language,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Private          bool      `json:"private"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsRoot reports whether the component is a project or a view, the
// top-level units that carry visibility and permissions.
func (c *Component) IsRoot() bool {
	if c.Scope != ScopeProject {
		return false
	}
	return c.Qualifier == QualifierProject || c.Qualifier == QualifierView
}

// Analysis is a snapshot of a completed analysis of a root component.
type Analysis struct {
	UUID          string    `json:"uuid"`
	ComponentUUID string    `json:"component_uuid"`
	CreatedAt     time.Time `json:"created_at"`
	Last          bool      `json:"last"`
}
