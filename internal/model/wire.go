package model

// WireComponent is the web-service representation of a component. It is
// derived from a Component and never stored.
type WireComponent struct {
	Organization string   `json:"organization"`
	ID           string   `json:"id"`
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Qualifier    string   `json:"qualifier"`
	Path         string   `json:"path,omitempty"`
	Description  string   `json:"description,omitempty"`
	Language     string   `json:"language,omitempty"`
	Tags         []string `json:"tags,omitzero"` // nil for non-projects, possibly empty for projects
	AnalysisDate string   `json:"analysisDate,omitempty"`
	Visibility   string   `json:"visibility,omitempty"`
}
