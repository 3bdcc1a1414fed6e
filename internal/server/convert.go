package server

import (
	"fmt"

	"github.com/alfredjeanlab/qube/internal/model"
)

// analysisDateLayout renders analysis dates with a numeric zone offset.
const analysisDateLayout = "2006-01-02T15:04:05-0700"

// componentToWire converts a stored component into its web-service
// representation. The component must belong to org. lastAnalysis may be nil.
func componentToWire(c *model.Component, org *model.Organization, lastAnalysis *model.Analysis) (*model.WireComponent, error) {
	if c.OrganizationUUID != org.UUID {
		return nil, fmt.Errorf("%w: organization uuid (%s) of component '%s' is not the same as the one (%s) of the specified organization",
			model.ErrInvalidArgument, c.OrganizationUUID, c.Key, org.UUID)
	}
	wc := &model.WireComponent{
		Organization: org.Key,
		ID:           c.UUID,
		Key:          c.Key,
		Name:         c.Name,
		Qualifier:    c.Qualifier.String(),
		Path:         c.Path,
		Description:  c.Description,
		Language:     c.Language,
	}
	if lastAnalysis != nil {
		wc.AnalysisDate = lastAnalysis.CreatedAt.Format(analysisDateLayout)
	}
	if c.Qualifier == model.QualifierProject {
		wc.Tags = append([]string{}, c.Tags...)
		wc.Visibility = model.VisibilityOf(c.Private).String()
	}
	return wc, nil
}
