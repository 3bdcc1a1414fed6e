package client

import (
	"fmt"

	"github.com/alfredjeanlab/qube/internal/model"
)

// CreateRequest is an immutable "create project" request.
type CreateRequest struct {
	organization string
	key          string
	name         string
	branch       string
	visibility   *string
}

// Organization returns the target organization key, or "" for the server
// default.
func (r CreateRequest) Organization() string { return r.organization }

func (r CreateRequest) Key() string { return r.key }

func (r CreateRequest) Name() string { return r.name }

// Branch returns the branch name, or "" when none was set.
func (r CreateRequest) Branch() string { return r.branch }

// Visibility returns the requested visibility and whether one was set.
func (r CreateRequest) Visibility() (string, bool) {
	if r.visibility == nil {
		return "", false
	}
	return *r.visibility, true
}

// CreateRequestBuilder assembles a CreateRequest. Only the visibility is
// validated.
type CreateRequestBuilder struct {
	req CreateRequest
}

func NewCreateRequestBuilder() *CreateRequestBuilder {
	return &CreateRequestBuilder{}
}

func (b *CreateRequestBuilder) SetOrganization(organization string) *CreateRequestBuilder {
	b.req.organization = organization
	return b
}

func (b *CreateRequestBuilder) SetKey(key string) *CreateRequestBuilder {
	b.req.key = key
	return b
}

func (b *CreateRequestBuilder) SetName(name string) *CreateRequestBuilder {
	b.req.name = name
	return b
}

func (b *CreateRequestBuilder) SetBranch(branch string) *CreateRequestBuilder {
	b.req.branch = branch
	return b
}

// SetVisibility sets the visibility; nil clears it. Any value other than
// "private" or "public" is rejected and leaves the builder unchanged.
func (b *CreateRequestBuilder) SetVisibility(visibility *string) error {
	if visibility == nil {
		b.req.visibility = nil
		return nil
	}
	if _, err := model.ParseVisibility(*visibility); err != nil {
		return fmt.Errorf("%w: Unexpected visibility '%s'", model.ErrInvalidArgument, *visibility)
	}
	v := *visibility
	b.req.visibility = &v
	return nil
}

// Build returns a snapshot of the builder state. Later setter calls do not
// affect requests already built.
func (b *CreateRequestBuilder) Build() CreateRequest {
	req := b.req
	if req.visibility != nil {
		v := *req.visibility
		req.visibility = &v
	}
	return req
}
