package model

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks malformed input: a bad enum value, a too-short
// query, a non-positive limit. Transport layers map it to 400.
var ErrInvalidArgument = errors.New("invalid argument")

// Visibility is the public/private state of a root component.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Visibilities lists the accepted values in the order they are documented.
var Visibilities = []Visibility{VisibilityPublic, VisibilityPrivate}

// ParseVisibility returns the visibility named by s.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), nil
	}
	return "", fmt.Errorf("%w: unexpected visibility '%s'", ErrInvalidArgument, s)
}

// VisibilityOf maps a stored private flag to its visibility.
func VisibilityOf(private bool) Visibility {
	if private {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// IsPrivate reports whether v is the private visibility.
func (v Visibility) IsPrivate() bool {
	return v == VisibilityPrivate
}

func (v Visibility) String() string {
	return string(v)
}
