// Package search holds the query value objects used to look up components
// in the component index.
package search

import (
	"fmt"
	"slices"
	"unicode/utf16"

	"github.com/alfredjeanlab/qube/internal/model"
)

// DefaultLimit is the number of suggestions returned when no limit is set.
const DefaultLimit = 6

// MinQueryLength is the shortest accepted search term.
const MinQueryLength = 2

// ComponentIndexQuery is an immutable component search. Build one with
// NewQueryBuilder; accessors return copies.
type ComponentIndexQuery struct {
	query               string
	qualifiers          []string
	recentlyBrowsedKeys []string
	favoriteKeys        []string
	limit               int
}

// Query returns the free-text search term.
func (q ComponentIndexQuery) Query() string { return q.query }

// Qualifiers returns the qualifier filter. Empty means every qualifier.
func (q ComponentIndexQuery) Qualifiers() []string { return slices.Clone(q.qualifiers) }

// RecentlyBrowsedKeys returns the keys the caller visited recently.
func (q ComponentIndexQuery) RecentlyBrowsedKeys() []string {
	return slices.Clone(q.recentlyBrowsedKeys)
}

// FavoriteKeys returns the keys the caller marked as favorite.
func (q ComponentIndexQuery) FavoriteKeys() []string { return slices.Clone(q.favoriteKeys) }

// Limit returns the maximum number of results.
func (q ComponentIndexQuery) Limit() int { return q.limit }

// QueryBuilder assembles a ComponentIndexQuery. Setters validate eagerly and
// return the error; the first error is also kept and returned by Build.
type QueryBuilder struct {
	query               *string
	qualifiers          []string
	recentlyBrowsedKeys []string
	favoriteKeys        []string
	limit               int
	err                 error
}

// NewQueryBuilder returns a builder with empty key sets and DefaultLimit.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{limit: DefaultLimit}
}

// SetQuery sets the search term, which must be at least MinQueryLength
// UTF-16 code units long. A character outside the Basic Multilingual Plane
// counts twice, as it does in the browser that sends the term.
func (b *QueryBuilder) SetQuery(query string) error {
	if utf16Len(query) < MinQueryLength {
		return b.fail(fmt.Errorf("%w: Query must be at least two characters long: %s", model.ErrInvalidArgument, query))
	}
	b.query = &query
	return nil
}

// SetQualifiers restricts results to the given qualifiers.
func (b *QueryBuilder) SetQualifiers(qualifiers []string) {
	b.qualifiers = slices.Clone(qualifiers)
}

// SetRecentlyBrowsedKeys sets the keys boosted as recently browsed.
func (b *QueryBuilder) SetRecentlyBrowsedKeys(keys []string) {
	b.recentlyBrowsedKeys = dedupe(keys)
}

// SetFavoriteKeys sets the keys boosted as favorites.
func (b *QueryBuilder) SetFavoriteKeys(keys []string) {
	b.favoriteKeys = dedupe(keys)
}

// SetLimit sets the maximum number of results; it must be strictly positive.
func (b *QueryBuilder) SetLimit(limit int) error {
	if limit <= 0 {
		return b.fail(fmt.Errorf("%w: Limit has to be strictly positive: %d", model.ErrInvalidArgument, limit))
	}
	b.limit = limit
	return nil
}

// Build returns the query snapshot. Later builder calls do not affect it.
func (b *QueryBuilder) Build() (ComponentIndexQuery, error) {
	if b.err != nil {
		return ComponentIndexQuery{}, b.err
	}
	if b.query == nil {
		return ComponentIndexQuery{}, fmt.Errorf("%w: query is required", model.ErrInvalidArgument)
	}
	return ComponentIndexQuery{
		query:               *b.query,
		qualifiers:          nonNil(slices.Clone(b.qualifiers)),
		recentlyBrowsedKeys: nonNil(slices.Clone(b.recentlyBrowsedKeys)),
		favoriteKeys:        nonNil(slices.Clone(b.favoriteKeys)),
		limit:               b.limit,
	}, nil
}

func (b *QueryBuilder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// dedupe copies keys, keeping the first occurrence of each.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
