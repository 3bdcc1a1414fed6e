package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/store"
)

// Indexer refreshes the authorization records of root components in the
// component index.
type Indexer interface {
	IndexProjectsByUUIDs(ctx context.Context, uuids []string) error
}

// Options tunes a ProjectServer. Zero values are replaced by defaults.
type Options struct {
	DefaultOrganization string
	SessionCacheTTL     time.Duration
	SessionCacheSize    int
}

// ProjectServer implements the project, organization and component web
// actions on top of a store, an index feed and an event publisher.
type ProjectServer struct {
	store      store.Store
	publisher  events.Publisher
	indexer    Indexer
	sessions   *sessionResolver
	defaultOrg string
	now        func() time.Time
}

// NewProjectServer returns a new ProjectServer backed by the given store,
// publisher and indexer.
func NewProjectServer(s store.Store, p events.Publisher, ix Indexer, opts Options) *ProjectServer {
	if opts.DefaultOrganization == "" {
		opts.DefaultOrganization = "default-organization"
	}
	if opts.SessionCacheSize <= 0 {
		opts.SessionCacheSize = 1024
	}
	return &ProjectServer{
		store:      s,
		publisher:  p,
		indexer:    ix,
		sessions:   newSessionResolver(s, opts.SessionCacheSize, opts.SessionCacheTTL),
		defaultOrg: opts.DefaultOrganization,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// reindex pushes the authorization records of the given roots to the index.
// The database change is already committed, so a failure is only logged; the
// next full index pass repairs it.
func (s *ProjectServer) reindex(ctx context.Context, uuids ...string) {
	if err := s.indexer.IndexProjectsByUUIDs(ctx, uuids); err != nil {
		indexFailures.Inc()
		slog.Warn("failed to index project permissions", "projects", uuids, "error", err)
	}
}

// publish emits an event on the bus. Publishing is best-effort.
func (s *ProjectServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
