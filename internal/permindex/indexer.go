// Package permindex feeds project authorization records to the component
// index. Each record tells the index which groups and users may browse a
// project and whether anyone may.
package permindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/model"
)

var (
	recordsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qube",
		Subsystem: "permindex",
		Name:      "records_published_total",
		Help:      "Authorization records published to the component index",
	})

	indexErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qube",
		Subsystem: "permindex",
		Name:      "errors_total",
		Help:      "Indexing failures by stage",
	}, []string{"stage"})
)

// Source loads authorization records. store.Store satisfies it.
type Source interface {
	SelectAuthorizationsByProjectUUIDs(ctx context.Context, uuids []string) ([]*model.Authorization, error)
	SelectAllAuthorizations(ctx context.Context) ([]*model.Authorization, error)
}

// Indexer publishes authorization records on events.TopicPermissionsIndexed.
type Indexer struct {
	source    Source
	publisher events.Publisher
	logger    *slog.Logger
}

func New(source Source, publisher events.Publisher, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{source: source, publisher: publisher, logger: logger}
}

// IndexProjectsByUUIDs re-indexes the given root components. Unknown uuids
// are skipped.
func (ix *Indexer) IndexProjectsByUUIDs(ctx context.Context, uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}
	auths, err := ix.source.SelectAuthorizationsByProjectUUIDs(ctx, uuids)
	if err != nil {
		indexErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("loading authorizations: %w", err)
	}
	return ix.publish(ctx, auths)
}

// IndexAll re-indexes every root component.
func (ix *Indexer) IndexAll(ctx context.Context) error {
	auths, err := ix.source.SelectAllAuthorizations(ctx)
	if err != nil {
		indexErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("loading authorizations: %w", err)
	}
	ix.logger.Info("indexing all project authorizations", "count", len(auths))
	return ix.publish(ctx, auths)
}

func (ix *Indexer) publish(ctx context.Context, auths []*model.Authorization) error {
	for _, a := range auths {
		if err := ix.publisher.Publish(ctx, events.TopicPermissionsIndexed, events.PermissionsIndexed{Authorization: a}); err != nil {
			indexErrors.WithLabelValues("publish").Inc()
			return fmt.Errorf("publishing authorization of %s: %w", a.ProjectUUID, err)
		}
		recordsPublished.Inc()
	}
	return nil
}
