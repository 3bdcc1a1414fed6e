// Package export writes snapshots of project authorization records so a
// component index can be rebuilt without replaying every event.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/qube/internal/model"
)

// Source loads every authorization record. store.Store satisfies it.
type Source interface {
	SelectAllAuthorizations(ctx context.Context) ([]*model.Authorization, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"authorization_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes a header line and then one authorization per line to
// w, sorted by project uuid.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	auths, err := src.SelectAllAuthorizations(ctx)
	if err != nil {
		return fmt.Errorf("select authorizations: %w", err)
	}

	sort.Slice(auths, func(i, j int) bool {
		return auths[i].ProjectUUID < auths[j].ProjectUUID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		Count:     len(auths),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, a := range auths {
		if err := enc.Encode(record{Type: "authorization", Data: a}); err != nil {
			return fmt.Errorf("encode authorization %s: %w", a.ProjectUUID, err)
		}
	}

	return nil
}
