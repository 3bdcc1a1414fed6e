package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/qube/internal/model"
)

// fakeSource serves a fixed set of authorization records.
type fakeSource struct {
	auths []*model.Authorization
	err   error
}

func (f *fakeSource) SelectAllAuthorizations(context.Context) ([]*model.Authorization, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Authorization, len(f.auths))
	copy(out, f.auths)
	return out, nil
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), &fakeSource{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.Count != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_SortsByProjectUUID(t *testing.T) {
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{auths: []*model.Authorization{
		{ProjectUUID: "p-zzz", Qualifier: model.QualifierProject, GroupIDs: []int64{}, UserIDs: []int64{5}, UpdatedAt: now},
		{ProjectUUID: "p-aaa", Qualifier: model.QualifierView, GroupIDs: []int64{}, UserIDs: []int64{}, AllowAnyone: true, UpdatedAt: now},
	}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), src, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Count != 2 {
		t.Fatalf("header count = %d, want 2", h.Count)
	}

	var got []model.Authorization
	for _, line := range lines[1:] {
		var rec struct {
			Type string              `json:"type"`
			Data model.Authorization `json:"data"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		if rec.Type != "authorization" {
			t.Fatalf("type = %q, want authorization", rec.Type)
		}
		got = append(got, rec.Data)
	}
	if got[0].ProjectUUID != "p-aaa" || got[1].ProjectUUID != "p-zzz" {
		t.Fatalf("records not sorted: %q, %q", got[0].ProjectUUID, got[1].ProjectUUID)
	}
	if !got[0].AllowAnyone || got[1].AllowAnyone {
		t.Errorf("allow_anyone = %v, %v", got[0].AllowAnyone, got[1].AllowAnyone)
	}
	if len(got[1].UserIDs) != 1 || got[1].UserIDs[0] != 5 {
		t.Errorf("user ids = %v", got[1].UserIDs)
	}
}

func TestExportJSONL_SourceError(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	err := ExportJSONL(context.Background(), &fakeSource{err: boom}, &buf)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapping boom", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on failure", buf.Len())
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
