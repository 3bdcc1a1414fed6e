package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/ui"
)

func init() {
	ui.ForceNoColor()
}

func field(label, value string) string {
	return fmt.Sprintf("%-15s%s", label+":", value)
}

func TestPrintComponent_Project(t *testing.T) {
	var buf bytes.Buffer
	printComponent(&buf, &model.WireComponent{
		Organization: "acme",
		ID:           "p-1",
		Key:          "acme:api",
		Name:         "API",
		Qualifier:    "TRK",
		Tags:         []string{"backend", "go"},
		Visibility:   "private",
		AnalysisDate: "2024-05-02T08:00:00+0000",
	})
	out := buf.String()
	for _, want := range []string{
		field("Key", "acme:api"),
		field("Visibility", "private"),
		field("Tags", "backend, go"),
		field("Analysis Date", "2024-05-02T08:00:00+0000"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Path:") {
		t.Errorf("empty path printed:\n%s", out)
	}
}

func TestPrintComponent_FileHasNoTags(t *testing.T) {
	var buf bytes.Buffer
	printComponent(&buf, &model.WireComponent{Key: "acme:api:main.go", Qualifier: "FIL", Path: "main.go", Language: "go"})
	out := buf.String()
	if strings.Contains(out, "Tags:") || strings.Contains(out, "Visibility:") {
		t.Errorf("file output carries project fields:\n%s", out)
	}
	if !strings.Contains(out, field("Path", "main.go")) {
		t.Errorf("output missing path:\n%s", out)
	}
}

func TestPrintComponentList(t *testing.T) {
	var buf bytes.Buffer
	printComponentList(&buf, []*model.WireComponent{
		{Key: "acme:api", Qualifier: "TRK", Name: strings.Repeat("n", 60), Visibility: "public"},
		{Key: "acme:portfolio", Qualifier: "VW", Name: "Portfolio"},
	})
	out := buf.String()
	if !strings.HasPrefix(out, "KEY") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("n", 47)+"...") {
		t.Errorf("long name not truncated:\n%s", out)
	}
	if !strings.Contains(out, "2 components") {
		t.Errorf("missing count:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]string{"status": "ok"}); err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got["status"] != "ok" {
		t.Errorf("got %v", got)
	}
}
