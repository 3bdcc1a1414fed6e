package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDestination_WritesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "authorizations.jsonl")
	dest := NewFileDestination(path)

	if err := dest.Write(context.Background(), []byte("first\n")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := dest.Write(context.Background(), []byte("second\n")); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second\n" {
		t.Errorf("content = %q, want %q", got, "second\n")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the snapshot", len(entries))
	}
}

func TestFileDestination_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorizations.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewFileDestination(path).Write(ctx, []byte("x")); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file exists after canceled write: %v", err)
	}
}
