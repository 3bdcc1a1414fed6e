package idgen

import (
	"regexp"
	"testing"
)

func TestNewUUID_Length(t *testing.T) {
	id, err := NewUUID()
	if err != nil {
		t.Fatalf("NewUUID() error: %v", err)
	}
	if len(id) != UUIDLength {
		t.Errorf("NewUUID() length = %d, want %d (id=%q)", len(id), UUIDLength, id)
	}
}

func TestNewUUID_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	for i := 0; i < 100; i++ {
		id, err := NewUUID()
		if err != nil {
			t.Fatalf("NewUUID() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("NewUUID() = %q, does not match expected charset pattern", id)
		}
	}
}

func TestNewUUID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := NewUUID()
		if err != nil {
			t.Fatalf("NewUUID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate uuid after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
