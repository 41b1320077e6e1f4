package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := gen()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("run_", Default)
	id := gen()
	if !strings.HasPrefix(id, "run_") {
		t.Errorf("expected run_ prefix, got %q", id)
	}
	if len(id) <= len("run_") {
		t.Errorf("expected suffix after prefix, got %q", id)
	}
}

func TestNew(t *testing.T) {
	if New() == New() {
		t.Error("New returned the same ID twice")
	}
}
