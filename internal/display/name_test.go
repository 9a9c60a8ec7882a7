package display

import (
	"strings"
	"testing"
)

func TestNameDeterministic(t *testing.T) {
	t.Parallel()
	if Name(42) != Name(42) {
		t.Fatalf("Name is not deterministic")
	}
}

func TestNameShape(t *testing.T) {
	t.Parallel()
	for _, id := range []uint64{0, 1, 19, 20, 12345, ^uint64(0)} {
		name := Name(id)
		parts := strings.SplitN(name, "_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			t.Fatalf("Name(%d) = %q, want adjective_noun", id, name)
		}
	}
}

func TestNameVariesAcrossIDs(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for id := uint64(0); id < 100; id++ {
		seen[Name(id)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied names across ids, got %d distinct", len(seen))
	}
}
