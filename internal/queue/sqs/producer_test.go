package sqsqueue

import (
	"strings"
	"testing"
)

func TestMessageGroupIDBucketed(t *testing.T) {
	scope := "store-1"
	entry := "wq_01J0000000000000000000000"

	got1 := messageGroupIDBucketed(scope, entry, 16)
	got2 := messageGroupIDBucketed(scope, entry, 16)
	if got1 != got2 {
		t.Fatalf("expected stable group id, got %q vs %q", got1, got2)
	}
	if !strings.HasPrefix(got1, "store-1:") {
		t.Fatalf("expected scope prefix, got %q", got1)
	}

	// buckets<=0 should use default.
	got3 := messageGroupIDBucketed(scope, entry, 0)
	if got3 == "" {
		t.Fatalf("expected non-empty group id for default buckets")
	}

	if got := messageGroupIDBucketed("", entry, 4); !strings.HasPrefix(got, "platform:") {
		t.Fatalf("expected platform scope for empty scope, got %q", got)
	}
}
