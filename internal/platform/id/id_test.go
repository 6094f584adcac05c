package id_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"peerlink/internal/platform/id"
)

func TestUUIDGeneratesDistinctIDs(t *testing.T) {
	t.Parallel()
	gen := id.UUID{}
	a, b := gen.New(), gen.New()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected uuid, got %q: %v", a, err)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()
	if got := id.RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	ctx := id.WithRequestID(context.Background(), "req-1")
	if got := id.RequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
}
