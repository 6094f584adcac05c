package apperrors_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	apperrors "peerlink/internal/platform/errors"
)

func TestNetworkErrorUnwrapsAttemptsThroughURLError(t *testing.T) {
	t.Parallel()
	netErr := &apperrors.NetworkError{
		Target:   "https://example.test/x",
		Attempts: []error{fmt.Errorf("direct: %w", context.DeadlineExceeded), errors.New("relay: refused")},
	}
	wrapped := &url.Error{Op: "Get", URL: "https://example.test/x", Err: netErr}

	var got *apperrors.NetworkError
	if !errors.As(wrapped, &got) {
		t.Fatalf("expected network error through url.Error")
	}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Fatalf("expected attempt errors to be reachable with errors.Is")
	}
	if !strings.Contains(got.Error(), "relay: refused") {
		t.Fatalf("expected attempts in message, got %q", got.Error())
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	t.Parallel()
	err := &apperrors.ProtocolError{Target: "/participants/x", Reason: "no token in response"}
	if err.Error() != "protocol error: /participants/x: no token in response" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if errors.Unwrap(err) != nil {
		t.Fatalf("expected nil cause")
	}
}
