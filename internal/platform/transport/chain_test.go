package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"peerlink/internal/platform/clock"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/platform/transport"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var refused = roundTripFunc(func(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
})

func relayServer(t *testing.T, seen *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, err := url.QueryUnescape(r.URL.RawQuery)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		seen.Store(target + "|" + r.Header.Get("Authorization") + "|" + string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCacheBustPicksSeparator(t *testing.T) {
	t.Parallel()
	at := time.UnixMilli(1700000000123)
	require.Equal(t, "https://a.test/p?_t=1700000000123", transport.CacheBust("https://a.test/p", at))
	require.Equal(t, "https://a.test/p?limit=10&_t=1700000000123", transport.CacheBust("https://a.test/p?limit=10", at))
}

func TestChainFallsBackToRelayOnTransportFailure(t *testing.T) {
	t.Parallel()
	var seen atomic.Value
	relay := relayServer(t, &seen)

	chain := transport.NewChain(nil, nil,
		transport.Direct{Base: refused},
		transport.Relay{Prefix: relay.URL + "/?", CacheBust: true, Clock: clock.Fixed{At: time.UnixMilli(42)}},
	)
	client := &http.Client{Transport: chain}

	req, err := http.NewRequest(http.MethodGet, "https://platform.test/api/participants/bob?x=1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://platform.test/api/participants/bob?x=1&_t=42|Bearer tok|", seen.Load())
}

func TestChainReplaysFormBodyOnRelay(t *testing.T) {
	t.Parallel()
	var seen atomic.Value
	relay := relayServer(t, &seen)

	chain := transport.NewChain(nil, nil,
		transport.Direct{Base: refused},
		transport.Relay{Prefix: relay.URL + "/?"},
	)
	form := url.Values{"grant_type": {"password"}, "username": {"bob"}}
	req, err := http.NewRequest(http.MethodPost, "https://auth.test/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: chain}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "https://auth.test/token||grant_type=password&username=bob", seen.Load())
}

func TestChainDoesNotFallBackOnHTTPErrorStatus(t *testing.T) {
	t.Parallel()
	var relayed atomic.Bool
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer direct.Close()
	relay := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		relayed.Store(true)
	}))
	defer relay.Close()

	client := &http.Client{Transport: transport.NewChain(nil, nil,
		transport.Direct{},
		transport.Relay{Prefix: relay.URL + "/?"},
	)}
	resp, err := client.Get(direct.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, relayed.Load())
}

func TestChainReportsNetworkErrorWhenAllStrategiesFail(t *testing.T) {
	t.Parallel()
	client := &http.Client{Transport: transport.NewChain(nil, nil,
		transport.Direct{Base: refused},
		transport.Relay{Prefix: "https://relay.test/?", Base: refused},
	)}
	_, err := client.Get("https://platform.test/x")
	require.Error(t, err)

	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Len(t, netErr.Attempts, 2)
	require.Contains(t, netErr.Attempts[0].Error(), "direct")
	require.Contains(t, netErr.Attempts[1].Error(), "relay")
}

func TestAttemptTimeoutTriggersFallback(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	var seen atomic.Value
	relay := relayServer(t, &seen)

	base := transport.NewBaseTransport(100 * time.Millisecond)
	client := &http.Client{Transport: transport.NewChain(nil, nil,
		transport.Direct{Base: base},
		transport.Relay{Prefix: relay.URL + "/?", Base: base},
	)}
	started := time.Now()
	resp, err := client.Get(slow.URL + "/participants/alice")
	require.NoError(t, err)
	resp.Body.Close()

	require.True(t, time.Since(started) < 3*time.Second, "fallback took too long")
	require.True(t, strings.HasPrefix(seen.Load().(string), slow.URL+"/participants/alice"))
}

func TestCanceledContextStopsFallback(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var relayed atomic.Bool
	direct := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		cancel()
		return nil, r.Context().Err()
	})
	relay := roundTripFunc(func(*http.Request) (*http.Response, error) {
		relayed.Store(true)
		return nil, errors.New("unexpected")
	})
	client := &http.Client{Transport: transport.NewChain(nil, nil,
		transport.Direct{Base: direct},
		transport.Relay{Prefix: "https://relay.test/?", Base: relay},
	)}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://platform.test/x", nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)
	require.False(t, relayed.Load())
}

func TestNewClientWithoutRelayUsesDirectOnly(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	counting := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("down")
	})
	client := transport.NewClient(transport.Options{AttemptTimeout: time.Second, Base: counting, RequestsPerSecond: 100, Burst: 5})
	_, err := client.Get("https://platform.test/x")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}
