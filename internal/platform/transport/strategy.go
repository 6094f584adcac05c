package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"peerlink/internal/platform/clock"
)

// Strategy performs a single attempt of a request.
type Strategy interface {
	Name() string
	RoundTrip(req *http.Request) (*http.Response, error)
}

// Direct sends the request as is.
type Direct struct {
	Base http.RoundTripper
}

func (Direct) Name() string { return "direct" }

func (d Direct) RoundTrip(req *http.Request) (*http.Response, error) {
	return base(d.Base).RoundTrip(req)
}

// Relay sends the request to a forwarding service that takes the escaped
// target URL as its query, e.g. "https://corsproxy.io/?".
type Relay struct {
	Prefix    string
	Base      http.RoundTripper
	CacheBust bool
	Clock     clock.Clock
}

func (Relay) Name() string { return "relay" }

func (r Relay) RoundTrip(req *http.Request) (*http.Response, error) {
	target := req.URL.String()
	if r.CacheBust {
		target = CacheBust(target, r.now())
	}
	relayed, err := url.Parse(r.Prefix + url.QueryEscape(target))
	if err != nil {
		return nil, fmt.Errorf("build relay url: %w", err)
	}
	out := req.Clone(req.Context())
	out.URL = relayed
	out.Host = ""
	return base(r.Base).RoundTrip(out)
}

func (r Relay) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock.Now()
}

// CacheBust appends a _t timestamp parameter, respecting an existing query.
func CacheBust(rawURL string, now time.Time) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "_t=" + strconv.FormatInt(now.UnixMilli(), 10)
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
