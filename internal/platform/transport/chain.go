package transport

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"peerlink/internal/platform/clock"
	apperrors "peerlink/internal/platform/errors"
)

// Chain is an http.RoundTripper that tries each strategy in order and moves
// on only when an attempt produced no response at all. HTTP error statuses
// are returned to the caller untouched.
type Chain struct {
	strategies []Strategy
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, limiter *rate.Limiter, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, limiter: limiter, logger: logger}
}

func (c *Chain) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attempts := make([]error, 0, len(c.strategies))
	for i, strategy := range c.strategies {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				attempts = append(attempts, fmt.Errorf("%s: %w", strategy.Name(), err))
				break
			}
		}
		attempt := req
		if i > 0 {
			rewound, err := rewind(req)
			if err != nil {
				attempts = append(attempts, fmt.Errorf("%s: %w", strategy.Name(), err))
				break
			}
			attempt = rewound
		}

		resp, err := strategy.RoundTrip(attempt)
		if err == nil {
			if i > 0 {
				c.logger.Info("request served by fallback transport", "strategy", strategy.Name(), "host", req.URL.Host)
			}
			return resp, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", strategy.Name(), err))
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(c.strategies) {
			c.logger.Warn("transport attempt failed, falling back",
				"strategy", strategy.Name(),
				"next", c.strategies[i+1].Name(),
				"method", req.Method,
				"url", req.URL.Redacted(),
				"error", err,
			)
		}
	}
	return nil, &apperrors.NetworkError{Target: req.URL.Redacted(), Attempts: attempts}
}

func rewind(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	out.Body = body
	return out, nil
}

type Options struct {
	AttemptTimeout    time.Duration
	RelayURL          string
	CacheBust         bool
	RequestsPerSecond float64
	Burst             int
	Clock             clock.Clock
	Logger            *slog.Logger
	// Base replaces the network transport in tests.
	Base http.RoundTripper
}

// NewBaseTransport bounds every phase of a single attempt by timeout, so a
// stalled direct request fails over to the relay instead of hanging.
func NewBaseTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
	}
}

// NewClient returns an http.Client whose transport is a direct strategy
// followed, when RelayURL is set, by a relay strategy.
func NewClient(opts Options) *http.Client {
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rt := opts.Base
	if rt == nil {
		rt = NewBaseTransport(timeout)
	}
	strategies := []Strategy{Direct{Base: rt}}
	if opts.RelayURL != "" {
		strategies = append(strategies, Relay{Prefix: opts.RelayURL, Base: rt, CacheBust: opts.CacheBust, Clock: opts.Clock})
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &http.Client{
		Transport: NewChain(opts.Logger, limiter, strategies...),
		Timeout:   timeout * time.Duration(len(strategies)+1),
	}
}
