// Package httpclient builds outbound HTTP clients shared by the Telegram
// runtime and the movie metadata providers.
package httpclient

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// Options tunes New. Zero values fall back to defaults; a negative
// MaxRetries disables retries.
type Options struct {
	Timeout         time.Duration
	ResponseTimeout time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	// Base overrides the underlying transport (tests).
	Base http.RoundTripper
}

// New returns an HTTP client with pooled connections and a transport that
// retries transient dial/timeout failures with linear backoff.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = defaultResponseTimeout
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = defaultRetryAttempts
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	base := opts.Base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshake,
			ResponseHeaderTimeout: opts.ResponseTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:       base,
			maxRetries: opts.MaxRetries,
			backoff:    opts.RetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

// RoundTrip repeats requests that failed before a response arrived.
// Requests with a body that cannot be rewound are sent once.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	for attempt := 1; ; attempt++ {
		resp, err := base.RoundTrip(req)
		if err == nil || attempt > t.maxRetries || !netutil.ShouldRetry(err) {
			return resp, err
		}
		next, ok := rewind(req)
		if !ok {
			return nil, err
		}
		delay := netutil.Backoff(t.backoff, attempt)
		logger.Debug(req.Context(), "http", "http.retry",
			slog.String("host", req.URL.Host),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err_code", netutil.Classify(err)),
		)
		if err := netutil.Sleep(req.Context(), delay); err != nil {
			return nil, err
		}
		req = next
	}
}

func rewind(req *http.Request) (*http.Request, bool) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	next.Body = body
	return next, true
}
