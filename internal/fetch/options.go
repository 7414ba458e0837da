package fetch

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// Options configures a Client. Mirrors the functional-options shape of
// _examples/jmgilman-go/oci/options.go's ClientOptions, trimmed to the
// knobs a plain HTTP downloader needs instead of an OCI registry client.
type Options struct {
	Transport      http.RoundTripper
	RequestTimeout time.Duration
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	ThrottleBPS    int64 // bytes/sec across the whole client; 0 disables throttling
	Auth           *CredentialManager
	UserAgent      string
}

// Option is a functional option for New.
type Option func(*Options)

// DefaultOptions returns the client's defaults: a pooled HTTP/2-capable
// transport, TLS enabled (the default http.Transport already requires TLS
// for https:// URLs), 3 retries with a 500ms base backoff, and no
// throttling.
func DefaultOptions() *Options {
	return &Options{
		RequestTimeout: 60 * time.Second,
		MaxRetries:     3,
		BaseBackoff:    500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		UserAgent:      "phalanx/1.0",
	}
}

// WithTransport injects a custom RoundTripper, primarily for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) { o.Transport = rt }
}

// WithMaxRetries overrides the retry ceiling for retryable errors.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithThrottle caps aggregate download bandwidth in bytes/sec.
func WithThrottle(bytesPerSecond int64) Option {
	return func(o *Options) { o.ThrottleBPS = bytesPerSecond }
}

// WithAuth attaches a credential manager used to authenticate requests.
func WithAuth(cm *CredentialManager) Option {
	return func(o *Options) { o.Auth = cm }
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}

// buildTransport constructs the pooled, HTTP/2-capable transport used when
// the caller hasn't injected one of their own, connection pooling per host
// the way _examples/jmgilman-go/oci/internal/oras/client.go documents for
// its own default transport.
func buildTransport() http.RoundTripper {
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	_ = http2.ConfigureTransport(t)
	return t
}

func newLimiter(bytesPerSecond int64) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSecond), int(throttleChunkBytes*4))
}
