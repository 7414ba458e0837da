package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Client is the shared HTTP client every fetch operation goes through: one
// connection pool per host, retries with exponential backoff and jitter,
// and an optional aggregate throughput limiter. Generalizes
// _examples/jmgilman-go/oci/client.go's retryOperation/isRetryableError
// pair, replacing the teacher's hand-rolled backoff loop with
// cenkalti/backoff/v4's jittered ExponentialBackOff so the backoff intervals
// and their jitter come from a maintained library instead of a bespoke
// sleep. Retry-After headers are parsed here, by parseRetryAfter.
type Client struct {
	http    *http.Client
	opts    *Options
	limiter *rate.Limiter
}

// New builds a Client from DefaultOptions() plus opts.
func New(opts ...Option) *Client {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	transport := o.Transport
	if transport == nil {
		transport = buildTransport()
	}
	return &Client{
		http:    &http.Client{Transport: transport, Timeout: o.RequestTimeout},
		opts:    o,
		limiter: newLimiter(o.ThrottleBPS),
	}
}

// Get issues a GET to url and returns the response body as a stream. The
// caller must Close it. Retries apply to connection failures and
// retryable status codes (408, 429, 5xx); a successful response with a body is
// returned even if later reads fail, since streaming errors are the
// caller's concern.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doWithRetry(ctx, url, 0)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// attemptResult carries one request attempt's outcome: a successful
// response, or a classified error plus whether it's retryable and what
// wait (if any) the server asked for via Retry-After.
type attemptResult struct {
	resp       *http.Response
	err        error
	retryable  bool
	retryAfter time.Duration
}

// doWithRetry performs one GET, retrying on transport errors and retryable
// HTTP statuses up to opts.MaxRetries times. rangeStart, when nonzero,
// requests a resumed byte range via the Range header. The normal backoff
// sequence comes from backoff.ExponentialBackOff's jittered intervals; a
// 429 response's Retry-After header overrides that interval for the next
// attempt, per spec.
func (c *Client) doWithRetry(ctx context.Context, url string, rangeStart int64) (*http.Response, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.BaseBackoff
	policy.MaxInterval = c.opts.MaxBackoff
	policy.MaxElapsedTime = 0 // bounded by MaxRetries below, not wall time
	policy.Reset()

	var lastErr error
	var serverWait time.Duration
	for attempt := 0; attempt <= maxInt(c.opts.MaxRetries, 0); attempt++ {
		if attempt > 0 {
			wait := policy.NextBackOff()
			if serverWait > 0 {
				wait = serverWait
			}
			select {
			case <-ctx.Done():
				return nil, classifyTransportError("GET", url, ctx.Err())
			case <-time.After(wait):
			}
		}

		result := c.attemptGet(ctx, url, rangeStart)
		if result.err == nil {
			return result.resp, nil
		}
		lastErr = result.err
		serverWait = result.retryAfter
		if !result.retryable {
			return nil, result.err
		}
	}
	return nil, lastErr
}

// attemptGet performs a single request attempt.
func (c *Client) attemptGet(ctx context.Context, url string, rangeStart int64) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return attemptResult{err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if rangeStart > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
	}
	if c.opts.Auth != nil {
		if authErr := c.opts.Auth.Apply(ctx, req); authErr != nil {
			return attemptResult{err: authErr}
		}
	}

	resp, doErr := c.http.Do(req)
	if doErr != nil {
		classified := classifyTransportError("GET", url, doErr)
		return attemptResult{err: classified, retryable: phalanxerrors.IsRetryable(classified)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return attemptResult{resp: resp}
	}
	if rangeStart > 0 && resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		resp.Body.Close()
		return attemptResult{err: phalanxerrors.New(phalanxerrors.CodeRangeNotSupported, "GET "+url)}
	}

	retryAfterHeader := resp.Header.Get("Retry-After")
	resp.Body.Close()
	classified := classifyHTTPStatus("GET", url, resp.StatusCode, retryAfterHeader)
	result := attemptResult{err: classified, retryable: phalanxerrors.IsRetryable(classified)}
	if wait, ok := parseRetryAfter(retryAfterHeader); ok {
		result.retryAfter = wait
	}
	return result
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if when, err := http.ParseTime(v); err == nil {
		return time.Until(when), true
	}
	return 0, false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
