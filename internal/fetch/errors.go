package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// ErrAllMirrorsFailed is wrapped in the returned error when every mirror
// URL for a resource has been tried and failed.
var ErrAllMirrorsFailed = errors.New("all mirrors failed")

// classifyTransportError maps a raw transport-level error from the HTTP
// client into a phalanx error with the appropriate code, generalizing the
// teacher's isRetryableError string/type matching in client.go into the
// shared error vocabulary instead of a bare bool.
func classifyTransportError(op, url string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return phalanxerrors.Wrap(phalanxerrors.CodeFetchCancelled, op+" "+url, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return phalanxerrors.Wrap(phalanxerrors.CodeConnectTimeout, op+" "+url, err)
		}
		return phalanxerrors.Wrap(phalanxerrors.CodeConnectFailed, op+" "+url, err)
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "EOF"):
		return phalanxerrors.Wrap(phalanxerrors.CodeConnectFailed, op+" "+url, err)
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return phalanxerrors.Wrap(phalanxerrors.CodeConnectTimeout, op+" "+url, err)
	case strings.Contains(errStr, "certificate"), strings.Contains(errStr, "x509"):
		return phalanxerrors.Wrap(phalanxerrors.CodeTLSFailed, op+" "+url, err)
	default:
		return phalanxerrors.Wrap(phalanxerrors.CodeConnectFailed, op+" "+url, err)
	}
}

// classifyHTTPStatus maps a non-2xx HTTP response status into a phalanx
// error: 404, 401/403 and 429 get their own codes; 5xx and 408 get a
// retryable CodeHTTPStatus; any other status gets a CodeHTTPStatus
// classified permanent, so it is not retried.
func classifyHTTPStatus(op, url string, statusCode int, retryAfter string) error {
	msg := op + " " + url
	var err phalanxerrors.PlatformError
	switch {
	case statusCode == http.StatusNotFound:
		err = phalanxerrors.New(phalanxerrors.CodePackageNotFound, msg)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		err = phalanxerrors.New(phalanxerrors.CodeAuthRejected, msg)
	case statusCode == http.StatusTooManyRequests:
		err = phalanxerrors.New(phalanxerrors.CodeRateLimited, msg)
	case statusCode >= 500 || statusCode == http.StatusRequestTimeout:
		err = phalanxerrors.New(phalanxerrors.CodeHTTPStatus, msg)
	default:
		err = phalanxerrors.WithClassification(phalanxerrors.New(phalanxerrors.CodeHTTPStatus, msg),
			phalanxerrors.ClassificationPermanent)
	}
	err = phalanxerrors.WithContext(err, "status", statusCode)
	if retryAfter != "" {
		err = phalanxerrors.WithContext(err, "retry_after", retryAfter)
	}
	return err
}
