package errors

import goerrors "errors"

// asPlatform converts err into a *platformError, wrapping it under
// CodeUnknown if it isn't one already. The original error is preserved as
// the cause so Unwrap/errors.Is keeps working.
func asPlatform(err error) *platformError {
	var pe *platformError
	if goerrors.As(err, &pe) {
		return pe
	}
	return &platformError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}

// WithContext returns a copy of err with key=value attached to its context
// map. err is converted to a PlatformError first if it wasn't one.
func WithContext(err error, key string, value any) PlatformError {
	cp := asPlatform(err).clone()
	if cp.context == nil {
		cp.context = make(map[string]any, 1)
	}
	cp.context[key] = value
	return cp
}

// WithContextMap merges ctx into err's context map.
func WithContextMap(err error, ctx map[string]any) PlatformError {
	cp := asPlatform(err).clone()
	if cp.context == nil {
		cp.context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		cp.context[k] = v
	}
	return cp
}

// WithClassification overrides the classification carried by err.
func WithClassification(err error, classification Classification) PlatformError {
	cp := asPlatform(err).clone()
	cp.classification = classification
	return cp
}

// Code extracts the ErrorCode from err, or CodeUnknown if err does not
// implement PlatformError.
func Code(err error) ErrorCode {
	var pe PlatformError
	if goerrors.As(err, &pe) {
		return pe.Code()
	}
	return CodeUnknown
}

// IsRetryable reports whether err should be retried, defaulting to false
// for errors that carry no classification.
func IsRetryable(err error) bool {
	var pe PlatformError
	if goerrors.As(err, &pe) {
		return pe.Classification().IsRetryable()
	}
	return false
}
