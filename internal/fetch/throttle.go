package fetch

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttleChunkBytes is the granularity at which a rate-limited download
// reports consumption to the limiter, matching the spec's 1 KiB chunking
// so throttling doesn't stall on one giant WaitN call per file.
const throttleChunkBytes = 1024

// throttledReader wraps a source reader and blocks on a token-bucket
// limiter every throttleChunkBytes read, so a download never exceeds the
// configured bandwidth regardless of how large the caller's read buffer is.
// A nil limiter disables throttling entirely (the default, per spec).
type throttledReader struct {
	ctx     context.Context
	src     io.Reader
	limiter *rate.Limiter
}

func newThrottledReader(ctx context.Context, src io.Reader, limiter *rate.Limiter) io.Reader {
	if limiter == nil {
		return src
	}
	return &throttledReader{ctx: ctx, src: src, limiter: limiter}
}

func (r *throttledReader) Read(p []byte) (int, error) {
	if len(p) > throttleChunkBytes {
		p = p[:throttleChunkBytes]
	}
	n, err := r.src.Read(p)
	if n > 0 {
		if waitErr := r.limiter.WaitN(r.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
