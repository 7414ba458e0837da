package fetch

import (
	"context"
	"fmt"
	"io"
	"os"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
	"github.com/phalanx-pm/phalanx/internal/fsx"
)

// Progress is called as bytes arrive during Download; total is -1 when the
// server didn't report Content-Length.
type Progress func(downloaded, total int64)

// DownloadResult reports what a successful Download produced: the
// destination path and the BLAKE3 digest of the bytes written, which the
// caller typically hands straight to the content store as its cache key.
type DownloadResult struct {
	Path       string
	BLAKE3Hex  string
	BytesTotal int64
}

// Download fetches url (trying mirrors in order on failure) into dest on
// fs, resuming a partial file left over from a previous attempt via Range,
// verifying expected (if non-nil) once the stream completes. A checksum
// mismatch deletes the partial file; if every mirror fails and any of them
// failed with a checksum mismatch, that CodeChecksumMismatch error is
// returned instead of CodeMirrorsExhausted.
//
// Generalizes the teacher's extractAtomically staging shape in
// _examples/jmgilman-go/oci/client.go (write to a scratch location, verify,
// then hand back a clean result) from OCI pull into plain HTTP download.
func (c *Client) Download(ctx context.Context, urls []string, destFS fsx.FS, dest string, expected *ExpectedChecksum, progress Progress) (*DownloadResult, error) {
	if len(urls) == 0 {
		return nil, phalanxerrors.New(phalanxerrors.CodeMirrorsExhausted, "no URLs provided")
	}

	var lastErr, mismatchErr error
	for _, url := range urls {
		result, err := c.downloadOne(ctx, url, destFS, dest, expected, progress)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if phalanxerrors.Code(err) == phalanxerrors.CodeChecksumMismatch {
			mismatchErr = err
		}
		// A failure on one mirror (404, checksum mismatch, path
		// traversal, exhausted per-URL retries) is still worth trying
		// the next mirror, since mirrors can be out of sync; only a
		// cancellation short-circuits the whole fallback chain.
		if phalanxerrors.Code(err) == phalanxerrors.CodeFetchCancelled {
			return nil, err
		}
	}
	if mismatchErr != nil {
		return nil, mismatchErr
	}
	return nil, phalanxerrors.Wrap(phalanxerrors.CodeMirrorsExhausted, "all mirrors failed",
		fmt.Errorf("%w: %v", ErrAllMirrorsFailed, lastErr))
}

func (c *Client) downloadOne(ctx context.Context, url string, destFS fsx.FS, dest string, expected *ExpectedChecksum, progress Progress) (*DownloadResult, error) {
	var resumeFrom int64
	if info, err := destFS.Stat(dest); err == nil {
		resumeFrom = info.Size()
	}

	resp, err := c.doWithRetry(ctx, url, resumeFrom)
	if err != nil {
		if phalanxerrors.Code(err) == phalanxerrors.CodeRangeNotSupported {
			// Server doesn't support resume; restart from scratch.
			resumeFrom = 0
			resp, err = c.doWithRetry(ctx, url, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	flag := fsWriteFlag(resumeFrom > 0 && resp.StatusCode == 206)
	f, err := destFS.OpenFile(dest, flag, 0o644)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "open "+dest, err)
	}

	cw := newChecksumWriter(expected)
	var written int64
	body := io.Reader(resp.Body)
	body = newThrottledReader(ctx, body, c.limiter)
	body = &teeReader{r: body, w: cw}
	if progress != nil {
		body = &progressReader{r: body, onRead: func(n int) {
			written += int64(n)
			progress(written, resp.ContentLength)
		}}
	}

	_, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "write "+dest, copyErr)
	}
	if closeErr != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "close "+dest, closeErr)
	}

	// A resumed download only hashed the appended tail above; checksums
	// (both BLAKE3 and any caller-supplied algorithm) must cover the
	// whole file, so re-hash it from disk in that case.
	digestWriter := cw
	if resumeFrom > 0 {
		digestWriter, err = hashWholeFile(destFS, dest, expected)
		if err != nil {
			return nil, err
		}
	}

	if err := digestWriter.verify(expected); err != nil {
		_ = destFS.Remove(dest)
		return nil, err
	}

	info, statErr := destFS.Stat(dest)
	total := written
	if statErr == nil {
		total = info.Size()
	}
	return &DownloadResult{Path: dest, BLAKE3Hex: digestWriter.blake3Hex(), BytesTotal: total}, nil
}

// hashWholeFile re-reads dest end to end and tees it through a fresh
// checksumWriter, used after a resumed (Range) download where the
// in-flight hash only covered the appended bytes.
func hashWholeFile(destFS fsx.FS, dest string, expected *ExpectedChecksum) (*checksumWriter, error) {
	f, err := destFS.Open(dest)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "reopen "+dest, err)
	}
	defer f.Close()

	cw := newChecksumWriter(expected)
	if _, err := io.Copy(cw, f); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "hash "+dest, err)
	}
	return cw, nil
}

func fsWriteFlag(resume bool) int {
	if resume {
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

// progressReader invokes onRead after every successful Read, independent
// of checksum tee-ing or throttling, which both wrap it in the same chain.
type progressReader struct {
	r      io.Reader
	onRead func(n int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.onRead(n)
	}
	return n, err
}
