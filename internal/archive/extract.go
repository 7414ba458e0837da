package archive

import (
	"context"
	"io"
	"os"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
	"github.com/phalanx-pm/phalanx/internal/fsx"
)

// Extractor streams an archive's contents into a destination directory on
// an fsx.FS, enforcing path-safety and the configured size limits.
type Extractor struct {
	fs fsx.FS
}

// New creates an Extractor writing through fs.
func New(fs fsx.FS) *Extractor {
	return &Extractor{fs: fs}
}

// Extract dispatches to the tar- or zip-based extraction path by kind and
// returns every path it created relative to destDir along with the total
// bytes written.
func (e *Extractor) Extract(ctx context.Context, kind Kind, r io.Reader, destDir string, opts ExtractOptions) (*Result, error) {
	if err := e.fs.MkdirAll(destDir, 0o755); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "create destination "+destDir, err)
	}
	validator := newPathValidator(destDir, opts.AllowHidden)

	switch {
	case kind.IsTarBased():
		decompressed, cleanup, err := decompressionReaderFor(kind, r)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		return e.extractTar(ctx, decompressed, destDir, opts, validator)
	case kind == KindZip:
		return e.extractZip(ctx, r, destDir, opts, validator)
	default:
		return nil, errUnsupportedKind(kind)
	}
}

func decompressionReaderFor(kind Kind, r io.Reader) (io.Reader, func(), error) {
	switch kind {
	case KindTar:
		return r, func() {}, nil
	case KindTarGz:
		return newGzipReader(r)
	case KindTarBz2:
		return newBzip2Reader(r)
	case KindTarXz:
		return newXzReader(r)
	case KindTarZstd:
		return newZstdReader(r)
	default:
		return nil, nil, errUnsupportedKind(kind)
	}
}

func isDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func destJoin(destDir, entryPath string) string {
	return destDir + "/" + entryPath
}

func modePreservingOnlyNonWritable(mode os.FileMode, preserve bool) os.FileMode {
	if !preserve {
		return 0o644
	}
	// Keep read/execute bits, drop anything that would make the extracted
	// tree writable beyond the owner.
	return mode &^ (os.FileMode(0o022))
}
