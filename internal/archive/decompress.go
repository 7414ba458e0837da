package archive

import (
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

func newGzipReader(r io.Reader) (io.Reader, func(), error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, phalanxerrors.Wrap(phalanxerrors.CodeUnsupportedArchive, "open gzip stream", err)
	}
	return gz, func() { gz.Close() }, nil
}

// bzip2 has no writer-side counterpart worth pulling a third-party codec
// for: the registry only ever ships bzip2 as a decode target, and the
// standard library's decoder is the only thing in the pack that reads it.
func newBzip2Reader(r io.Reader) (io.Reader, func(), error) {
	return bzip2.NewReader(r), func() {}, nil
}

func newXzReader(r io.Reader) (io.Reader, func(), error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, nil, phalanxerrors.Wrap(phalanxerrors.CodeUnsupportedArchive, "open xz stream", err)
	}
	return xr, func() {}, nil
}

func newZstdReader(r io.Reader) (io.Reader, func(), error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, phalanxerrors.Wrap(phalanxerrors.CodeUnsupportedArchive, "open zstd stream", err)
	}
	return zr, func() { zr.Close() }, nil
}
