package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// extractZip buffers the incoming stream to a temp file since archive/zip
// needs io.ReaderAt plus a known size to read the central directory, then
// extracts through the same path-validation and limit-enforcement path as
// the tar readers.
func (e *Extractor) extractZip(ctx context.Context, r io.Reader, destDir string, opts ExtractOptions, validator *pathValidator) (*Result, error) {
	tmp, err := e.fs.TempFile("", "phalanx-zip-*")
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "create zip staging file", err)
	}
	tmpName := tmp.Name()
	defer e.fs.Remove(tmpName)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "stage zip archive", err)
	}
	if opts.MaxTotalSize > 0 && size > opts.MaxTotalSize {
		tmp.Close()
		return nil, errArchiveTooLarge(opts.MaxTotalSize)
	}
	if err := tmp.Close(); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "close zip staging file", err)
	}

	raw, err := e.fs.Open(tmpName)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "reopen zip staging file", err)
	}
	defer raw.Close()
	readerAt, ok := raw.(io.ReaderAt)
	if !ok {
		return nil, phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive, "destination filesystem cannot provide random access for zip extraction")
	}

	zr, err := zip.NewReader(readerAt, size)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeUnsupportedArchive, "open zip central directory", err)
	}

	result := &Result{}
	fileCount := 0
	for _, zf := range zr.File {
		if err := isDone(ctx); err != nil {
			return nil, err
		}

		entryPath, ok := applyStripPrefix(zf.Name, opts.StripPrefix)
		if !ok {
			continue
		}
		if entryPath == "" {
			continue
		}
		if err := validator.validateEntryPath(entryPath); err != nil {
			return nil, err
		}

		fileCount++
		if opts.MaxFiles > 0 && fileCount > opts.MaxFiles {
			return nil, errTooManyFiles(opts.MaxFiles)
		}

		if zf.FileInfo().IsDir() {
			if err := e.fs.MkdirAll(destJoin(destDir, entryPath), 0o755); err != nil {
				return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "mkdir "+entryPath, err)
			}
			continue
		}

		if opts.MaxFileSize > 0 && int64(zf.UncompressedSize64) > opts.MaxFileSize {
			return nil, errFileTooLarge(entryPath, opts.MaxFileSize)
		}
		result.TotalSize += int64(zf.UncompressedSize64)
		if opts.MaxTotalSize > 0 && result.TotalSize > opts.MaxTotalSize {
			return nil, errArchiveTooLarge(opts.MaxTotalSize)
		}

		if err := e.writeZipFile(zf, destDir, entryPath, opts); err != nil {
			return nil, err
		}
		result.Paths = append(result.Paths, entryPath)
	}

	return result, nil
}

func (e *Extractor) writeZipFile(zf *zip.File, destDir, entryPath string, opts ExtractOptions) error {
	if err := e.ensureParentDir(destDir, entryPath); err != nil {
		return err
	}
	src, err := zf.Open()
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "open zip entry "+entryPath, err)
	}
	defer src.Close()

	mode := modePreservingOnlyNonWritable(zf.Mode(), opts.PreserveNonWritablePerms)
	dst, err := e.fs.OpenFile(destJoin(destDir, entryPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "create file "+entryPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "write file "+entryPath, err)
	}
	return dst.Close()
}
