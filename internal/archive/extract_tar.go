package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

func (e *Extractor) extractTar(ctx context.Context, r io.Reader, destDir string, opts ExtractOptions, validator *pathValidator) (*Result, error) {
	tr := tar.NewReader(r)
	result := &Result{}
	fileCount := 0

	for {
		if err := isDone(ctx); err != nil {
			return nil, err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, phalanxerrors.Wrap(phalanxerrors.CodeUnsupportedArchive, "read tar header", err)
		}

		entryPath, ok := applyStripPrefix(header.Name, opts.StripPrefix)
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

		switch header.Typeflag {
		case tar.TypeDir:
			if err := e.fs.MkdirAll(destJoin(destDir, entryPath), 0o755); err != nil {
				return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "mkdir "+entryPath, err)
			}

		case tar.TypeReg:
			if opts.MaxFileSize > 0 && header.Size > opts.MaxFileSize {
				return nil, errFileTooLarge(entryPath, opts.MaxFileSize)
			}
			result.TotalSize += header.Size
			if opts.MaxTotalSize > 0 && result.TotalSize > opts.MaxTotalSize {
				return nil, errArchiveTooLarge(opts.MaxTotalSize)
			}
			if err := e.writeTarFile(tr, destDir, entryPath, header, opts); err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, entryPath)

		case tar.TypeSymlink:
			if err := validator.validateSymlinkTarget(entryPath, header.Linkname); err != nil {
				return nil, err
			}
			symlinkFS, ok := e.fs.(interface {
				Symlink(oldname, newname string) error
			})
			if !ok {
				return nil, phalanxerrors.New(phalanxerrors.CodeUnsupportedArchive, "destination filesystem does not support symlinks")
			}
			if err := e.ensureParentDir(destDir, entryPath); err != nil {
				return nil, err
			}
			if err := symlinkFS.Symlink(header.Linkname, destJoin(destDir, entryPath)); err != nil {
				return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "create symlink "+entryPath, err)
			}
			result.Paths = append(result.Paths, entryPath)

		default:
			// Device files, fifos, etc. have no place in a package archive.
			continue
		}
	}

	return result, nil
}

func (e *Extractor) writeTarFile(r io.Reader, destDir, entryPath string, header *tar.Header, opts ExtractOptions) error {
	if err := e.ensureParentDir(destDir, entryPath); err != nil {
		return err
	}
	mode := modePreservingOnlyNonWritable(os.FileMode(header.Mode), opts.PreserveNonWritablePerms)
	f, err := e.fs.OpenFile(destJoin(destDir, entryPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "create file "+entryPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "write file "+entryPath, err)
	}
	return f.Close()
}

func (e *Extractor) ensureParentDir(destDir, entryPath string) error {
	idx := strings.LastIndex(entryPath, "/")
	if idx < 0 {
		return nil
	}
	return e.fs.MkdirAll(destJoin(destDir, entryPath[:idx]), 0o755)
}

// applyStripPrefix removes the configured prefix from an entry name; the
// entry is skipped (ok=false) if it doesn't fall under the prefix. Most
// registry archives wrap their payload in a single top-level directory
// (e.g. "vendor-pkg-abcdef/"), which callers strip unconditionally.
func applyStripPrefix(name, prefix string) (string, bool) {
	if prefix == "" {
		return name, true
	}
	trimmed := strings.TrimPrefix(name, prefix)
	if trimmed == name {
		return "", false
	}
	return strings.TrimPrefix(trimmed, "/"), true
}
