package fsx

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"sync/atomic"
)

var tempSeq uint64

// WriteFileAtomic writes data to target by staging it in a temp file in the
// same directory, fsyncing, then renaming over the final path. This is the
// write pattern every durable artifact in this module uses: cache blobs,
// the lockfile, and auxiliary lockfile-adjacent files.
func WriteFileAtomic(f FS, target string, data []byte, mode uint32) error {
	dir := path.Dir(target)
	if dir != "." && dir != "/" {
		if err := f.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	seq := atomic.AddUint64(&tempSeq, 1)
	tmpName := path.Join(dir, ".tmp-"+strconv.FormatUint(seq, 36)+"-"+path.Base(target))

	file, err := f.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.FileMode(mode))
	if err != nil {
		return fmt.Errorf("create temp file %s: %w", tmpName, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		_ = f.Remove(tmpName)
		return fmt.Errorf("write temp file %s: %w", tmpName, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = f.Remove(tmpName)
		return fmt.Errorf("fsync temp file %s: %w", tmpName, err)
	}
	if err := file.Close(); err != nil {
		_ = f.Remove(tmpName)
		return fmt.Errorf("close temp file %s: %w", tmpName, err)
	}
	if err := f.Rename(tmpName, target); err != nil {
		_ = f.Remove(tmpName)
		return fmt.Errorf("rename %s -> %s: %w", tmpName, target, err)
	}
	return nil
}
