package fsx

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// LocalFS is a disk-backed FS built on go-billy's osfs, the same
// filesystem abstraction the VCS source adapter hands to go-git. Keeping
// both on go-billy lets a single billy.Filesystem be shared between a
// package checkout and the rest of the pipeline.
type LocalFS struct {
	bfs billy.Filesystem
}

// NewLocal roots a LocalFS at root.
func NewLocal(root string) *LocalFS {
	return &LocalFS{bfs: osfs.New(root)}
}

// Unwrap exposes the underlying billy.Filesystem for go-git's clone/checkout
// APIs, which take a billy.Filesystem directly.
func (l *LocalFS) Unwrap() billy.Filesystem { return l.bfs }

func (l *LocalFS) Type() Type { return TypeLocal }

func (l *LocalFS) Open(name string) (fs.File, error) {
	f, err := l.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (l *LocalFS) Stat(name string) (fs.FileInfo, error) { return l.bfs.Stat(name) }

func (l *LocalFS) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := l.bfs.ReadDir(name)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (l *LocalFS) ReadFile(name string) ([]byte, error) {
	f, err := l.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

func (l *LocalFS) Exists(name string) (bool, error) {
	_, err := l.bfs.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *LocalFS) Create(name string) (File, error) {
	f, err := l.bfs.Create(name)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (l *LocalFS) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	f, err := l.bfs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (l *LocalFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f, err := l.bfs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *LocalFS) Mkdir(name string, perm fs.FileMode) error {
	return l.bfs.MkdirAll(name, perm)
}

func (l *LocalFS) MkdirAll(path string, perm fs.FileMode) error {
	return l.bfs.MkdirAll(path, perm)
}

func (l *LocalFS) Remove(name string) error    { return l.bfs.Remove(name) }
func (l *LocalFS) RemoveAll(path string) error { return os.RemoveAll(filepath.Join(l.bfs.Root(), path)) }
func (l *LocalFS) Rename(oldpath, newpath string) error {
	return l.bfs.Rename(oldpath, newpath)
}

func (l *LocalFS) TempFile(dir, pattern string) (File, error) {
	f, err := l.bfs.TempFile(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (l *LocalFS) Walk(root string, walkFn fs.WalkDirFunc) error {
	return walkBilly(l.bfs, root, walkFn)
}

func (l *LocalFS) Symlink(oldname, newname string) error { return l.bfs.Symlink(oldname, newname) }
func (l *LocalFS) Readlink(name string) (string, error)  { return l.bfs.Readlink(name) }
func (l *LocalFS) Lstat(name string) (fs.FileInfo, error) { return l.bfs.Lstat(name) }

type localFile struct {
	bf billy.File
}

func (f *localFile) Read(p []byte) (int, error)  { return f.bf.Read(p) }
func (f *localFile) Write(p []byte) (int, error) { return f.bf.Write(p) }
func (f *localFile) Close() error                { return f.bf.Close() }
func (f *localFile) Name() string                { return f.bf.Name() }

// ReadAt forwards to the underlying billy.File, which embeds io.ReaderAt.
// Exposed so callers needing random access (zip central directory reads)
// can type-assert an fs.File returned from Open into io.ReaderAt.
func (f *localFile) ReadAt(p []byte, off int64) (int, error) { return f.bf.ReadAt(p, off) }

func (f *localFile) Stat() (fs.FileInfo, error) {
	if statter, ok := f.bf.(interface{ Stat() (fs.FileInfo, error) }); ok {
		return statter.Stat()
	}
	return os.Stat(f.bf.Name())
}

// Sync flushes the file to stable storage. go-billy's osfs file wraps
// *os.File, which satisfies this via duck typing; memfs files are
// satisfied trivially since there is nothing to flush.
func (f *localFile) Sync() error {
	if syncer, ok := f.bf.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}
