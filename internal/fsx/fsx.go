// Package fsx is the filesystem abstraction every stateful component
// (content store, cache, lockfile writer, archive extractor) is written
// against. It exists so tests can swap a go-billy memfs in for the real
// disk without touching call sites, generalized from the teacher's
// fs/core.FS split into Read/Write/Manage/Walk capability interfaces.
package fsx

import (
	"io"
	"io/fs"
	"time"
)

// Type identifies the backing implementation of an FS.
type Type int

const (
	TypeUnknown Type = iota
	TypeLocal
	TypeMemory
)

func (t Type) String() string {
	switch t {
	case TypeLocal:
		return "local"
	case TypeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// FS is the full capability set a backend may offer. Components depend on
// the narrowest interface they need (ReadFS, WriteFS, ...); FS is for
// wiring at the top level.
type FS interface {
	fs.FS
	ReadFS
	WriteFS
	ManageFS
	WalkFS
	Type() Type
}

// ReadFS is read-only filesystem access.
type ReadFS interface {
	Open(name string) (fs.File, error)
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	Exists(name string) (bool, error)
}

// WriteFS is mutating filesystem access.
type WriteFS interface {
	Create(name string) (File, error)
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Mkdir(name string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
}

// ManageFS covers removal, rename, and temp-file allocation, the three
// operations the content store and lockfile writer need for atomic commits.
type ManageFS interface {
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	TempFile(dir, pattern string) (File, error)
}

// WalkFS is directory-tree traversal.
type WalkFS interface {
	Walk(root string, walkFn fs.WalkDirFunc) error
}

// File is an open file handle with write, sync, and naming support.
type File interface {
	fs.File
	io.Writer
	Name() string
	Sync() error
}

// SymlinkFS is implemented by backends that support symlinks (local disk).
// Used by the archive extractor's symlink-escape validation.
type SymlinkFS interface {
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Lstat(name string) (fs.FileInfo, error)
}

// MetadataFS is implemented by backends that support permission and time
// metadata changes.
type MetadataFS interface {
	Chmod(name string, mode fs.FileMode) error
	Chtimes(name string, atime, mtime time.Time) error
}
