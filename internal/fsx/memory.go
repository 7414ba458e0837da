package fsx

import (
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// MemoryFS is an in-memory FS built on go-billy's memfs, used by tests that
// exercise the cache, lockfile writer, or archive extractor without
// touching disk.
type MemoryFS struct {
	bfs billy.Filesystem
}

// NewMemory creates an empty MemoryFS.
func NewMemory() *MemoryFS { return &MemoryFS{bfs: memfs.New()} }

func (m *MemoryFS) Unwrap() billy.Filesystem { return m.bfs }
func (m *MemoryFS) Type() Type               { return TypeMemory }

func (m *MemoryFS) Open(name string) (fs.File, error) {
	f, err := m.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) { return m.bfs.Stat(name) }

func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := m.bfs.ReadDir(name)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	f, err := m.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

func (m *MemoryFS) Exists(name string) (bool, error) {
	_, err := m.bfs.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (m *MemoryFS) Create(name string) (File, error) {
	f, err := m.bfs.Create(name)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (m *MemoryFS) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	f, err := m.bfs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f, err := m.bfs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *MemoryFS) Mkdir(name string, perm fs.FileMode) error    { return m.bfs.MkdirAll(name, perm) }
func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error { return m.bfs.MkdirAll(path, perm) }

func (m *MemoryFS) Remove(name string) error { return m.bfs.Remove(name) }
func (m *MemoryFS) RemoveAll(path string) error {
	return removeAllBilly(m.bfs, path)
}
func (m *MemoryFS) Rename(oldpath, newpath string) error { return m.bfs.Rename(oldpath, newpath) }

func (m *MemoryFS) TempFile(dir, pattern string) (File, error) {
	f, err := m.bfs.TempFile(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &localFile{bf: f}, nil
}

func (m *MemoryFS) Walk(root string, walkFn fs.WalkDirFunc) error {
	return walkBilly(m.bfs, root, walkFn)
}

func removeAllBilly(bfs billy.Filesystem, path string) error {
	info, err := bfs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return bfs.Remove(path)
	}
	entries, err := bfs.ReadDir(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := removeAllBilly(bfs, path+"/"+e.Name()); err != nil {
			return err
		}
	}
	return bfs.Remove(path)
}
