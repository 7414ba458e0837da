package fsx

import (
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

func readAll(f billy.File) ([]byte, error) {
	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// walkBilly implements fs.WalkDir's traversal semantics (lexical order,
// skip-dir/skip-all support) on top of a billy.Filesystem, since billy does
// not ship its own Walk.
func walkBilly(bfs billy.Filesystem, root string, walkFn fs.WalkDirFunc) error {
	info, err := bfs.Lstat(root)
	if err != nil {
		return walkFn(root, nil, err)
	}
	err = walkBillyRecurse(bfs, root, fs.FileInfoToDirEntry(info), walkFn)
	if err == fs.SkipDir || err == fs.SkipAll {
		return nil
	}
	return err
}

func walkBillyRecurse(bfs billy.Filesystem, path string, d fs.DirEntry, walkFn fs.WalkDirFunc) error {
	err := walkFn(path, d, nil)
	if err != nil {
		if err == fs.SkipDir && d.IsDir() {
			return nil
		}
		return err
	}
	if !d.IsDir() {
		return nil
	}
	entries, err := bfs.ReadDir(path)
	if err != nil {
		return walkFn(path, d, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		childPath := entry.Name()
		if path != "." {
			childPath = strings.TrimSuffix(path, "/") + "/" + entry.Name()
		}
		childDir := fs.FileInfoToDirEntry(entry)
		if err := walkBillyRecurse(bfs, childPath, childDir, walkFn); err != nil {
			if err == fs.SkipDir {
				continue
			}
			return err
		}
	}
	return nil
}
