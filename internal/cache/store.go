package cache

import (
	"bytes"
	"encoding/hex"
	"io"
	"sync"

	"github.com/zeebo/blake3"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
	"github.com/phalanx-pm/phalanx/internal/fsx"
)

// mmapThreshold is the size above which Store.OpenStream avoids a full
// heap-buffered read in favor of returning a lazily-read file handle. True
// memory-mapping would need a platform-specific syscall wrapper outside
// this pack's dependency set (no example repo imports one), so this is
// approximated by streaming straight off the filesystem handle instead of
// buffering — it caps peak heap use without adding an ungrounded
// dependency. Integrity is still checked incrementally as the stream is
// read, via verifyingReader, rather than skipped for these larger blobs.
const mmapThreshold = 10 << 20

// Store is the L1 content-addressed blob repository: a directory rooted at
// a configured path, divided by Class subdirectories, fanned out two hex
// nibbles deep by the blob's ContentHash.
//
// Writes stream into a temp file in the same fan-out directory, fsync, then
// atomically rename — the same pattern
// _examples/jmgilman-go/oci/internal/cache/storage.go uses for OCI blobs,
// generalized away from its prepended-checksum-line framing since the
// content hash here already names the file.
type Store struct {
	fs       fsx.FS
	rootPath string

	fileLocks sync.Map // key -> *sync.Mutex, serializes concurrent writers of the same key
}

// NewStore creates a Store rooted at rootPath on fs.
func NewStore(fs fsx.FS, rootPath string) *Store {
	return &Store{fs: fs, rootPath: rootPath}
}

func (s *Store) blobPath(class Class, hexKey string) string {
	if len(hexKey) < 2 {
		return s.rootPath + "/" + string(class) + "/" + hexKey
	}
	return s.rootPath + "/" + string(class) + "/" + hexKey[:2] + "/" + hexKey
}

func (s *Store) lockFor(key string) *sync.Mutex {
	v, _ := s.fileLocks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Put streams data into the store under (class, hexKey), where hexKey is
// the lowercase hex BLAKE3 digest of data. Concurrent Puts of the same key
// are idempotent: a per-key mutex serializes them, and a writer that finds
// the blob already present returns nil without writing.
func (s *Store) Put(class Class, hexKey string, data []byte) error {
	mu := s.lockFor(hexKey)
	mu.Lock()
	defer mu.Unlock()

	target := s.blobPath(class, hexKey)
	if exists, _ := s.fs.Exists(target); exists {
		return nil
	}
	if err := fsx.WriteFileAtomic(s.fs, target, data, 0o644); err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "write blob "+hexKey, err)
	}
	return nil
}

// Get reads the blob for (class, hexKey) and verifies its BLAKE3 digest
// matches hexKey. A mismatch deletes the corrupt blob and returns a
// CodeCorruptBlob error so the caller treats it as a miss.
func (s *Store) Get(class Class, hexKey string) ([]byte, error) {
	target := s.blobPath(class, hexKey)
	data, err := s.fs.ReadFile(target)
	if err != nil {
		return nil, errNotFound(hexKey)
	}
	if !verifyDigest(data, hexKey) {
		_ = s.fs.Remove(target)
		return nil, errCorrupt(hexKey)
	}
	return data, nil
}

// OpenStream opens the blob for reading without loading it fully into
// memory when it is at or above mmapThreshold. Every size is integrity
// checked on read, per spec: smaller blobs are verified up front via
// Get-style digest check; larger ones are wrapped in a verifyingReader
// that hashes incrementally as the caller consumes the stream, so a blob
// corrupted on disk after being written correctly is still caught without
// forcing a full heap-buffered read just to check it.
func (s *Store) OpenStream(class Class, hexKey string) (io.ReadCloser, error) {
	target := s.blobPath(class, hexKey)
	info, err := s.fs.Stat(target)
	if err != nil {
		return nil, errNotFound(hexKey)
	}
	if info.Size() < mmapThreshold {
		data, err := s.Get(class, hexKey)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	f, err := s.fs.Open(target)
	if err != nil {
		return nil, errNotFound(hexKey)
	}
	rc, ok := f.(io.ReadCloser)
	if !ok {
		return nil, phalanxerrors.New(phalanxerrors.CodeIO, "blob handle is not a ReadCloser")
	}
	return &verifyingReader{
		rc:      rc,
		hasher:  blake3.New(),
		wantHex: hexKey,
		onCorrupt: func() {
			_ = s.fs.Remove(target)
		},
	}, nil
}

// Has reports whether (class, hexKey) exists without reading or verifying
// its content.
func (s *Store) Has(class Class, hexKey string) bool {
	exists, _ := s.fs.Exists(s.blobPath(class, hexKey))
	return exists
}

// Remove deletes the blob for (class, hexKey), if present.
func (s *Store) Remove(class Class, hexKey string) error {
	return s.fs.Remove(s.blobPath(class, hexKey))
}

// HashHex computes the lowercase hex BLAKE3 digest of data, the key format
// used throughout the store.
func HashHex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func verifyDigest(data []byte, wantHex string) bool {
	got := HashHex(data)
	return constantTimeEqualHex(got, wantHex)
}

func constantTimeEqualHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// verifyingReader wraps a blob file handle and accumulates a BLAKE3 hash
// across every Read, checking it against wantHex only once the
// underlying reader reaches EOF. This lets OpenStream's large-blob path
// verify integrity without buffering the whole blob in memory first: the
// hash is complete exactly when the caller has consumed the whole stream.
type verifyingReader struct {
	rc        io.ReadCloser
	hasher    *blake3.Hasher
	wantHex   string
	onCorrupt func()
	done      bool
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	n, err := v.rc.Read(p)
	if n > 0 {
		v.hasher.Write(p[:n])
	}
	if err == io.EOF {
		if v.done {
			return n, err
		}
		v.done = true
		got := hex.EncodeToString(v.hasher.Sum(nil))
		if !constantTimeEqualHex(got, v.wantHex) {
			if v.onCorrupt != nil {
				v.onCorrupt()
			}
			return n, errCorrupt(v.wantHex)
		}
	}
	return n, err
}

func (v *verifyingReader) Close() error { return v.rc.Close() }

