package manifest

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
	"github.com/phalanx-pm/phalanx/internal/fsx"
)

const lockfileSchemaVersion = 2

// MarshalCanonical renders v (a *Lockfile) in the schema's canonical form:
// packages sorted by name, 4-space indentation, UTF-8 without BOM, LF line
// endings, no floating point fields.
func MarshalCanonical(l *Lockfile) ([]byte, error) {
	sorted := *l
	sorted.Packages = sortedCopy(l.Packages)
	sorted.PackagesDev = sortedCopy(l.PackagesDev)
	sort.Slice(sorted.Aliases, func(i, j int) bool {
		return sorted.Aliases[i].Package < sorted.Aliases[j].Package
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(sorted); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidLockfile, "encode lockfile", err)
	}
	// json.Encoder.Encode appends a trailing newline; strip any \r that a
	// platform-default writer might otherwise introduce downstream.
	out := bytes.ReplaceAll(buf.Bytes(), []byte("\r\n"), []byte("\n"))
	return bytes.TrimRight(out, "\n"), nil
}

func sortedCopy(pkgs []CandidatePackage) []CandidatePackage {
	out := make([]CandidatePackage, len(pkgs))
	copy(out, pkgs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ParseLockfile decodes a composer.lock document and rejects a schema
// version newer than this build understands.
func ParseLockfile(data []byte) (*Lockfile, error) {
	var l Lockfile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidLockfile, "parse lockfile", err)
	}
	var versionProbe struct {
		SchemaVersion int `json:"schema-version"`
	}
	_ = json.Unmarshal(data, &versionProbe)
	if versionProbe.SchemaVersion > lockfileSchemaVersion {
		return nil, phalanxerrors.New(phalanxerrors.CodeInvalidLockfile,
			fmt.Sprintf("lockfile schema version %d is newer than supported %d", versionProbe.SchemaVersion, lockfileSchemaVersion))
	}
	return &l, nil
}

// ContentHashFields is the subset of a Manifest that affects dependency
// resolution; only a change here invalidates an existing lockfile.
type ContentHashFields struct {
	Require          map[string]string `json:"require"`
	RequireDev       map[string]string `json:"require-dev"`
	Conflict         map[string]string `json:"conflict"`
	Replace          map[string]string `json:"replace"`
	Provide          map[string]string `json:"provide"`
	MinimumStability string            `json:"minimum-stability"`
	PreferStable     bool              `json:"prefer-stable"`
	Platform         map[string]string `json:"platform,omitempty"`
	PlatformDev      map[string]string `json:"platform-dev,omitempty"`
	Aliases          []Alias           `json:"aliases,omitempty"`
}

// ComputeContentHash computes the MD5 digest (kept for wire-format
// compatibility with the ecosystem's existing lockfiles) of the manifest's
// dependency-affecting fields, canonically serialized.
func ComputeContentHash(m *Manifest) (string, error) {
	fields := ContentHashFields{
		Require:          m.Require,
		RequireDev:       m.RequireDev,
		Conflict:         m.Conflict,
		Replace:          m.Replace,
		Provide:          m.Provide,
		MinimumStability: m.MinimumStability,
		PreferStable:     m.PreferStable,
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return "", phalanxerrors.Wrap(phalanxerrors.CodeInvalidManifest, "encode content-hash fields", err)
	}
	sum := md5.Sum(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func integrityHashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Diff reports the delta between an old and new lockfile.
type Diff struct {
	Added      []string
	Removed    []string
	Upgraded   []VersionChange
	Downgraded []VersionChange
}

// VersionChange names a package whose pinned version moved between two
// lockfiles.
type VersionChange struct {
	Package string
	From    string
	To      string
}

// DiffLockfiles computes the added/removed/upgraded/downgraded sets between
// oldLock and newLock, ordered lexicographically by package name.
func DiffLockfiles(oldLock, newLock *Lockfile) Diff {
	oldByName := indexByName(oldLock.Packages)
	newByName := indexByName(newLock.Packages)

	var d Diff
	names := make(map[string]bool)
	for name := range oldByName {
		names[name] = true
	}
	for name := range newByName {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		oldPkg, hadOld := oldByName[name]
		newPkg, hasNew := newByName[name]
		switch {
		case !hadOld && hasNew:
			d.Added = append(d.Added, name)
		case hadOld && !hasNew:
			d.Removed = append(d.Removed, name)
		case hadOld && hasNew && oldPkg.Version.String() != newPkg.Version.String():
			change := VersionChange{Package: name, From: oldPkg.Version.Original(), To: newPkg.Version.Original()}
			if newPkg.Version.LessThan(oldPkg.Version) {
				d.Downgraded = append(d.Downgraded, change)
			} else {
				d.Upgraded = append(d.Upgraded, change)
			}
		}
	}
	return d
}

func indexByName(pkgs []CandidatePackage) map[string]CandidatePackage {
	out := make(map[string]CandidatePackage, len(pkgs))
	for _, p := range pkgs {
		out[p.ID.String()] = p
	}
	return out
}

// AtomicWriter commits one or more files together, rolling back any file it
// created before a later failure. Mirrors the content store's
// temp-file-in-same-dir -> fsync -> rename pattern so lockfile writes share
// the same crash-safety properties as cache blob writes.
type AtomicWriter struct {
	fs      fsx.FS
	written []string
}

// NewAtomicWriter creates an AtomicWriter bound to fs.
func NewAtomicWriter(fs fsx.FS) *AtomicWriter {
	return &AtomicWriter{fs: fs}
}

// WriteFile stages data at path via a temp-file-then-rename sequence. On
// success path is added to the writer's rollback set.
func (w *AtomicWriter) WriteFile(path string, data []byte, mode uint32) error {
	if err := fsx.WriteFileAtomic(w.fs, path, data, mode); err != nil {
		w.Rollback()
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "atomic write "+path, err)
	}
	w.written = append(w.written, path)
	return nil
}

// Rollback removes every file this writer has successfully committed so
// far. Best-effort: individual removal failures are ignored since the
// caller is already unwinding from a prior error.
func (w *AtomicWriter) Rollback() {
	for _, path := range w.written {
		_ = w.fs.Remove(path)
	}
	w.written = nil
}

// Commit clears the rollback set, finalizing the write batch.
func (w *AtomicWriter) Commit() { w.written = nil }
