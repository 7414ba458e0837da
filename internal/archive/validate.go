package archive

import (
	"path/filepath"
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// pathValidator rejects archive entry paths that would escape the
// extraction destination: absolute paths (including Windows drive letters
// and UNC paths), ".." traversal (direct, encoded, or backslash-separated),
// NUL/control characters, and — for symlinks — targets that resolve
// outside destRoot.
type pathValidator struct {
	allowHidden bool
	destRoot    string
}

func newPathValidator(destRoot string, allowHidden bool) *pathValidator {
	return &pathValidator{destRoot: destRoot, allowHidden: allowHidden}
}

func (v *pathValidator) validateEntryPath(entryPath string) error {
	if entryPath == "" || isWhitespaceOnly(entryPath) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "empty entry path")
	}
	if isAbsolutePath(entryPath) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "absolute path not allowed: "+entryPath)
	}
	if hasEncodedTraversal(entryPath) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "encoded path traversal: "+entryPath)
	}
	if containsDotDotSegment(entryPath) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "path traversal: "+entryPath)
	}
	if strings.HasPrefix(filepath.Clean(entryPath), "..") {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "path traversal: "+entryPath)
	}
	if err := detectProblematicCharacters(entryPath); err != nil {
		return err
	}
	if !v.allowHidden && isHiddenPath(entryPath) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "hidden path not allowed: "+entryPath)
	}
	return nil
}

// validateSymlinkTarget ensures a symlink whose link lives at linkPath
// (relative to destRoot) cannot point somewhere outside destRoot once
// resolved.
func (v *pathValidator) validateSymlinkTarget(linkPath, target string) error {
	if isAbsolutePath(target) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal, "symlink target is absolute: "+linkPath+" -> "+target)
	}
	if containsDotDotSegment(target) {
		// ".." is allowed in a symlink target as long as the resolved
		// location stays inside destRoot; the containment check below is
		// authoritative and this branch does nothing.
	}
	linkDir := filepath.Dir(filepath.Join(v.destRoot, linkPath))
	resolved := filepath.Clean(filepath.Join(linkDir, target))

	rootAbs, err := filepath.Abs(v.destRoot)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "resolve destination root", err)
	}
	targetAbs, err := filepath.Abs(resolved)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "resolve symlink target", err)
	}
	if targetAbs != rootAbs && !strings.HasPrefix(targetAbs, rootAbs+string(filepath.Separator)) {
		return phalanxerrors.New(phalanxerrors.CodePathTraversal,
			"symlink escapes destination: "+linkPath+" -> "+target)
	}
	return nil
}

func isAbsolutePath(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		drive := p[0]
		if (drive >= 'A' && drive <= 'Z') || (drive >= 'a' && drive <= 'z') {
			return true
		}
	}
	return strings.HasPrefix(p, `\\`)
}

var encodedTraversalVariants = []string{
	"..%2f", "..%5c",
	"%2e%2e%2f", "%2e%2e%5c",
	"%2e%2e/", "%2e%2e\\",
	"..%c0%af", "..%c1%9c",
}

func hasEncodedTraversal(p string) bool {
	lower := strings.ToLower(p)
	for _, variant := range encodedTraversalVariants {
		if strings.Contains(lower, variant) {
			return true
		}
	}
	return false
}

func containsDotDotSegment(p string) bool {
	for _, sep := range []string{"/", "\\"} {
		for _, part := range strings.Split(p, sep) {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

func detectProblematicCharacters(p string) error {
	for _, r := range p {
		if r == 0 {
			return phalanxerrors.New(phalanxerrors.CodePathTraversal, "NUL byte in path: "+p)
		}
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return phalanxerrors.New(phalanxerrors.CodePathTraversal, "control character in path: "+p)
		}
	}
	return nil
}

func isHiddenPath(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func isWhitespaceOnly(p string) bool {
	return strings.TrimSpace(p) == ""
}
