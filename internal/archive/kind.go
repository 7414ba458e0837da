package archive

import "strings"

// Kind identifies an archive's container and compression format.
type Kind string

const (
	KindZip     Kind = "zip"
	KindTar     Kind = "tar"
	KindTarGz   Kind = "tar.gz"
	KindTarBz2  Kind = "tar.bz2"
	KindTarXz   Kind = "tar.xz"
	KindTarZstd Kind = "tar.zst"
)

// DetectKind infers an archive Kind from a filename or dist URL, matching
// the ecosystem's own convention of encoding the kind in the suffix.
func DetectKind(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZip, true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz, true
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return KindTarBz2, true
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return KindTarXz, true
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return KindTarZstd, true
	case strings.HasSuffix(lower, ".tar"):
		return KindTar, true
	default:
		return "", false
	}
}

// IsTarBased reports whether k is extracted through the tar reader (as
// opposed to zip's random-access central directory).
func (k Kind) IsTarBased() bool {
	switch k {
	case KindTar, KindTarGz, KindTarBz2, KindTarXz, KindTarZstd:
		return true
	default:
		return false
	}
}
