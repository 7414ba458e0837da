package cache

import "time"

// Class identifies what kind of content a cache entry holds. Each class has
// its own default TTL, reflecting how quickly the underlying data goes
// stale: a downloaded package archive never changes once checksummed, but a
// registry's per-package metadata and per-repository index do.
type Class string

const (
	ClassPackage        Class = "package"
	ClassMetadata       Class = "metadata"
	ClassRepository     Class = "repository"
	ClassDependencyGraph Class = "dependency-graph"
	ClassAutoloader     Class = "autoloader"
	ClassVcsClone       Class = "vcs-clone"
)

// DefaultTTL returns the class's default time-to-live. Package/VcsClone
// entries are content-addressed and therefore immutable, so they get a very
// long TTL; Repository index documents churn fastest.
func (c Class) DefaultTTL() time.Duration {
	switch c {
	case ClassPackage, ClassVcsClone, ClassDependencyGraph, ClassAutoloader:
		return 30 * 24 * time.Hour
	case ClassMetadata:
		return 10 * time.Minute
	case ClassRepository:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// Entry is one cache record, independent of which tier currently holds it.
type Entry struct {
	Key        string
	Class      Class
	Data       []byte
	Compressed bool
	CreatedAt  time.Time
	AccessedAt time.Time
	TTL        time.Duration
	AccessCount int64
}

// IsExpired reports whether the entry has outlived its TTL. A zero TTL
// means "never expires".
func (e *Entry) IsExpired() bool {
	if e.TTL <= 0 {
		return false
	}
	return time.Now().After(e.CreatedAt.Add(e.TTL))
}

// Size returns the entry's footprint in bytes, used by size-based eviction.
func (e *Entry) Size() int64 { return int64(len(e.Data)) }

// EvictionStrategy selects which keys to evict and is notified of access
// patterns so it can maintain whatever bookkeeping its policy needs.
type EvictionStrategy interface {
	SelectForEviction(entries map[string]*Entry) []string
	OnAccess(entry *Entry)
	OnAdd(entry *Entry)
	OnRemove(entry *Entry)
}

// Config bounds the cache's resource usage.
type Config struct {
	MemoryMaxBytes int64
	DiskMaxBytes   int64
	RootPath       string
}

// SetDefaults fills zero-valued fields with sane defaults.
func (c *Config) SetDefaults() {
	if c.MemoryMaxBytes == 0 {
		c.MemoryMaxBytes = 256 << 20
	}
	if c.DiskMaxBytes == 0 {
		c.DiskMaxBytes = 10 << 30
	}
}
