package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memTier is the L1 in-memory tier: an LRU cache bounded by total byte size
// rather than entry count, since Entry sizes vary from a few bytes of
// metadata JSON to tens of megabytes of package archive.
type memTier struct {
	mu        sync.Mutex
	lru       *lru.Cache[string, *Entry]
	maxBytes  int64
	curBytes  int64
}

func newMemTier(maxBytes int64) *memTier {
	t := &memTier{maxBytes: maxBytes}
	// Capacity is nominal; actual eviction is driven by curBytes in onEvict,
	// so a generous entry-count ceiling just bounds map overhead.
	l, _ := lru.NewWithEvict[string, *Entry](1<<20, t.onEvict)
	t.lru = l
	return t
}

func (t *memTier) onEvict(key string, entry *Entry) {
	t.curBytes -= entry.Size()
}

func (t *memTier) get(key string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.lru.Get(key)
	if !ok || entry.IsExpired() {
		if ok {
			t.lru.Remove(key)
		}
		return nil, false
	}
	entry.AccessCount++
	return entry, true
}

func (t *memTier) put(entry *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.lru.Peek(entry.Key); ok {
		t.curBytes -= old.Size()
	}
	t.lru.Add(entry.Key, entry)
	t.curBytes += entry.Size()
	for t.curBytes > t.maxBytes {
		if !t.lru.RemoveOldest() {
			break
		}
	}
}

func (t *memTier) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lru.Remove(key)
}
