package cache

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/zeebo/blake3"
)

// Bloom is a probabilistic "definitely not present" oracle over the
// content store's keyspace: a negative answer is certain, a positive
// answer must still be confirmed against the store. No bloom filter
// library appears in any go.mod across the retrieval pack, so this is
// built directly rather than adapted from a teacher file — double hashing
// from a single BLAKE3 sum (Kirsch-Mitzenmacher: h_i = h1 + i*h2) avoids
// needing k independent hash functions.
type Bloom struct {
	mu   sync.RWMutex
	bits []uint64
	m    uint64 // number of bits
	k    uint64 // number of hash functions
}

// NewBloom sizes a filter for expectedItems entries at falsePositiveRate.
func NewBloom(expectedItems uint64, falsePositiveRate float64) *Bloom {
	if expectedItems == 0 {
		expectedItems = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	m := optimalBits(expectedItems, falsePositiveRate)
	k := optimalHashCount(m, expectedItems)
	words := (m + 63) / 64
	return &Bloom{
		bits: make([]uint64, words),
		m:    words * 64,
		k:    k,
	}
}

func optimalBits(n uint64, p float64) uint64 {
	m := math.Ceil(-1 * float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 64 {
		m = 64
	}
	return uint64(m)
}

func optimalHashCount(m, n uint64) uint64 {
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint64(k)
}

func (b *Bloom) hashes(key string) (uint64, uint64) {
	sum := blake3.Sum256([]byte(key))
	h1 := binary.LittleEndian.Uint64(sum[0:8])
	h2 := binary.LittleEndian.Uint64(sum[8:16])
	if h2 == 0 {
		h2 = 1 // a zero step would collapse every probe onto the same bit
	}
	return h1, h2
}

// Add inserts key. Idempotent: inserting the same key twice sets no
// additional bits beyond the first call.
func (b *Bloom) Add(key string) {
	h1, h2 := b.hashes(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := uint64(0); i < b.k; i++ {
		bit := (h1 + i*h2) % b.m
		b.bits[bit/64] |= 1 << (bit % 64)
	}
}

// MightContain reports whether key could be present. false means key is
// definitely absent; true means it may or may not be present and must be
// confirmed against the store.
func (b *Bloom) MightContain(key string) bool {
	h1, h2 := b.hashes(key)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := uint64(0); i < b.k; i++ {
		bit := (h1 + i*h2) % b.m
		if b.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// Union replaces b's bits with the bitwise OR of b and other, so that
// MightContain(key) after the call is true for every key either filter
// held before it (plus whatever false positives either already carried).
// Union panics if the two filters aren't equally sized (same m and k),
// since an OR of differently-sized bit vectors has no sound meaning.
func (b *Bloom) Union(other *Bloom) {
	b.combine(other, func(a, o uint64) uint64 { return a | o })
}

// Intersect replaces b's bits with the bitwise AND of b and other, so
// that MightContain(key) after the call is true only for keys both
// filters might have contained. Like Union, it requires equally-sized
// filters.
func (b *Bloom) Intersect(other *Bloom) {
	b.combine(other, func(a, o uint64) uint64 { return a & o })
}

func (b *Bloom) combine(other *Bloom, op func(a, o uint64) uint64) {
	other.mu.RLock()
	otherBits := slices.Clone(other.bits)
	otherM, otherK := other.m, other.k
	other.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m != otherM || b.k != otherK {
		panic("cache: Bloom.combine requires equally-sized filters")
	}
	for i := range b.bits {
		b.bits[i] = op(b.bits[i], otherBits[i])
	}
}
