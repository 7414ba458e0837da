package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloomNeverFalseNegative(t *testing.T) {
	b := NewBloom(1000, 0.01)
	keys := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("vendor/pkg-%d@1.0.0", i)
		keys = append(keys, key)
		b.Add(key)
	}
	for _, key := range keys {
		assert.True(t, b.MightContain(key), "inserted key must never read as absent")
	}
}

func TestBloomRejectsObviousAbsentees(t *testing.T) {
	b := NewBloom(1000, 0.001)
	b.Add("vendor/present@1.0.0")
	assert.False(t, b.MightContain("vendor/definitely-not-here@9.9.9"))
}

func TestBloomAddIsIdempotent(t *testing.T) {
	b := NewBloom(100, 0.01)
	b.Add("vendor/pkg@1.0.0")
	before := append([]uint64(nil), b.bits...)
	b.Add("vendor/pkg@1.0.0")
	assert.Equal(t, before, b.bits)
}

func TestBloomUnionContainsBothSides(t *testing.T) {
	a := NewBloom(100, 0.01)
	a.Add("vendor/a@1.0.0")
	b := NewBloom(100, 0.01)
	b.Add("vendor/b@1.0.0")

	a.Union(b)
	assert.True(t, a.MightContain("vendor/a@1.0.0"))
	assert.True(t, a.MightContain("vendor/b@1.0.0"))
}

func TestBloomIntersectDropsKeysOnlyOnOneSide(t *testing.T) {
	shared := "vendor/shared@1.0.0"
	a := NewBloom(100, 0.01)
	a.Add(shared)
	a.Add("vendor/only-a@1.0.0")
	b := NewBloom(100, 0.01)
	b.Add(shared)

	a.Intersect(b)
	assert.True(t, a.MightContain(shared))
	assert.False(t, a.MightContain("vendor/only-a@1.0.0"))
}

func TestBloomCombinePanicsOnSizeMismatch(t *testing.T) {
	a := NewBloom(100, 0.01)
	b := NewBloom(100000, 0.01)
	assert.Panics(t, func() { a.Union(b) })
}
