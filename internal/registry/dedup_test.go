package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupCacheSeen(t *testing.T) {
	c := NewDedupCache(10, 5)

	assert.False(t, c.Seen(42))
	c.Add(42)
	assert.True(t, c.Seen(42))
	assert.Equal(t, 1, c.Len())

	// Re-adding is a no-op.
	c.Add(42)
	assert.Equal(t, 1, c.Len())
}

func TestDedupCacheBatchEviction(t *testing.T) {
	c := NewDedupCache(10, 5)

	for id := uint32(1); id <= 10; id++ {
		c.Add(id)
	}
	assert.Equal(t, 10, c.Len())

	// The 11th entry triggers one batch eviction of the 5 oldest.
	c.Add(11)
	assert.Equal(t, 6, c.Len())

	for id := uint32(1); id <= 5; id++ {
		assert.False(t, c.Seen(id), "id %d should have been evicted", id)
	}
	for id := uint32(6); id <= 11; id++ {
		assert.True(t, c.Seen(id), "id %d should survive eviction", id)
	}
}

func TestDedupCacheNeverExceedsCapacity(t *testing.T) {
	c := NewDedupCache(10, 5)

	for id := uint32(1); id <= 1000; id++ {
		c.Add(id)
		assert.LessOrEqual(t, c.Len(), 10)
	}
}

func TestDedupCacheDefaults(t *testing.T) {
	c := NewDedupCache(0, 0)
	assert.Equal(t, 100, c.capacity)
	assert.Equal(t, 50, c.batch)
}
