package registry

// DedupCache is a bounded set of already-processed message identifiers.
// When the capacity is exceeded the oldest entries are dropped in one batch,
// so memory per account stays constant regardless of uptime.
type DedupCache struct {
	capacity int
	batch    int
	ids      map[uint32]struct{}
	order    []uint32 // insertion order, oldest first
}

// NewDedupCache creates a cache that evicts batch entries once len exceeds capacity.
func NewDedupCache(capacity, batch int) *DedupCache {
	if capacity <= 0 {
		capacity = 100
	}
	if batch <= 0 || batch > capacity {
		batch = capacity / 2
	}
	return &DedupCache{
		capacity: capacity,
		batch:    batch,
		ids:      make(map[uint32]struct{}, capacity),
	}
}

// Seen reports whether id was already added.
func (c *DedupCache) Seen(id uint32) bool {
	_, ok := c.ids[id]
	return ok
}

// Add records id, evicting the oldest batch when the capacity is exceeded.
func (c *DedupCache) Add(id uint32) {
	if c.Seen(id) {
		return
	}
	c.ids[id] = struct{}{}
	c.order = append(c.order, id)

	if len(c.ids) > c.capacity {
		for _, old := range c.order[:c.batch] {
			delete(c.ids, old)
		}
		c.order = append(c.order[:0:0], c.order[c.batch:]...)
	}
}

// Len returns the number of tracked identifiers.
func (c *DedupCache) Len() int {
	return len(c.ids)
}
