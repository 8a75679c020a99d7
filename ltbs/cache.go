package ltbs

import "sync"

// cache bundles the LRU list (C4) and the per-instance memory counter (C5)
// behind one accounting mutex (spec §4.3/§5, lock #3): both are brief
// list/counter manipulations, so there's no benefit to splitting them, and
// splitting them would let the list and the counter it's meant to justify
// drift out of lockstep.
type cache struct {
	mu    sync.Mutex
	lru   *tileLRU
	used  int64
	limit int64

	resident *residentBitmap // optional introspection, see bitmap.go
	metrics  *StoreMetrics   // optional, see metrics.go
}

func newCache(limit int64) *cache {
	return &cache{
		lru:      newTileLRU(),
		limit:    limit,
		resident: newResidentBitmap(),
	}
}

// touch marks (bx,by) as just-used, moving it to the front of the LRU.
func (c *cache) touch(key tileKey, idx uint32) {
	c.mu.Lock()
	c.lru.touch(key)
	n := c.lru.len()
	c.mu.Unlock()
	c.resident.add(idx)
	if c.metrics != nil {
		c.metrics.observeResidentTiles(n)
	}
}

// forget removes (bx,by) from the LRU without touching byte counters —
// callers discharge separately so the two operations can be interleaved
// with releasing the accounting mutex (spec §4.4 step 1.d).
func (c *cache) forget(key tileKey, idx uint32) {
	c.mu.Lock()
	c.lru.remove(key)
	n := c.lru.len()
	c.mu.Unlock()
	c.resident.remove(idx)
	if c.metrics != nil {
		c.metrics.observeResidentTiles(n)
	}
}

func (c *cache) charge(n int64) {
	c.mu.Lock()
	c.used += n
	c.mu.Unlock()
	globalCharge(n)
	if c.metrics != nil {
		c.metrics.observeResidentBytes(c.usedBytes())
	}
}

func (c *cache) discharge(n int64) {
	c.mu.Lock()
	c.used -= n
	c.mu.Unlock()
	globalDischarge(n)
	if c.metrics != nil {
		c.metrics.observeResidentBytes(c.usedBytes())
	}
}

func (c *cache) usedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

func (c *cache) overBudget() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used > c.limit
}

// wouldExceedBudget reports whether charging incoming more bytes would put
// the instance over budget. load_tile uses this (rather than overBudget)
// to decide whether to run the eviction walk before allocating the tile
// about to become resident, so a tight budget (sized to hold exactly one
// tile) evicts in the same call that would otherwise overrun it instead of
// the next one.
func (c *cache) wouldExceedBudget(incoming int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used+incoming > c.limit
}

// lruLen returns the number of resident tiles tracked by the LRU.
func (c *cache) lruLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.len()
}
