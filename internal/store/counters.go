package store

import "sync/atomic"

type counters struct {
	hits          atomic.Int64
	misses        atomic.Int64
	expiredOnRead atomic.Int64
	inserts       atomic.Int64
	evictedItems  atomic.Int64
	evictedBytes  atomic.Int64
	sweeps        atomic.Int64
	sweptItems    atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, expired, inserts, evictedItems, evictedBytes, sweeps, sweptItems int64) {
	return c.hits.Load(),
		c.misses.Load(),
		c.expiredOnRead.Load(),
		c.inserts.Load(),
		c.evictedItems.Load(),
		c.evictedBytes.Load(),
		c.sweeps.Load(),
		c.sweptItems.Load()
}
