package httpcache

import "sync/atomic"

type counters struct {
	hits           atomic.Int64
	misses         atomic.Int64
	revalidated    atomic.Int64
	deduplicated   atomic.Int64
	staleFallbacks atomic.Int64
	failures       atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, revalidated, deduplicated, staleFallbacks, failures int64) {
	return c.hits.Load(),
		c.misses.Load(),
		c.revalidated.Load(),
		c.deduplicated.Load(),
		c.staleFallbacks.Load(),
		c.failures.Load()
}
