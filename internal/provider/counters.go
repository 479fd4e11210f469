package provider

import "sync/atomic"

type counters struct {
	hits              atomic.Int64
	misses            atomic.Int64
	expirations       atomic.Int64
	sets              atomic.Int64
	broadcastsSent    atomic.Int64
	broadcastsApplied atomic.Int64
	broadcastsStale   atomic.Int64
	flushes           atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, expirations, sets, sent, applied, stale, flushes int64) {
	return c.hits.Load(),
		c.misses.Load(),
		c.expirations.Load(),
		c.sets.Load(),
		c.broadcastsSent.Load(),
		c.broadcastsApplied.Load(),
		c.broadcastsStale.Load(),
		c.flushes.Load()
}
