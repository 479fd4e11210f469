package telemetry

import (
	"github.com/fintide/go-hybrid-cache/internal/httpcache"
	"github.com/fintide/go-hybrid-cache/internal/provider"
	"github.com/fintide/go-hybrid-cache/internal/store"
)

type sampler struct {
	store    store.Storer
	http     httpcache.Fetcher
	provider provider.Coordinator
}

func newSampler(s store.Storer, h httpcache.Fetcher, p provider.Coordinator) sampler {
	return sampler{store: s, http: h, provider: p}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	storeHits         uint64
	storeMisses       uint64
	storeExpired      uint64
	storeInserts      uint64
	storeEvictedItems uint64
	storeEvictedBytes uint64
	storeSweeps       uint64
	storeSweptItems   uint64

	httpHits         uint64
	httpMisses       uint64
	httpRevalidated  uint64
	httpDeduplicated uint64
	httpStale        uint64
	httpFailures     uint64

	providerHits        uint64
	providerMisses      uint64
	providerExpirations uint64
	providerSets        uint64
	providerSent        uint64
	providerApplied     uint64
	providerStale       uint64
	providerFlushes     uint64
}

func (s sampler) snapshot() snapshot {
	var out snapshot

	if s.store != nil {
		hits, misses, expired, inserts, evictedItems, evictedBytes, sweeps, sweptItems := s.store.StoreMetrics()
		out.storeHits = uint64(max(hits, 0))
		out.storeMisses = uint64(max(misses, 0))
		out.storeExpired = uint64(max(expired, 0))
		out.storeInserts = uint64(max(inserts, 0))
		out.storeEvictedItems = uint64(max(evictedItems, 0))
		out.storeEvictedBytes = uint64(max(evictedBytes, 0))
		out.storeSweeps = uint64(max(sweeps, 0))
		out.storeSweptItems = uint64(max(sweptItems, 0))
	}

	if s.http != nil {
		hits, misses, revalidated, deduplicated, stale, failures := s.http.HTTPMetrics()
		out.httpHits = uint64(max(hits, 0))
		out.httpMisses = uint64(max(misses, 0))
		out.httpRevalidated = uint64(max(revalidated, 0))
		out.httpDeduplicated = uint64(max(deduplicated, 0))
		out.httpStale = uint64(max(stale, 0))
		out.httpFailures = uint64(max(failures, 0))
	}

	if s.provider != nil {
		hits, misses, expirations, sets, sent, applied, stale, flushes := s.provider.ProviderMetrics()
		out.providerHits = uint64(max(hits, 0))
		out.providerMisses = uint64(max(misses, 0))
		out.providerExpirations = uint64(max(expirations, 0))
		out.providerSets = uint64(max(sets, 0))
		out.providerSent = uint64(max(sent, 0))
		out.providerApplied = uint64(max(applied, 0))
		out.providerStale = uint64(max(stale, 0))
		out.providerFlushes = uint64(max(flushes, 0))
	}

	return out
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		storeHits:         delta(prev.storeHits, cur.storeHits),
		storeMisses:       delta(prev.storeMisses, cur.storeMisses),
		storeExpired:      delta(prev.storeExpired, cur.storeExpired),
		storeInserts:      delta(prev.storeInserts, cur.storeInserts),
		storeEvictedItems: delta(prev.storeEvictedItems, cur.storeEvictedItems),
		storeEvictedBytes: delta(prev.storeEvictedBytes, cur.storeEvictedBytes),
		storeSweeps:       delta(prev.storeSweeps, cur.storeSweeps),
		storeSweptItems:   delta(prev.storeSweptItems, cur.storeSweptItems),

		httpHits:         delta(prev.httpHits, cur.httpHits),
		httpMisses:       delta(prev.httpMisses, cur.httpMisses),
		httpRevalidated:  delta(prev.httpRevalidated, cur.httpRevalidated),
		httpDeduplicated: delta(prev.httpDeduplicated, cur.httpDeduplicated),
		httpStale:        delta(prev.httpStale, cur.httpStale),
		httpFailures:     delta(prev.httpFailures, cur.httpFailures),

		providerHits:        delta(prev.providerHits, cur.providerHits),
		providerMisses:      delta(prev.providerMisses, cur.providerMisses),
		providerExpirations: delta(prev.providerExpirations, cur.providerExpirations),
		providerSets:        delta(prev.providerSets, cur.providerSets),
		providerSent:        delta(prev.providerSent, cur.providerSent),
		providerApplied:     delta(prev.providerApplied, cur.providerApplied),
		providerStale:       delta(prev.providerStale, cur.providerStale),
		providerFlushes:     delta(prev.providerFlushes, cur.providerFlushes),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
