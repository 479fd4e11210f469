// Package store implements the structured record store: a quota-bounded,
// searchable cache of article-shaped records with market-aware TTLs,
// score-based eviction and snapshot persistence through the platform
// store. Expiry is enforced lazily on every read; the background sweep is
// housekeeping on top of that, never the only line of defense.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/fintide/go-hybrid-cache/internal/compress"
	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/market"
	"github.com/fintide/go-hybrid-cache/internal/platform"
)

type Storer interface {
	CacheArticle(rec *Record) (string, error)
	Article(idOrURL string) (*Record, bool, error)
	Articles(f Filter, limit, offset int) ([]*Record, error)
	Search(query string, limit int) ([]*Record, error)
	MarkRead(id string) bool
	Bookmark(id string) bool
	ClearExpired() int
	EnforceStorageLimit() int
	Clear()
	Len() int
	Usage() int64
	StoreMetrics() (hits, misses, expired, inserts, evictedItems, evictedBytes, sweeps, sweptItems int64)
	Close() error
}

// Store respects given ctx.
type Store struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Config
	logger   *slog.Logger
	clock    platform.Clock
	persist  platform.Store
	quota    platform.QuotaEstimator
	comp     *compress.Compressor
	sessions *market.Sessions
	counters *counters

	mu      sync.RWMutex
	records map[string]*Record
	byURL   map[string]string
	order   []string // insertion order, newest last
	meta    map[string]MetadataEntry
	usage   int64
}

func New(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	rt platform.Runtime,
	comp *compress.Compressor,
	sessions *market.Sessions,
) *Store {
	ctx, cancel := context.WithCancel(ctx)
	s := &Store{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		clock:    rt.Clock,
		persist:  rt.Store,
		quota:    rt.Quota,
		comp:     comp,
		sessions: sessions,
		counters: newCounters(),
		records:  make(map[string]*Record),
		byURL:    make(map[string]string),
		meta:     make(map[string]MetadataEntry),
	}
	s.restoreSnapshot()
	s.runSweeper()
	return s
}

// CacheArticle enforces the storage limit, stamps cache metadata,
// compresses oversized content and persists the record. Eviction of
// unrelated records is a possible side effect when the store is near its
// quota.
func (s *Store) CacheArticle(in *Record) (string, error) {
	now := s.clock.Now()
	rec := prepareForInsert(in, now, determineTTL(in, s.cfg.TTL, s.sessions))

	if int64(len(rec.Content)) > 0 && rec.Size > int64(s.cfg.Compression.Threshold()) {
		if packed, ok := s.comp.Smart(rec.Content); ok {
			rec.Content = packed
			rec.Compressed = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforceStorageLimitLocked()

	if old, ok := s.records[rec.ID]; ok {
		s.deleteLocked(old)
	}

	s.records[rec.ID] = rec
	if rec.URL != "" {
		s.byURL[rec.URL] = rec.ID
	}
	s.order = append(s.order, rec.ID)
	s.usage += rec.Size

	t := recordType(rec)
	s.meta[rec.ID] = MetadataEntry{
		Key:        rec.ID,
		Type:       t,
		Size:       rec.Size,
		AccessedAt: rec.AccessedAt,
		ExpiresAt:  rec.CachedAt.Add(rec.TTL),
		Priority:   typePriority(t),
	}

	s.counters.inserts.Add(1)
	return rec.ID, nil
}

// Article looks a record up by id, falling back to URL lookup when the
// argument looks like one. An expired record is removed and reported as a
// miss, never returned stale. On a hit, access bookkeeping is bumped and
// content is transparently decompressed into the returned copy.
func (s *Store) Article(idOrURL string) (*Record, bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	rec, ok := s.lookupLocked(idOrURL)
	if !ok {
		s.mu.Unlock()
		s.counters.misses.Add(1)
		return nil, false, nil
	}
	if rec.Expired(now) {
		s.deleteLocked(rec)
		s.mu.Unlock()
		s.counters.expiredOnRead.Add(1)
		s.counters.misses.Add(1)
		return nil, false, nil
	}

	rec.AccessedAt = now
	rec.AccessCount++
	if m, ok := s.meta[rec.ID]; ok {
		m.AccessedAt = now
		s.meta[rec.ID] = m
	}
	// Copy while still holding the lock; concurrent writers mutate the
	// record in place.
	cp := rec.clone()
	s.mu.Unlock()

	plain, err := s.comp.SmartOpen(cp.Content, cp.Compressed)
	if err != nil {
		return nil, false, err
	}

	s.counters.hits.Add(1)
	return hydrateOnRead(cp, plain), true, nil
}

// Articles lists unexpired records newest-first. Exactly one filter
// criterion applies (first non-empty field wins); records past their TTL
// are filtered out even when no sweep has collected them yet.
func (s *Store) Articles(f Filter, limit, offset int) ([]*Record, error) {
	now := s.clock.Now()

	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.RUnlock()

	var (
		out     []*Record
		skipped int
	)
	for i := len(ids) - 1; i >= 0; i-- {
		s.mu.RLock()
		var cp *Record
		if rec, ok := s.records[ids[i]]; ok && !rec.Expired(now) && f.matches(rec) {
			cp = rec.clone()
		}
		s.mu.RUnlock()
		if cp == nil {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}

		plain, err := s.comp.SmartOpen(cp.Content, cp.Compressed)
		if err != nil {
			return nil, err
		}
		out = append(out, hydrateOnRead(cp, plain))

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Search tokenizes the query on whitespace and requires every token to be
// a substring of the record's precomputed search text.
func (s *Store) Search(query string, limit int) ([]*Record, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}
	now := s.clock.Now()

	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.RUnlock()

	var out []*Record
scan:
	for i := len(ids) - 1; i >= 0; i-- {
		s.mu.RLock()
		var cp *Record
		if rec, ok := s.records[ids[i]]; ok && !rec.Expired(now) {
			cp = rec.clone()
		}
		s.mu.RUnlock()
		if cp == nil {
			continue
		}
		for _, tok := range tokens {
			if !strings.Contains(cp.SearchText, tok) {
				continue scan
			}
		}

		plain, err := s.comp.SmartOpen(cp.Content, cp.Compressed)
		if err != nil {
			return nil, err
		}
		out = append(out, hydrateOnRead(cp, plain))

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkRead toggles the read flag on.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.Read = true
	return true
}

// Bookmark toggles the bookmarked flag.
func (s *Store) Bookmark(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.Bookmarked = !rec.Bookmarked
	return true
}

// ClearExpired sweeps all records and removes those past TTL.
func (s *Store) ClearExpired() int {
	now := s.clock.Now()

	s.mu.Lock()
	var victims []*Record
	for _, rec := range s.records {
		if rec.Expired(now) {
			victims = append(victims, rec)
		}
	}
	for _, rec := range victims {
		s.deleteLocked(rec)
	}
	s.mu.Unlock()

	if len(victims) > 0 {
		s.counters.sweptItems.Add(int64(len(victims)))
	}
	return len(victims)
}

// EnforceStorageLimit runs the eviction policy when usage exceeds the
// high-water mark, returning the number of records evicted.
func (s *Store) EnforceStorageLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enforceStorageLimitLocked()
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.records = make(map[string]*Record)
	s.byURL = make(map[string]string)
	s.meta = make(map[string]MetadataEntry)
	s.order = nil
	s.usage = 0
	s.mu.Unlock()

	if s.persist != nil {
		_ = s.persist.Delete(snapshotKey)
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Usage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

func (s *Store) StoreMetrics() (hits, misses, expired, inserts, evictedItems, evictedBytes, sweeps, sweptItems int64) {
	return s.counters.snapshot()
}

func (s *Store) Close() error {
	s.saveSnapshot()
	s.cancel()
	return nil
}

/**
 * Private API.
 */

func (s *Store) lookupLocked(idOrURL string) (*Record, bool) {
	if rec, ok := s.records[idOrURL]; ok {
		return rec, true
	}
	if looksLikeURL(idOrURL) {
		if id, ok := s.byURL[idOrURL]; ok {
			rec, ok := s.records[id]
			return rec, ok
		}
	}
	return nil, false
}

func (s *Store) deleteLocked(rec *Record) {
	if _, ok := s.records[rec.ID]; !ok {
		return
	}
	delete(s.records, rec.ID)
	delete(s.meta, rec.ID)
	if rec.URL != "" && s.byURL[rec.URL] == rec.ID {
		delete(s.byURL, rec.URL)
	}
	for i, id := range s.order {
		if id == rec.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.usage -= rec.Size
}

func looksLikeURL(v string) bool {
	return strings.Contains(v, "://") || strings.HasPrefix(v, "/")
}
