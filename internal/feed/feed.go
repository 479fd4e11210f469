// Package feed is the orchestration layer: per-category strategy
// selection over the record store and the network, with offline handling
// and abortable network-first timeouts. It owns policy only; all state
// lives in the stores it wires together.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/platform"
	"github.com/fintide/go-hybrid-cache/internal/store"
)

// ErrNoOfflineData reports an offline read of a category that was never
// cached: the one case where the cache fails loudly instead of degrading.
var ErrNoOfflineData = errors.New("no cached data available offline")

const defaultNetworkTimeout = 3 * time.Second

// FetchFunc is the network collaborator: it resolves a query to fresh
// records, typically through the conditional HTTP cache.
type FetchFunc func(ctx context.Context, q Query) ([]*store.Record, error)

// Query selects a slice of the feed.
type Query struct {
	Category string
	Ticker   string
	UserID   string
	Limit    int
	Offset   int
}

func (q Query) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", q.Category, q.Ticker, q.UserID, q.Offset)
}

func (q Query) filter() store.Filter {
	return store.Filter{Category: q.Category, Ticker: q.Ticker, UserID: q.UserID}
}

// Source labels which path produced a snapshot.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
	SourceStale   Source = "stale"
)

// Snapshot is what consumers render. FromCache and CacheAge make
// degraded data distinguishable from fresh data; stale content is always
// labeled, never silently served as current.
type Snapshot struct {
	Articles  []*store.Record
	FromCache bool
	CacheAge  time.Duration
	Offline   bool
	Source    Source
}

// Stats is the cache health summary exposed to consumers.
type Stats struct {
	Records int
	Usage   int64
	Hits    int64
	Misses  int64
}

type Loader interface {
	Load(ctx context.Context, q Query) (*Snapshot, error)
	Refresh(ctx context.Context, q Query) (*Snapshot, error)
	PrefetchMore(ctx context.Context, q Query)
	MarkAsRead(id string) bool
	BookmarkArticle(id string) bool
	SearchArticles(query string, limit int) ([]*store.Record, error)
	CacheStats() Stats
}

type Feed struct {
	cfg    *config.FeedCfg
	logger *slog.Logger
	store  store.Storer
	clock  platform.Clock
	conn   platform.Connectivity
	fetch  FetchFunc
	group  singleflight.Group

	mu       sync.Mutex
	inflight map[string]*inflightToken
}

type inflightToken struct {
	cancel context.CancelFunc
}

func New(
	cfg *config.FeedCfg,
	logger *slog.Logger,
	st store.Storer,
	rt platform.Runtime,
	fetch FetchFunc,
) *Feed {
	return &Feed{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		clock:    rt.Clock,
		conn:     rt.Connectivity,
		fetch:    fetch,
		inflight: make(map[string]*inflightToken),
	}
}

// Load serves a query under the strategy configured for its category.
// Offline mode forces store-only reads regardless of strategy.
func (f *Feed) Load(ctx context.Context, q Query) (*Snapshot, error) {
	if f.conn != nil && !f.conn.Online() {
		snap, err := f.fromStore(q, true)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, ErrNoOfflineData
		}
		return snap, nil
	}

	switch f.cfg.CategoryStrategy(q.Category) {
	case config.StrategyCacheFirst:
		return f.cacheFirst(ctx, q)
	case config.StrategyNetworkFirst:
		return f.networkFirst(ctx, q)
	case config.StrategyNetworkOnly:
		return f.networkOnly(ctx, q)
	default:
		return f.staleWhileRevalidate(ctx, q)
	}
}

// Refresh bypasses strategy selection and forces a network reload.
func (f *Feed) Refresh(ctx context.Context, q Query) (*Snapshot, error) {
	records, err := f.loadNetwork(ctx, q, true)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Articles: records, Source: SourceNetwork}, nil
}

// PrefetchMore warms the next page in the background. Errors are logged,
// not surfaced: prefetch is opportunistic.
func (f *Feed) PrefetchMore(ctx context.Context, q Query) {
	next := q
	next.Offset += q.Limit
	go func() {
		if _, err := f.loadNetwork(ctx, next, true); err != nil {
			f.logger.Debug("prefetch failed", "category", q.Category, "offset", next.Offset, "err", err)
		}
	}()
}

func (f *Feed) MarkAsRead(id string) bool {
	return f.store.MarkRead(id)
}

func (f *Feed) BookmarkArticle(id string) bool {
	return f.store.Bookmark(id)
}

func (f *Feed) SearchArticles(query string, limit int) ([]*store.Record, error) {
	return f.store.Search(query, limit)
}

func (f *Feed) CacheStats() Stats {
	hits, misses, _, _, _, _, _, _ := f.store.StoreMetrics()
	return Stats{
		Records: f.store.Len(),
		Usage:   f.store.Usage(),
		Hits:    hits,
		Misses:  misses,
	}
}

/**
 * Strategies.
 */

func (f *Feed) cacheFirst(ctx context.Context, q Query) (*Snapshot, error) {
	if snap, err := f.fromStore(q, false); err != nil {
		return nil, err
	} else if snap != nil {
		return snap, nil
	}

	records, err := f.loadNetwork(ctx, q, true)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Articles: records, Source: SourceNetwork}, nil
}

func (f *Feed) networkFirst(ctx context.Context, q Query) (*Snapshot, error) {
	records, err := f.loadNetwork(ctx, q, true)
	if err == nil {
		return &Snapshot{Articles: records, Source: SourceNetwork}, nil
	}

	snap, storeErr := f.fromStore(q, false)
	if storeErr != nil {
		return nil, storeErr
	}
	if snap != nil {
		snap.Source = SourceStale
		f.logger.Warn("network-first fell back to cache", "category", q.Category, "err", err)
		return snap, nil
	}
	return nil, err
}

func (f *Feed) staleWhileRevalidate(ctx context.Context, q Query) (*Snapshot, error) {
	snap, err := f.fromStore(q, false)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		records, err := f.loadNetwork(ctx, q, true)
		if err != nil {
			return nil, err
		}
		return &Snapshot{Articles: records, Source: SourceNetwork}, nil
	}

	// Serve the cached slice immediately; refresh in the background with
	// concurrent revalidations of the same query collapsed into one.
	go func() {
		_, _, _ = f.group.Do(q.key(), func() (any, error) {
			revalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.networkTimeout())
			defer cancel()
			if _, err := f.loadNetwork(revalCtx, q, true); err != nil {
				f.logger.Debug("background revalidation failed", "category", q.Category, "err", err)
			}
			return nil, nil
		})
	}()

	return snap, nil
}

func (f *Feed) networkOnly(ctx context.Context, q Query) (*Snapshot, error) {
	// Live data: caching it would serve stale prices as current.
	records, err := f.loadNetwork(ctx, q, false)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Articles: records, Source: SourceNetwork}, nil
}

/**
 * Private API.
 */

// fromStore reads the cached slice for q. A nil snapshot with nil error
// means nothing usable is cached.
func (f *Feed) fromStore(q Query, offline bool) (*Snapshot, error) {
	records, err := f.store.Articles(q.filter(), q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	age := f.clock.Now().Sub(records[0].CachedAt)
	return &Snapshot{
		Articles:  records,
		FromCache: true,
		CacheAge:  age,
		Offline:   offline,
		Source:    SourceCache,
	}, nil
}

// loadNetwork fetches fresh records with timeout, retry and abort of the
// previous in-flight request for the same logical query, then optionally
// writes them through to the record store.
func (f *Feed) loadNetwork(ctx context.Context, q Query, cacheResults bool) ([]*store.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, f.networkTimeout())

	key := q.key()
	tok := &inflightToken{cancel: cancel}
	f.mu.Lock()
	if prev, ok := f.inflight[key]; ok {
		// Rapid re-querying (pagination scrubbing) aborts the superseded
		// request instead of leaking it.
		prev.cancel()
	}
	f.inflight[key] = tok
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.inflight[key] == tok {
			delete(f.inflight, key)
		}
		f.mu.Unlock()
		cancel()
	}()

	var records []*store.Record
	err := f.withRetry(ctx, func(ctx context.Context) error {
		var err error
		records, err = f.fetch(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cacheResults {
		for _, rec := range records {
			if _, err := f.store.CacheArticle(rec); err != nil {
				f.logger.Warn("write-through failed", "id", rec.ID, "err", err)
			}
		}
	}
	return records, nil
}

func (f *Feed) networkTimeout() time.Duration {
	if f.cfg.Enabled() && f.cfg.NetworkTimeout > 0 {
		return f.cfg.NetworkTimeout
	}
	return defaultNetworkTimeout
}
