package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/fintide/go-hybrid-cache/internal/compress"
	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/httpcache"
	"github.com/fintide/go-hybrid-cache/internal/market"
	"github.com/fintide/go-hybrid-cache/internal/platform"
	"github.com/fintide/go-hybrid-cache/internal/store"
)

func feedCfg() *config.FeedCfg {
	return &config.FeedCfg{
		NetworkTimeout: 3 * time.Second,
		Strategies: map[string]config.Strategy{
			"markets":  config.StrategyCacheFirst,
			"breaking": config.StrategyNetworkFirst,
			"live":     config.StrategyNetworkOnly,
		},
		DefaultStrategy: config.StrategyStaleWhileRevalidate,
	}
}

type feedEnv struct {
	feed  *Feed
	store store.Storer
	conn  *platform.MemoryConnectivity
	calls atomic.Int64
}

func newFeedEnv(t *testing.T, cfg *config.FeedCfg, fetch FetchFunc) *feedEnv {
	t.Helper()

	storeCfg := &config.Config{
		Store:       &config.StoreCfg{QuotaBytes: 10 * 1024 * 1024, Eviction: &config.EvictionCfg{}},
		TTL:         &config.TTLCfg{Breaking: 15 * time.Minute, AIEnhanced: 6 * time.Hour, Regular: time.Hour},
		Compression: &config.CompressionCfg{ThresholdBytes: 1024, MinGain: 0.2},
	}
	require.NoError(t, storeCfg.AdjustConfig())

	env := &feedEnv{conn: platform.NewMemoryConnectivity(true)}
	rt := platform.Runtime{Clock: clock.New(), Connectivity: env.conn}.Defaults()

	comp := compress.New(storeCfg.Compression)
	sessions := market.New(nil, rt.Clock)
	st := store.New(context.Background(), storeCfg, slog.Default(), rt, comp, sessions)
	t.Cleanup(func() { _ = st.Close() })
	env.store = st

	counted := func(ctx context.Context, q Query) ([]*store.Record, error) {
		env.calls.Add(1)
		return fetch(ctx, q)
	}
	env.feed = New(cfg, slog.Default(), st, rt, counted)
	return env
}

func fixedArticles(category string, n int) FetchFunc {
	return func(ctx context.Context, q Query) ([]*store.Record, error) {
		out := make([]*store.Record, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, &store.Record{
				ID:             fmt.Sprintf("%s-%d", category, i),
				Title:          fmt.Sprintf("Story %d", i),
				SourceCategory: category,
			})
		}
		return out, nil
	}
}

func seed(t *testing.T, env *feedEnv, category string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := env.store.CacheArticle(&store.Record{ID: id, Title: "Seeded " + id, SourceCategory: category})
		require.NoError(t, err)
	}
}

func TestLoadCacheFirstServesCachedWithoutNetwork(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("markets", 3))
	seed(t, env, "markets", "m1")

	snap, err := env.feed.Load(context.Background(), Query{Category: "markets"})
	require.NoError(t, err)
	require.True(t, snap.FromCache)
	require.Equal(t, SourceCache, snap.Source)
	require.Len(t, snap.Articles, 1)
	require.Zero(t, env.calls.Load())
}

func TestLoadCacheFirstFallsThroughOnMiss(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("markets", 3))

	snap, err := env.feed.Load(context.Background(), Query{Category: "markets"})
	require.NoError(t, err)
	require.False(t, snap.FromCache)
	require.Equal(t, SourceNetwork, snap.Source)
	require.Len(t, snap.Articles, 3)
	require.Equal(t, int64(1), env.calls.Load())

	// write-through: the fetched slice is now cached
	require.Equal(t, 3, env.store.Len())
}

func TestLoadNetworkFirstFallsBackToStale(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), func(ctx context.Context, q Query) ([]*store.Record, error) {
		return nil, errors.New("upstream down")
	})
	seed(t, env, "breaking", "b1")

	snap, err := env.feed.Load(context.Background(), Query{Category: "breaking"})
	require.NoError(t, err)
	require.Equal(t, SourceStale, snap.Source, "degraded data must be labeled stale")
	require.True(t, snap.FromCache)
	require.Len(t, snap.Articles, 1)
}

func TestLoadNetworkFirstSurfacesErrorWithoutCache(t *testing.T) {
	wantErr := errors.New("upstream down")
	env := newFeedEnv(t, feedCfg(), func(ctx context.Context, q Query) ([]*store.Record, error) {
		return nil, wantErr
	})

	_, err := env.feed.Load(context.Background(), Query{Category: "breaking"})
	require.ErrorIs(t, err, wantErr)
}

func TestLoadNetworkOnlySkipsWriteThrough(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("live", 2))

	snap, err := env.feed.Load(context.Background(), Query{Category: "live"})
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, snap.Source)
	require.Len(t, snap.Articles, 2)
	require.Zero(t, env.store.Len(), "live data must never be cached")
}

func TestLoadStaleWhileRevalidate(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("general", 2))
	seed(t, env, "general", "g1")

	snap, err := env.feed.Load(context.Background(), Query{Category: "general"})
	require.NoError(t, err)
	require.True(t, snap.FromCache, "cached slice is served immediately")

	require.Eventually(t, func() bool {
		return env.calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "background revalidation must fire exactly once")
}

func TestLoadOfflineServesCache(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("live", 2))
	seed(t, env, "live", "l1")
	env.conn.SetOnline(false)

	// Offline overrides even network-only: cached data with the offline
	// flag beats no data.
	snap, err := env.feed.Load(context.Background(), Query{Category: "live"})
	require.NoError(t, err)
	require.True(t, snap.Offline)
	require.True(t, snap.FromCache)
	require.Zero(t, env.calls.Load())
}

func TestLoadOfflineWithoutCacheFailsLoudly(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("markets", 2))
	env.conn.SetOnline(false)

	_, err := env.feed.Load(context.Background(), Query{Category: "markets"})
	require.ErrorIs(t, err, ErrNoOfflineData)
	require.Zero(t, env.calls.Load())
}

func TestLoadRetriesTransientFailures(t *testing.T) {
	cfg := feedCfg()
	cfg.Retry = &config.RetryCfg{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

	var attempts atomic.Int64
	env := newFeedEnv(t, cfg, func(ctx context.Context, q Query) ([]*store.Record, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return fixedArticles("breaking", 1)(ctx, q)
	})

	snap, err := env.feed.Load(context.Background(), Query{Category: "breaking"})
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, snap.Source)
	require.Equal(t, int64(3), attempts.Load())
}

func TestLoadNeverRetriesClientFaults(t *testing.T) {
	cfg := feedCfg()
	cfg.Retry = &config.RetryCfg{MaxAttempts: 5, BaseDelay: time.Millisecond}

	env := newFeedEnv(t, cfg, func(ctx context.Context, q Query) ([]*store.Record, error) {
		return nil, &httpcache.StatusError{URL: "https://api.example.com/news", Code: 404}
	})

	_, err := env.feed.Load(context.Background(), Query{Category: "breaking"})
	require.Error(t, err)
	require.Equal(t, int64(1), env.calls.Load(), "4xx failures are permanent, retrying them is abuse")
}

func TestLoadAbortsSupersededRequest(t *testing.T) {
	firstStarted := make(chan struct{})
	firstAborted := make(chan struct{})
	var call atomic.Int64

	env := newFeedEnv(t, feedCfg(), func(ctx context.Context, q Query) ([]*store.Record, error) {
		if call.Add(1) == 1 {
			close(firstStarted)
			<-ctx.Done()
			close(firstAborted)
			return nil, ctx.Err()
		}
		return fixedArticles("breaking", 1)(ctx, q)
	})

	go func() {
		_, _ = env.feed.Load(context.Background(), Query{Category: "breaking"})
	}()
	<-firstStarted

	snap, err := env.feed.Load(context.Background(), Query{Category: "breaking"})
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, snap.Source)

	select {
	case <-firstAborted:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request was never aborted")
	}
}

func TestRefreshForcesNetwork(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("markets", 2))
	seed(t, env, "markets", "m1")

	snap, err := env.feed.Refresh(context.Background(), Query{Category: "markets"})
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, snap.Source)
	require.Equal(t, int64(1), env.calls.Load())
}

func TestPrefetchMoreWarmsNextPage(t *testing.T) {
	var gotOffset atomic.Int64
	env := newFeedEnv(t, feedCfg(), func(ctx context.Context, q Query) ([]*store.Record, error) {
		gotOffset.Store(int64(q.Offset))
		return fixedArticles("markets", 1)(ctx, q)
	})

	env.feed.PrefetchMore(context.Background(), Query{Category: "markets", Limit: 20, Offset: 20})

	require.Eventually(t, func() bool {
		return gotOffset.Load() == 40
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFeedPassThroughOperations(t *testing.T) {
	env := newFeedEnv(t, feedCfg(), fixedArticles("markets", 1))
	seed(t, env, "markets", "m1")

	require.True(t, env.feed.MarkAsRead("m1"))
	require.True(t, env.feed.BookmarkArticle("m1"))

	got, err := env.feed.SearchArticles("seeded", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	stats := env.feed.CacheStats()
	require.Equal(t, 1, stats.Records)
	require.Positive(t, stats.Usage)
}

func TestRetryableClassification(t *testing.T) {
	online := platform.NewMemoryConnectivity(true)
	offline := platform.NewMemoryConnectivity(false)

	require.False(t, retryable(nil, online))
	require.False(t, retryable(context.Canceled, online))
	require.False(t, retryable(context.DeadlineExceeded, online))
	require.False(t, retryable(&httpcache.StatusError{Code: 404}, online))
	require.False(t, retryable(errors.New("transient"), offline))

	require.True(t, retryable(errors.New("transient"), online))
	require.True(t, retryable(&httpcache.StatusError{Code: 503}, online), "5xx is worth retrying")
}

func TestBackoffDelayIsCappedExponential(t *testing.T) {
	cfg := &config.RetryCfg{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	for attempt := 0; attempt < 6; attempt++ {
		d := backoffDelay(cfg, attempt)
		require.GreaterOrEqual(t, d, 50*time.Millisecond, "jitter floor is half the nominal delay")
		require.LessOrEqual(t, d, 500*time.Millisecond)
	}
}
