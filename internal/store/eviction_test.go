package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/fintide/go-hybrid-cache/internal/compress"
	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/market"
	"github.com/fintide/go-hybrid-cache/internal/platform"
)

// newPressuredStore builds a store whose quota estimator can be flipped
// into the over-quota state on demand.
func newPressuredStore(t *testing.T, mock *clock.Mock, overQuota *atomic.Bool) *Store {
	t.Helper()

	cfg := testCfg()
	cfg.Store.Eviction = &config.EvictionCfg{MinEvict: 2, Fraction: 0.2}
	require.NoError(t, cfg.AdjustConfig())

	rt := platform.Runtime{
		Clock: mock,
		Quota: platform.FixedQuota{
			Quota: 1000,
			Usage: func() int64 {
				if overQuota.Load() {
					return 950
				}
				return 0
			},
		},
	}.Defaults()

	comp := compress.New(cfg.Compression)
	sessions := market.New(cfg.Market, rt.Clock)
	s := New(context.Background(), cfg, slog.Default(), rt, comp, sessions)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEvictionBatchSize(t *testing.T) {
	mock := clock.NewMock()
	var over atomic.Bool
	s := newPressuredStore(t, mock, &over)

	for i := 0; i < 20; i++ {
		_, err := s.CacheArticle(article(fmt.Sprintf("e%d", i), fmt.Sprintf("Story %d", i)))
		require.NoError(t, err)
	}

	over.Store(true)
	evicted := s.EnforceStorageLimit()
	// max(MinEvict=2, 0.2*20=4) = 4
	require.Equal(t, 4, evicted)
	require.Equal(t, 16, s.Len())

	_, _, _, _, evictedItems, evictedBytes, _, _ := s.StoreMetrics()
	require.Equal(t, int64(4), evictedItems)
	require.Positive(t, evictedBytes)
}

func TestEvictionDefaultBatchUsesTenRecordFloor(t *testing.T) {
	mock := clock.NewMock()

	cfg := testCfg() // default eviction policy: floor 10, fraction 0.2
	require.NoError(t, cfg.AdjustConfig())

	var over atomic.Bool
	rt := platform.Runtime{
		Clock: mock,
		Quota: platform.FixedQuota{Quota: 1000, Usage: func() int64 {
			if over.Load() {
				return 950
			}
			return 0
		}},
	}.Defaults()
	s := New(context.Background(), cfg, slog.Default(), rt, compress.New(cfg.Compression), market.New(cfg.Market, rt.Clock))
	t.Cleanup(func() { _ = s.Close() })

	for i := 0; i < 20; i++ {
		_, err := s.CacheArticle(article(fmt.Sprintf("d%d", i), fmt.Sprintf("Story %d", i)))
		require.NoError(t, err)
	}

	over.Store(true)
	// 0.2*20 = 4 is under the default floor of 10
	require.Equal(t, 10, s.EnforceStorageLimit())
	require.Equal(t, 10, s.Len())
}

func TestEvictionMinimumFloor(t *testing.T) {
	mock := clock.NewMock()
	var over atomic.Bool
	s := newPressuredStore(t, mock, &over)

	for i := 0; i < 5; i++ {
		_, err := s.CacheArticle(article(fmt.Sprintf("e%d", i), fmt.Sprintf("Story %d", i)))
		require.NoError(t, err)
	}

	over.Store(true)
	// 0.2*5 = 1 rounds below the floor; MinEvict=2 wins.
	require.Equal(t, 2, s.EnforceStorageLimit())
	require.Equal(t, 3, s.Len())
}

func TestEvictionNoopUnderQuota(t *testing.T) {
	mock := clock.NewMock()
	var over atomic.Bool
	s := newPressuredStore(t, mock, &over)

	for i := 0; i < 10; i++ {
		_, err := s.CacheArticle(article(fmt.Sprintf("e%d", i), fmt.Sprintf("Story %d", i)))
		require.NoError(t, err)
	}

	require.Zero(t, s.EnforceStorageLimit())
	require.Equal(t, 10, s.Len())
}

func TestEvictionPrefersLowValueRecords(t *testing.T) {
	mock := clock.NewMock()
	var over atomic.Bool
	s := newPressuredStore(t, mock, &over)

	for i := 0; i < 10; i++ {
		rec := article(fmt.Sprintf("e%d", i), fmt.Sprintf("Story %d", i))
		_, err := s.CacheArticle(rec)
		require.NoError(t, err)
	}

	// Raise the score of a few records through the signals the policy
	// weighs: bookmarks, access frequency and market impact.
	require.True(t, s.Bookmark("e0"))
	for i := 0; i < 5; i++ {
		_, ok, err := s.Article("e1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	important := article("e-impact", "Rate decision")
	important.MarketImpact = ImpactHigh
	_, err := s.CacheArticle(important)
	require.NoError(t, err)

	over.Store(true)
	require.Equal(t, 2, s.EnforceStorageLimit()) // max(2, 0.2*11=2.2->2)

	for _, id := range []string{"e0", "e1", "e-impact"} {
		s.mu.RLock()
		_, ok := s.records[id]
		s.mu.RUnlock()
		require.True(t, ok, "high-score record %s must survive eviction", id)
	}
}

func TestEvictionRunsOnWritePressure(t *testing.T) {
	mock := clock.NewMock()
	var over atomic.Bool
	s := newPressuredStore(t, mock, &over)

	for i := 0; i < 10; i++ {
		_, err := s.CacheArticle(article(fmt.Sprintf("e%d", i), fmt.Sprintf("Story %d", i)))
		require.NoError(t, err)
	}

	over.Store(true)
	_, err := s.CacheArticle(article("late", "Arrives under pressure"))
	require.NoError(t, err)

	// max(2, 0.2*10=2) evicted before the insert landed.
	require.Equal(t, 9, s.Len())

	_, ok, err := s.Article("late")
	require.NoError(t, err)
	require.True(t, ok, "the triggering write itself must not be evicted")
}

func TestDetermineTTLClasses(t *testing.T) {
	cfg := testCfg()
	sessions := market.New(nil, clock.NewMock())

	breaking := article("t1", "Breaking")
	breaking.Breaking = true
	require.Equal(t, 15*time.Minute, determineTTL(breaking, cfg.TTL, sessions))

	impact := article("t2", "High impact")
	impact.MarketImpact = ImpactHigh
	require.Equal(t, 15*time.Minute, determineTTL(impact, cfg.TTL, sessions))

	enhanced := article("t3", "AI enhanced")
	enhanced.AIEnhanced = true
	require.Equal(t, 6*time.Hour, determineTTL(enhanced, cfg.TTL, sessions))

	require.Equal(t, time.Hour, determineTTL(article("t4", "Regular"), cfg.TTL, sessions))

	prefs := article("t6", "Theme settings")
	prefs.SourceCategory = "user-preferences"
	require.Equal(t, 24*time.Hour, determineTTL(prefs, cfg.TTL, sessions))

	// breaking beats ai-enhanced when both apply
	both := article("t5", "Breaking and enhanced")
	both.Breaking = true
	both.AIEnhanced = true
	require.Equal(t, 15*time.Minute, determineTTL(both, cfg.TTL, sessions))
}
