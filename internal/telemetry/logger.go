// Package telemetry periodically samples the counters of the store, the
// HTTP cache and the coordinator provider and logs per-interval deltas.
// It observes only; nothing in the hot paths depends on it.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/httpcache"
	"github.com/fintide/go-hybrid-cache/internal/platform"
	"github.com/fintide/go-hybrid-cache/internal/provider"
	"github.com/fintide/go-hybrid-cache/internal/store"
)

const defaultLogsInterval = 10 * time.Second

type Logger interface {
	Run()
	Stop()
}

// Logs respects given ctx.
type Logs struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.TelemetryCfg
	logger  *slog.Logger
	clock   platform.Clock
	sampler sampler
}

func NewLogs(
	ctx context.Context,
	cfg *config.TelemetryCfg,
	logger *slog.Logger,
	clk platform.Clock,
	st store.Storer,
	hc httpcache.Fetcher,
	pr provider.Coordinator,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return &Logs{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		clock:   clk,
		sampler: newSampler(st, hc, pr),
	}
}

func (l *Logs) Run() {
	if !l.cfg.Enabled() || !l.cfg.IsLogsEnabled {
		return
	}
	go l.run()
}

func (l *Logs) Stop() {
	l.cancel()
}

/**
 * Private API.
 */

func (l *Logs) run() {
	interval := l.cfg.LogsInterval
	if interval <= 0 {
		interval = defaultLogsInterval
	}

	ticker := l.clock.Ticker(interval)
	defer ticker.Stop()

	prev := l.sampler.snapshot()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			cur := l.sampler.snapshot()
			l.flush(deltaSnapshot(prev, cur), interval)
			prev = cur
		}
	}
}

func (l *Logs) flush(d snapshot, interval time.Duration) {
	l.logger.Info("cache telemetry",
		"interval", interval.String(),
		"store", slog.GroupValue(
			slog.Uint64("hits", d.storeHits),
			slog.Uint64("misses", d.storeMisses),
			slog.Uint64("expired_on_read", d.storeExpired),
			slog.Uint64("inserts", d.storeInserts),
			slog.Uint64("evicted_items", d.storeEvictedItems),
			slog.Uint64("evicted_bytes", d.storeEvictedBytes),
			slog.Uint64("sweeps", d.storeSweeps),
			slog.Uint64("swept_items", d.storeSweptItems),
		),
		"http", slog.GroupValue(
			slog.Uint64("hits", d.httpHits),
			slog.Uint64("misses", d.httpMisses),
			slog.Uint64("revalidated", d.httpRevalidated),
			slog.Uint64("deduplicated", d.httpDeduplicated),
			slog.Uint64("stale_fallbacks", d.httpStale),
			slog.Uint64("failures", d.httpFailures),
		),
		"provider", slog.GroupValue(
			slog.Uint64("hits", d.providerHits),
			slog.Uint64("misses", d.providerMisses),
			slog.Uint64("expirations", d.providerExpirations),
			slog.Uint64("sets", d.providerSets),
			slog.Uint64("sync_sent", d.providerSent),
			slog.Uint64("sync_applied", d.providerApplied),
			slog.Uint64("sync_stale", d.providerStale),
			slog.Uint64("flushes", d.providerFlushes),
		),
	)
}
