// Package provider implements the coordinator cache plugged into the
// request-deduplication/revalidation layer: a generic key/value cache
// with key-pattern TTLs, debounced persistence of critical keys and
// cross-context synchronization resolved by last-write-wins timestamps.
package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fintide/go-hybrid-cache/internal/compress"
	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/platform"
)

const defaultDebounce = time.Second

type Coordinator interface {
	Get(key string) (*State, bool)
	Set(key string, value []byte)
	SetWithETag(key string, value []byte, etag string)
	Delete(key string)
	Keys() []string
	Clear()
	Hide()
	Show()
	Unload()
	ProviderMetrics() (hits, misses, expirations, sets, sent, applied, stale, flushes int64)
	Close() error
}

// Provider respects given ctx.
type Provider struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.ProviderCfg
	comp      *compress.Compressor
	clock     platform.Clock
	persist   platform.Store
	broadcast platform.Broadcast
	logger    *slog.Logger
	counters  *counters
	debounce  *Debouncer
	contextID string

	mu     sync.RWMutex
	states map[string]*State
}

func New(
	ctx context.Context,
	cfg *config.ProviderCfg,
	logger *slog.Logger,
	rt platform.Runtime,
	comp *compress.Compressor,
) *Provider {
	ctx, cancel := context.WithCancel(ctx)
	p := &Provider{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		comp:      comp,
		clock:     rt.Clock,
		persist:   rt.Store,
		broadcast: rt.Broadcast,
		logger:    logger,
		counters:  newCounters(),
		contextID: uuid.NewString(),
		states:    make(map[string]*State),
	}

	delay := defaultDebounce
	if cfg.Enabled() && cfg.Debounce > 0 {
		delay = cfg.Debounce
	}
	p.debounce = NewDebouncer(rt.Clock, delay, p.flush)

	p.restore()
	p.runSync()
	return p
}

// Get returns the state under key, lazily expiring lapsed entries
// (delete-then-miss). Entries marked for revalidation are still returned
// so consumers can render stale data while refreshing.
func (p *Provider) Get(key string) (*State, bool) {
	now := p.clock.Now()

	p.mu.Lock()
	st, ok := p.states[key]
	if !ok {
		p.mu.Unlock()
		p.counters.misses.Add(1)
		return nil, false
	}
	if st.Expired(now) && !st.NeedsRevalidate {
		delete(p.states, key)
		p.mu.Unlock()
		p.counters.expirations.Add(1)
		p.counters.misses.Add(1)
		return nil, false
	}
	out := st.clone()
	p.mu.Unlock()

	p.counters.hits.Add(1)
	return out, true
}

// Set stores value under key with a key-pattern-derived TTL, schedules the
// debounced persistence sync and broadcasts the update to other contexts.
func (p *Provider) Set(key string, value []byte) {
	p.SetWithETag(key, value, "")
}

func (p *Provider) SetWithETag(key string, value []byte, etag string) {
	st := &State{
		Key:       key,
		Value:     value,
		Timestamp: p.clock.Now(),
		TTL:       p.keyTTL(key),
		ETag:      etag,
	}

	p.mu.Lock()
	p.states[key] = st.clone()
	p.mu.Unlock()

	p.counters.sets.Add(1)
	p.debounce.Schedule()
	p.publish(st)
}

func (p *Provider) Delete(key string) {
	p.mu.Lock()
	delete(p.states, key)
	p.mu.Unlock()
	p.debounce.Schedule()
}

func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.states))
	for k := range p.states {
		keys = append(keys, k)
	}
	return keys
}

func (p *Provider) Clear() {
	p.mu.Lock()
	p.states = make(map[string]*State)
	p.mu.Unlock()

	if p.persist != nil {
		_ = p.persist.Delete(blobKey)
	}
}

// Hide forces an immediate, non-debounced sync; called when the context
// is being hidden.
func (p *Provider) Hide() {
	p.debounce.Flush()
}

// Unload behaves like Hide; called when the context is going away.
func (p *Provider) Unload() {
	p.debounce.Flush()
}

// Show marks TTL-lapsed in-memory entries for revalidation instead of
// deleting them, so consumers show stale data until fresh data arrives.
func (p *Provider) Show() {
	now := p.clock.Now()

	p.mu.Lock()
	for _, st := range p.states {
		if st.Expired(now) {
			st.NeedsRevalidate = true
		}
	}
	p.mu.Unlock()
}

func (p *Provider) ProviderMetrics() (hits, misses, expirations, sets, sent, applied, stale, flushes int64) {
	return p.counters.snapshot()
}

func (p *Provider) Close() error {
	p.debounce.Flush()
	p.debounce.Stop()
	p.cancel()
	return nil
}

func (p *Provider) keyTTL(key string) time.Duration {
	if p.cfg.Enabled() {
		if ttl := p.cfg.KeyTTL(key); ttl > 0 {
			return ttl
		}
	}
	return 5 * time.Minute
}
