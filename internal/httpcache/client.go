// Package httpcache implements the URL-keyed conditional-request cache:
// ETag / Last-Modified revalidation, per-URL request collapsing and
// stale-data fallback on network failure. No two concurrent fetches of
// the same URL produce two network calls.
package httpcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/platform"
)

// Result is the outcome of a cached fetch. FromCache and Age let the
// caller distinguish definitive fresh data from degraded fallback data;
// stale data is never returned unlabeled.
type Result struct {
	Data        []byte
	FromCache   bool
	ETag        string
	Age         time.Duration
	ContentType string
	Status      int
}

// Options tune a single fetch.
type Options struct {
	// Header is merged into the outgoing request.
	Header http.Header

	// Revalidate forces a conditional round trip even when the cached
	// entry is still fresh.
	Revalidate bool

	// StaleWhileRevalidate marks the resulting entry as eligible for
	// stale fallback on network failure regardless of connectivity.
	StaleWhileRevalidate bool
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*Result, error)
	Invalidate(url string)
	InvalidatePattern(re *regexp.Regexp) int
	HTTPMetrics() (hits, misses, revalidated, deduplicated, staleFallbacks, failures int64)
	Close() error
}

type Client struct {
	cfg      *config.HTTPCfg
	http     *http.Client
	clock    platform.Clock
	conn     platform.Connectivity
	persist  platform.Store
	logger   *slog.Logger
	counters *counters
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Entry
}

func New(
	cfg *config.HTTPCfg,
	logger *slog.Logger,
	rt platform.Runtime,
	httpClient *http.Client,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Enabled() && cfg.RequestTimeout > 0 && httpClient.Timeout == 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}
	c := &Client{
		cfg:      cfg,
		http:     httpClient,
		clock:    rt.Clock,
		conn:     rt.Connectivity,
		persist:  rt.Store,
		logger:   logger,
		counters: newCounters(),
		entries:  make(map[string]*Entry),
	}
	c.restore()
	return c
}

// Fetch serves url through the conditional cache. Concurrent calls for
// the same URL collapse into one network round trip.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (*Result, error) {
	now := c.clock.Now()

	if !opts.Revalidate {
		c.mu.RLock()
		entry, ok := c.entries[url]
		c.mu.RUnlock()
		if ok && entry.Fresh(now, c.cfg) {
			c.counters.hits.Add(1)
			return c.resultFrom(entry, now), nil
		}
	}

	v, err, shared := c.group.Do(url, func() (any, error) {
		return c.roundTrip(ctx, url, opts)
	})
	if shared {
		c.counters.deduplicated.Add(1)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate removes a single entry and persists the updated set.
func (c *Client) Invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
	c.save()
}

// InvalidatePattern removes all entries whose URL matches re.
func (c *Client) InvalidatePattern(re *regexp.Regexp) int {
	c.mu.Lock()
	removed := 0
	for url := range c.entries {
		if re.MatchString(url) {
			delete(c.entries, url)
			removed++
		}
	}
	c.mu.Unlock()
	c.save()
	return removed
}

func (c *Client) HTTPMetrics() (hits, misses, revalidated, deduplicated, staleFallbacks, failures int64) {
	return c.counters.snapshot()
}

func (c *Client) Close() error {
	c.save()
	return nil
}

/**
 * Private API.
 */

func (c *Client) roundTrip(ctx context.Context, url string, opts Options) (*Result, error) {
	c.mu.RLock()
	prior := c.entries[url]
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if prior != nil {
		if prior.ETag != "" {
			req.Header.Set("If-None-Match", prior.ETag)
		}
		if prior.LastModified != "" {
			req.Header.Set("If-Modified-Since", prior.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fallback(url, prior, err)
	}
	defer resp.Body.Close()

	now := c.clock.Now()

	if resp.StatusCode == http.StatusNotModified && prior != nil {
		// Sliding freshness: the entry's content is confirmed current.
		renewed := *prior
		renewed.Timestamp = now
		c.store(&renewed)

		c.counters.revalidated.Add(1)
		c.counters.hits.Add(1)
		res := c.resultFrom(&renewed, now)
		res.Status = resp.StatusCode
		return res, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.counters.failures.Add(1)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fallback(url, prior, fmt.Errorf("read body %s: %w", url, err))
	}

	maxAge, swrDirective := parseCacheControl(resp.Header.Get("Cache-Control"))
	entry := &Entry{
		URL:                  url,
		ETag:                 resp.Header.Get("ETag"),
		LastModified:         resp.Header.Get("Last-Modified"),
		Data:                 body,
		Timestamp:            now,
		Size:                 int64(len(body)),
		ContentType:          resp.Header.Get("Content-Type"),
		MaxAge:               maxAge,
		StaleWhileRevalidate: swrDirective || opts.StaleWhileRevalidate,
	}
	c.store(entry)

	c.counters.misses.Add(1)
	return &Result{
		Data:        body,
		FromCache:   false,
		ETag:        entry.ETag,
		ContentType: entry.ContentType,
		Status:      resp.StatusCode,
	}, nil
}

// fallback implements the graceful-degradation contract: on network
// failure a stale entry is served, explicitly labeled, when the entry
// opted into stale-while-revalidate or the client is offline.
func (c *Client) fallback(url string, prior *Entry, cause error) (*Result, error) {
	offline := c.conn != nil && !c.conn.Online()
	if prior != nil && (prior.StaleWhileRevalidate || offline) {
		c.counters.staleFallbacks.Add(1)
		c.logger.Warn("serving stale entry after network failure", "url", url, "offline", offline)
		return c.resultFrom(prior, c.clock.Now()), nil
	}
	c.counters.failures.Add(1)
	return nil, cause
}

func (c *Client) resultFrom(entry *Entry, now time.Time) *Result {
	data := make([]byte, len(entry.Data))
	copy(data, entry.Data)
	return &Result{
		Data:        data,
		FromCache:   true,
		ETag:        entry.ETag,
		Age:         now.Sub(entry.Timestamp),
		ContentType: entry.ContentType,
		// The stored body came from a successful response.
		Status: http.StatusOK,
	}
}

func (c *Client) store(entry *Entry) {
	c.mu.Lock()
	c.entries[entry.URL] = entry
	c.mu.Unlock()
	c.save()
}
