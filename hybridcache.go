package hybridcache

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/fintide/go-hybrid-cache/config"
	"github.com/fintide/go-hybrid-cache/internal/compress"
	"github.com/fintide/go-hybrid-cache/internal/feed"
	"github.com/fintide/go-hybrid-cache/internal/httpcache"
	"github.com/fintide/go-hybrid-cache/internal/market"
	"github.com/fintide/go-hybrid-cache/internal/platform"
	"github.com/fintide/go-hybrid-cache/internal/provider"
	"github.com/fintide/go-hybrid-cache/internal/store"
	"github.com/fintide/go-hybrid-cache/internal/telemetry"
)

type HybridCache interface {
	feed.Loader
	telemetry.Logger
	io.Closer
}

type Cache struct {
	feed.Loader
	telemetry.Logger
	articles    store.Storer
	conditional httpcache.Fetcher
	coordinator provider.Coordinator
	cls         context.CancelFunc
}

// New wires the full caching stack: record store, conditional HTTP
// cache, coordinator provider and the feed orchestrator on top, all
// sharing one platform runtime. fetch resolves feed queries against the
// network, typically through the returned cache's HTTP() client.
func New(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	rt platform.Runtime,
	fetch feed.FetchFunc,
	httpClient *http.Client,
) *Cache {
	ctx, cancel := context.WithCancel(ctx)
	rt = rt.Defaults()

	comp := compress.New(cfg.Compression)
	sessions := market.New(cfg.Market, rt.Clock)
	articles := store.New(ctx, cfg, logger, rt, comp, sessions)
	conditional := httpcache.New(cfg.HTTP, logger, rt, httpClient)
	coordinator := provider.New(ctx, cfg.Provider, logger, rt, comp)
	loader := feed.New(cfg.Feed, logger, articles, rt, fetch)
	telemeter := telemetry.NewLogs(ctx, cfg.Telemetry, logger, rt.Clock, articles, conditional, coordinator)

	return &Cache{
		Loader:      loader,
		Logger:      telemeter,
		articles:    articles,
		conditional: conditional,
		coordinator: coordinator,
		cls:         cancel,
	}
}

// Articles exposes the structured record store.
func (c *Cache) Articles() store.Storer {
	return c.articles
}

// HTTP exposes the conditional-request cache.
func (c *Cache) HTTP() httpcache.Fetcher {
	return c.conditional
}

// Coordinator exposes the key-value coordinator provider.
func (c *Cache) Coordinator() provider.Coordinator {
	return c.coordinator
}

func (c *Cache) Close() error {
	c.Logger.Stop()
	err := c.coordinator.Close()
	if herr := c.conditional.Close(); err == nil {
		err = herr
	}
	if serr := c.articles.Close(); err == nil {
		err = serr
	}
	c.cls()
	return err
}
