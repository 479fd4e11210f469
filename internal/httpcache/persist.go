package httpcache

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	blobKey           = "hybridcache.http"
	blobVersion       = 1
	defaultMaxEntries = 50
)

type blob struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Entries   []*Entry  `json:"entries"`
}

func (c *Client) maxEntries() int {
	if c.cfg.Enabled() && c.cfg.MaxEntries > 0 {
		return c.cfg.MaxEntries
	}
	return defaultMaxEntries
}

// restore loads the persisted entry set, dropping entries that fail the
// freshness check and discarding the whole blob on version mismatch.
func (c *Client) restore() {
	if c.persist == nil {
		return
	}

	data, ok, err := c.persist.Load(blobKey)
	if err != nil || !ok {
		return
	}

	var b blob
	if err = json.Unmarshal(data, &b); err != nil || b.Version != blobVersion {
		_ = c.persist.Delete(blobKey)
		return
	}

	now := c.clock.Now()
	restored := 0
	c.mu.Lock()
	for _, entry := range b.Entries {
		if entry == nil || entry.URL == "" || !entry.Fresh(now, c.cfg) {
			continue
		}
		c.entries[entry.URL] = entry
		restored++
	}
	c.mu.Unlock()

	if restored > 0 {
		log.Info().Int("restored", restored).Msg("http cache restored")
	}
}

// save mirrors the entry set to the bounded session-scoped blob: newest
// first, capped at the configured entry count. Persistence failures drop
// the blob rather than surfacing to the fetch path.
func (c *Client) save() {
	if c.persist == nil {
		return
	}

	c.mu.RLock()
	entries := make([]*Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit := c.maxEntries(); len(entries) > limit {
		entries = entries[:limit]
	}

	data, err := json.Marshal(blob{Version: blobVersion, Timestamp: c.clock.Now(), Entries: entries})
	if err != nil {
		log.Err(err).Msg("http cache marshal failed")
		return
	}
	if err = c.persist.Save(blobKey, data); err != nil {
		log.Err(err).Msg("http cache save failed, dropping blob")
		_ = c.persist.Delete(blobKey)
	}
}
