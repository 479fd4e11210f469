package provider

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	blobKey             = "hybridcache.provider"
	blobVersion         = 1
	defaultMaxPersisted = 100
)

type blob struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Entries   []*State  `json:"entries"`
}

func (p *Provider) maxPersisted() int {
	if p.cfg.Enabled() && p.cfg.MaxPersisted > 0 {
		return p.cfg.MaxPersisted
	}
	return defaultMaxPersisted
}

// flush serializes the critical subset of keys to the persistent blob:
// allow-listed keys only, compressed over the threshold, sorted by
// recency and capped. Non-critical keys are memory-only by design.
func (p *Provider) flush() {
	if p.persist == nil {
		return
	}

	p.mu.RLock()
	entries := make([]*State, 0, len(p.states))
	for _, st := range p.states {
		if p.cfg.Enabled() && !p.cfg.IsCritical(st.Key) {
			continue
		}
		entries = append(entries, st.clone())
	}
	p.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit := p.maxPersisted(); len(entries) > limit {
		entries = entries[:limit]
	}

	for _, st := range entries {
		if st.Compressed {
			continue
		}
		if packed, ok := p.comp.Smart(st.Value); ok {
			st.Value = packed
			st.Compressed = true
		}
	}

	data, err := json.Marshal(blob{Version: blobVersion, Timestamp: p.clock.Now(), Entries: entries})
	if err != nil {
		log.Err(err).Msg("provider blob marshal failed")
		return
	}
	if err = p.persist.Save(blobKey, data); err != nil {
		// Quota pressure on the persistence layer is non-fatal: drop the
		// blob rather than letting it break cache writes.
		log.Err(err).Msg("provider blob save failed, dropping blob")
		_ = p.persist.Delete(blobKey)
		return
	}
	p.counters.flushes.Add(1)
}

// restore loads the persisted blob at startup, discarding it wholesale on
// version mismatch and dropping lapsed entries.
func (p *Provider) restore() {
	if p.persist == nil {
		return
	}

	data, ok, err := p.persist.Load(blobKey)
	if err != nil || !ok {
		return
	}

	var b blob
	if err = json.Unmarshal(data, &b); err != nil || b.Version != blobVersion {
		_ = p.persist.Delete(blobKey)
		return
	}

	now := p.clock.Now()
	restored := 0
	p.mu.Lock()
	for _, st := range b.Entries {
		if st == nil || st.Key == "" || st.Expired(now) {
			continue
		}
		if err := p.inflate(st); err != nil {
			continue
		}
		p.states[st.Key] = st
		restored++
	}
	p.mu.Unlock()

	if restored > 0 {
		log.Info().Int("restored", restored).Msg("provider blob restored")
	}
}

// mergePersisted folds a blob written by another context into memory
// under last-write-wins.
func (p *Provider) mergePersisted() {
	data, ok, err := p.persist.Load(blobKey)
	if err != nil || !ok {
		return
	}

	var b blob
	if err = json.Unmarshal(data, &b); err != nil || b.Version != blobVersion {
		return
	}

	now := p.clock.Now()
	for _, st := range b.Entries {
		if st == nil || st.Key == "" || st.Expired(now) {
			continue
		}
		if err := p.inflate(st); err != nil {
			continue
		}
		p.apply(st)
	}
}

func (p *Provider) inflate(st *State) error {
	if !st.Compressed {
		return nil
	}
	plain, err := p.comp.Decompress(st.Value)
	if err != nil {
		return err
	}
	st.Value = plain
	st.Compressed = false
	return nil
}
