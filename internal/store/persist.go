package store

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	snapshotKey     = "hybridcache.records"
	snapshotVersion = 1
)

type snapshot struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Records   []*Record `json:"entries"`
}

// restoreSnapshot loads the persisted record blob. A version mismatch
// discards the blob rather than attempting migration, and records already
// past TTL are dropped on restore.
func (s *Store) restoreSnapshot() {
	if s.persist == nil {
		return
	}

	data, ok, err := s.persist.Load(snapshotKey)
	if err != nil || !ok {
		return
	}

	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil || snap.Version != snapshotVersion {
		_ = s.persist.Delete(snapshotKey)
		return
	}

	now := s.clock.Now()
	restored := 0

	s.mu.Lock()
	for _, rec := range snap.Records {
		if rec == nil || rec.ID == "" || rec.Expired(now) {
			continue
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
		restored++
	}
	s.mu.Unlock()

	if restored > 0 {
		log.Info().Int("restored", restored).Msg("record snapshot restored")
	}
}

// saveSnapshot mirrors the current records to the platform store. A
// persistence failure drops the blob instead of propagating: losing the
// snapshot is recoverable, breaking a cache write is not.
func (s *Store) saveSnapshot() {
	if s.persist == nil {
		return
	}

	s.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Timestamp: s.clock.Now()}
	snap.Records = make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			snap.Records = append(snap.Records, rec)
		}
	}
	s.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		log.Err(err).Msg("record snapshot marshal failed")
		return
	}
	if err = s.persist.Save(snapshotKey, data); err != nil {
		log.Err(err).Msg("record snapshot save failed, dropping blob")
		_ = s.persist.Delete(snapshotKey)
	}
}
