package store

import (
	"sort"
	"time"
)

// enforceStorageLimitLocked runs score-based eviction when usage exceeds
// the high-water mark. Frequency and importance bonuses outweigh plain
// recency so bookmarked and high-impact content survives longer than
// read-once articles, while large stale records are reclaimed first.
func (s *Store) enforceStorageLimitLocked() int {
	if !s.cfg.Store.Enabled() || !s.cfg.Store.Eviction.Enabled() {
		return 0
	}
	if !s.overQuotaLocked() || len(s.records) == 0 {
		return 0
	}

	ev := s.cfg.Store.Eviction
	batch := int(ev.Fraction * float64(len(s.records)))
	if batch < ev.MinEvict {
		batch = ev.MinEvict
	}
	if batch > len(s.records) {
		batch = len(s.records)
	}

	type scored struct {
		rec   *Record
		score float64
	}
	now := s.clock.Now()
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		candidates = append(candidates, scored{rec: rec, score: s.scoreLocked(rec, now)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var freed int64
	for _, c := range candidates[:batch] {
		freed += c.rec.Size
		s.deleteLocked(c.rec)
	}

	s.counters.evictedItems.Add(int64(batch))
	s.counters.evictedBytes.Add(freed)
	return batch
}

func (s *Store) overQuotaLocked() bool {
	if s.quota != nil {
		usage, quota, err := s.quota.Estimate()
		if err == nil && quota > 0 {
			return float64(usage) >= float64(quota)*s.cfg.Store.HighWaterCoefficient
		}
		// estimation unavailable, fall through to the manual calculation
	}
	return s.cfg.Store.HighWaterBytes > 0 && s.usage >= s.cfg.Store.HighWaterBytes
}

// scoreLocked computes the eviction score for a record; lower scores are
// evicted first.
func (s *Store) scoreLocked(rec *Record, now time.Time) float64 {
	ev := s.cfg.Store.Eviction

	recency := now.Sub(rec.AccessedAt).Seconds()
	age := now.Sub(rec.CachedAt).Seconds()

	score := float64(rec.AccessCount)*ev.AccessWeight - recency - age/ev.AgeDivisor - float64(rec.Size)/ev.SizeDivisor
	if rec.Bookmarked {
		score += ev.BookmarkBonus
	}
	if rec.MarketImpact == ImpactHigh {
		score += ev.HighImpactBonus
	}
	if rec.Sentiment != "" && rec.Sentiment != SentimentNeutral {
		score += ev.SentimentBonus
	}
	if rec.AIEnhanced {
		score += ev.AIEnhancedBonus
	}
	return score
}
