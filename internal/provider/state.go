package provider

import "time"

// State wraps a revalidation-layer value with the metadata the provider
// needs for freshness and last-write-wins reconciliation.
type State struct {
	Key       string        `json:"key"`
	Value     []byte        `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
	Compressed bool         `json:"compressed,omitempty"`
	ETag      string        `json:"etag,omitempty"`

	// NeedsRevalidate is set instead of deleting when an entry lapses
	// while the context is hidden, so consumers can render stale-then-fresh.
	NeedsRevalidate bool `json:"needs_revalidate,omitempty"`
}

// Expired reports whether the state's lifetime has lapsed at now.
func (s *State) Expired(now time.Time) bool {
	if s.TTL <= 0 {
		return false
	}
	return now.Sub(s.Timestamp) > s.TTL
}

func (s *State) clone() *State {
	cp := *s
	if s.Value != nil {
		cp.Value = make([]byte, len(s.Value))
		copy(cp.Value, s.Value)
	}
	return &cp
}
