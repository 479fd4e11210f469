package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Record is a cached article-shaped entity. Cache metadata (CachedAt,
// AccessedAt, AccessCount, TTL, Size, Compressed, SearchText) is always
// present after creation; Content is transparently decompressed before a
// record is handed to a caller.
type Record struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`

	Title   string `json:"title"`
	Content []byte `json:"content,omitempty"`
	Summary string `json:"summary,omitempty"`
	Author  string `json:"author,omitempty"`

	Tickers        []string  `json:"tickers,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	MarketImpact   Impact    `json:"market_impact,omitempty"`
	SourceCategory string    `json:"source_category,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	AIEnhanced     bool      `json:"ai_enhanced,omitempty"`
	Breaking       bool      `json:"breaking,omitempty"`
	Bookmarked     bool      `json:"bookmarked,omitempty"`
	Read           bool      `json:"read,omitempty"`
	PublishedAt    time.Time `json:"published_at,omitzero"`

	CachedAt    time.Time     `json:"cached_at"`
	AccessedAt  time.Time     `json:"accessed_at"`
	AccessCount int64         `json:"access_count"`
	TTL         time.Duration `json:"ttl"`
	Size        int64         `json:"size"`
	Compressed  bool          `json:"compressed"`
	SearchText  string        `json:"search_text"`
}

// Expired reports whether the record's lifetime has lapsed at now.
func (r *Record) Expired(now time.Time) bool {
	if r.TTL <= 0 {
		return false
	}
	return now.Sub(r.CachedAt) > r.TTL
}

func (r *Record) clone() *Record {
	cp := *r
	if r.Content != nil {
		cp.Content = make([]byte, len(r.Content))
		copy(cp.Content, r.Content)
	}
	if r.Tickers != nil {
		cp.Tickers = make([]string, len(r.Tickers))
		copy(cp.Tickers, r.Tickers)
	}
	return &cp
}

// MetadataEntry is the lightweight index row maintained alongside every
// record write. It serves fast quota/priority queries only and is never
// authoritative over the record itself.
type MetadataEntry struct {
	Key        string    `json:"key"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	AccessedAt time.Time `json:"accessed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Priority   int       `json:"priority"`
}

// recordType classifies a record for the metadata index.
func recordType(r *Record) string {
	switch {
	case r.Breaking || r.MarketImpact == ImpactHigh:
		return "breaking"
	case r.AIEnhanced:
		return "ai_enhanced"
	default:
		return "regular"
	}
}

func typePriority(t string) int {
	switch t {
	case "breaking":
		return 3
	case "ai_enhanced":
		return 2
	default:
		return 1
	}
}

// Filter selects records for listing. Exactly one criterion applies: the
// first non-empty field in declaration order wins, the rest are ignored.
type Filter struct {
	Category  string
	Ticker    string
	UserID    string
	Sentiment Sentiment
}

func (f Filter) matches(r *Record) bool {
	switch {
	case f.Category != "":
		return r.SourceCategory == f.Category
	case f.Ticker != "":
		for _, t := range r.Tickers {
			if strings.EqualFold(t, f.Ticker) {
				return true
			}
		}
		return false
	case f.UserID != "":
		return r.UserID == f.UserID
	case f.Sentiment != "":
		return r.Sentiment == f.Sentiment
	default:
		return true
	}
}

// prepareForInsert is the pure write-side transform: it clones the input,
// assigns identity, stamps cache metadata, builds the search text and
// estimates the serialized size. Compression of oversized content is
// applied by the store after sizing.
func prepareForInsert(in *Record, now time.Time, ttl time.Duration) *Record {
	rec := in.clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.TTL <= 0 {
		rec.TTL = ttl
	}
	rec.CachedAt = now
	rec.AccessedAt = now
	rec.AccessCount = 1
	rec.Compressed = false
	rec.SearchText = buildSearchText(rec)
	rec.Size = estimateSize(rec)
	return rec
}

// hydrateOnRead is the pure read-side transform: it finalizes a copy
// that was detached from store-owned state under the lock, swapping in
// the decompressed content. The caller never receives a handle into
// live records.
func hydrateOnRead(cp *Record, content []byte) *Record {
	cp.Content = content
	cp.Compressed = false
	return cp
}

func buildSearchText(r *Record) string {
	parts := make([]string, 0, 5+len(r.Tickers))
	parts = append(parts, r.Title, r.Summary, r.Author, r.SourceCategory, string(r.Sentiment))
	parts = append(parts, r.Tickers...)
	return strings.ToLower(strings.Join(parts, " "))
}

func estimateSize(r *Record) int64 {
	data, err := json.Marshal(r)
	if err != nil {
		// Marshal of a Record cannot realistically fail; fall back to the
		// content length so accounting stays sane.
		return int64(len(r.Content))
	}
	return int64(len(data))
}
