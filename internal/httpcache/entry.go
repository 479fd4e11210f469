package httpcache

import (
	"fmt"
	"strings"
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
)

// StatusError reports a non-2xx, non-304 upstream response. The retry
// policy uses the code to refuse retries on 4xx-class failures.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// ClientFault reports whether the failure is 4xx-class.
func (e *StatusError) ClientFault() bool {
	return e.Code >= 400 && e.Code < 500
}

// Entry is the cached state for one request URL. Entries are replaced
// wholesale on revalidation, never partially mutated.
type Entry struct {
	URL          string        `json:"url"`
	ETag         string        `json:"etag,omitempty"`
	LastModified string        `json:"last_modified,omitempty"`
	Data         []byte        `json:"data"`
	Timestamp    time.Time     `json:"timestamp"`
	Size         int64         `json:"size"`
	ContentType  string        `json:"content_type,omitempty"`
	MaxAge       time.Duration `json:"max_age,omitempty"`

	// StaleWhileRevalidate marks entries whose stale data may be served
	// on network failure even while online.
	StaleWhileRevalidate bool `json:"stale_while_revalidate,omitempty"`
}

// Fresh reports whether the entry is within its effective max-age: the
// explicit Cache-Control value when present, else the content-type-derived
// default.
func (e *Entry) Fresh(now time.Time, cfg *config.HTTPCfg) bool {
	return now.Sub(e.Timestamp) < e.effectiveMaxAge(cfg)
}

func (e *Entry) effectiveMaxAge(cfg *config.HTTPCfg) time.Duration {
	if e.MaxAge > 0 {
		return e.MaxAge
	}
	if !cfg.Enabled() {
		return defaultJSONMaxAge
	}
	switch {
	case strings.Contains(e.ContentType, "json"):
		if cfg.JSONMaxAge > 0 {
			return cfg.JSONMaxAge
		}
		return defaultJSONMaxAge
	case strings.HasPrefix(e.ContentType, "text/"):
		if cfg.TextMaxAge > 0 {
			return cfg.TextMaxAge
		}
		return defaultTextMaxAge
	default:
		if cfg.BinaryMaxAge > 0 {
			return cfg.BinaryMaxAge
		}
		return defaultBinaryMaxAge
	}
}

const (
	defaultJSONMaxAge   = 5 * time.Minute
	defaultTextMaxAge   = 10 * time.Minute
	defaultBinaryMaxAge = time.Hour
)

// parseCacheControl extracts the max-age duration and the
// stale-while-revalidate directive from a Cache-Control header value.
func parseCacheControl(v string) (maxAge time.Duration, swr bool) {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch {
		case strings.HasPrefix(part, "max-age="):
			var secs int
			for _, r := range part[len("max-age="):] {
				if r < '0' || r > '9' {
					break
				}
				secs = secs*10 + int(r-'0')
			}
			maxAge = time.Duration(secs) * time.Second
		case part == "stale-while-revalidate" || strings.HasPrefix(part, "stale-while-revalidate="):
			swr = true
		}
	}
	return maxAge, swr
}
