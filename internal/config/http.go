package config

import "time"

// HTTPCfg configures the conditional-request cache.
type HTTPCfg struct {
	// MaxEntries bounds the number of URL entries mirrored to the
	// session-scoped persistent blob. Example: 50.
	MaxEntries int `yaml:"max_entries"`

	// RequestTimeout bounds a single network round trip.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// JSONMaxAge/TextMaxAge/BinaryMaxAge are the content-type-derived
	// freshness defaults applied when the response carries no
	// Cache-Control max-age directive.
	JSONMaxAge   time.Duration `yaml:"json_max_age"`
	TextMaxAge   time.Duration `yaml:"text_max_age"`
	BinaryMaxAge time.Duration `yaml:"binary_max_age"`
}

func (cfg *HTTPCfg) Enabled() bool {
	return cfg != nil
}
