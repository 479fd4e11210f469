package config

import (
	"regexp"
	"time"
)

// TTLRuleCfg maps a key pattern to the TTL applied to matching keys in the
// coordinator provider. Rules are evaluated in order; the first match wins.
type TTLRuleCfg struct {
	Pattern string        `yaml:"pattern"`
	TTL     time.Duration `yaml:"ttl"`

	// Regexp is compiled from Pattern during initialization.
	// It is not read from YAML.
	Regexp *regexp.Regexp // virtual: computed during init
}

// ProviderCfg configures the coordinator cache plugged into the
// revalidation layer.
type ProviderCfg struct {
	// MaxPersisted bounds the number of entries serialized to the
	// persistent blob. Entries are sorted by recency and capped before
	// serialization. Example: 100.
	MaxPersisted int `yaml:"max_persisted"`

	// Debounce coalesces persistence syncs scheduled after each write.
	// Example: "1s".
	Debounce time.Duration `yaml:"debounce"`

	// DefaultTTL applies to keys matched by no TTL rule.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// TTLRules derive per-key TTLs by pattern: market-data keys get the
	// shortest TTL, AI-enhancement keys the longest, user-preference keys
	// long-lived.
	TTLRules []TTLRuleCfg `yaml:"ttl_rules"`

	// CriticalPatterns is the allow-list of key patterns worth persisting.
	// Keys matching none of them stay memory-only and are lost on reload.
	CriticalPatterns []string `yaml:"critical_patterns"`

	// criticalRegexps is compiled from CriticalPatterns during
	// initialization. Not read from YAML.
	criticalRegexps []*regexp.Regexp // virtual: computed during init
}

func (cfg *ProviderCfg) Enabled() bool {
	return cfg != nil
}

// IsCritical reports whether key matches the persistence allow-list.
func (cfg *ProviderCfg) IsCritical(key string) bool {
	for _, re := range cfg.criticalRegexps {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// KeyTTL resolves the TTL for key via the first matching rule.
func (cfg *ProviderCfg) KeyTTL(key string) time.Duration {
	for i := range cfg.TTLRules {
		if cfg.TTLRules[i].Regexp != nil && cfg.TTLRules[i].Regexp.MatchString(key) {
			return cfg.TTLRules[i].TTL
		}
	}
	return cfg.DefaultTTL
}
