package config

import "time"

// Strategy selects how the orchestration layer serves a content category.
type Strategy string

const (
	// StrategyCacheFirst returns a stored hit within TTL immediately and
	// only then falls through to the network.
	StrategyCacheFirst Strategy = "cache_first"

	// StrategyNetworkFirst attempts the network with a short timeout and
	// falls back to the record store on failure.
	StrategyNetworkFirst Strategy = "network_first"

	// StrategyStaleWhileRevalidate returns stored data immediately while a
	// background fetch replaces it.
	StrategyStaleWhileRevalidate Strategy = "stale_while_revalidate"

	// StrategyNetworkOnly always hits the network; used for categories
	// where caching would be actively harmful (live market data).
	StrategyNetworkOnly Strategy = "network_only"
)

// RetryCfg configures the orchestration layer's retry policy: capped
// exponential backoff, no retry while offline or on 4xx-class failures.
type RetryCfg struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

func (cfg *RetryCfg) Enabled() bool {
	return cfg != nil
}

// FeedCfg configures strategy selection for the orchestration layer.
type FeedCfg struct {
	// NetworkTimeout bounds the network attempt under the network-first
	// strategy. Example: "3s".
	NetworkTimeout time.Duration `yaml:"network_timeout"`

	// Strategies maps content category to strategy. Unmapped categories
	// fall back to DefaultStrategy.
	Strategies map[string]Strategy `yaml:"strategies"`

	// DefaultStrategy applies to unmapped categories.
	DefaultStrategy Strategy `yaml:"default_strategy"`

	// Retry configures backoff for failed network attempts.
	// If nil, no retries are performed.
	Retry *RetryCfg `yaml:"retry"`
}

func (cfg *FeedCfg) Enabled() bool {
	return cfg != nil
}

// CategoryStrategy resolves the strategy for a content category.
func (cfg *FeedCfg) CategoryStrategy(category string) Strategy {
	if cfg == nil {
		return StrategyStaleWhileRevalidate
	}
	if s, ok := cfg.Strategies[category]; ok {
		return s
	}
	if cfg.DefaultStrategy != "" {
		return cfg.DefaultStrategy
	}
	return StrategyStaleWhileRevalidate
}
