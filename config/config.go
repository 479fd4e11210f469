// Package config re-exports the configuration types consumed by the
// public cache constructor.
package config

import "github.com/fintide/go-hybrid-cache/internal/config"

type (
	Config         = config.Config
	StoreCfg       = config.StoreCfg
	EvictionCfg    = config.EvictionCfg
	TTLCfg         = config.TTLCfg
	MarketCfg      = config.MarketCfg
	CompressionCfg = config.CompressionCfg
	HTTPCfg        = config.HTTPCfg
	ProviderCfg    = config.ProviderCfg
	TTLRuleCfg     = config.TTLRuleCfg
	FeedCfg        = config.FeedCfg
	RetryCfg       = config.RetryCfg
	TelemetryCfg   = config.TelemetryCfg
	Strategy       = config.Strategy
)

const (
	StrategyCacheFirst           = config.StrategyCacheFirst
	StrategyNetworkFirst         = config.StrategyNetworkFirst
	StrategyStaleWhileRevalidate = config.StrategyStaleWhileRevalidate
	StrategyNetworkOnly          = config.StrategyNetworkOnly
)

// LoadConfig reads, unmarshals and adjusts a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.LoadConfig(path)
}
