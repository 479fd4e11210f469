package config

// Config groups configuration of all cache subsystems.
// Each component can be configured independently or disabled by setting it to nil.
type Config struct {
	// Store configures the structured record store: quota, sweep cadence
	// and score-based eviction.
	// If nil, the record store is disabled (network-only operation).
	Store *StoreCfg `yaml:"store"`

	// TTL configures the lifetime classes assigned to cached records.
	// If nil, built-in defaults are used.
	TTL *TTLCfg `yaml:"ttl"`

	// Market configures market-session determination and the per-session
	// TTL multipliers. If nil, record TTLs are used unscaled.
	Market *MarketCfg `yaml:"market"`

	// Compression configures on-the-fly compression of oversized payloads.
	// If nil, compression is disabled.
	Compression *CompressionCfg `yaml:"compression"`

	// HTTP configures the conditional-request cache.
	// If nil, every fetch is a full network round trip.
	HTTP *HTTPCfg `yaml:"http"`

	// Provider configures the coordinator cache plugged into the
	// revalidation layer, including cross-context sync and persistence.
	// If nil, the provider is memory-only with defaults.
	Provider *ProviderCfg `yaml:"provider"`

	// Feed configures strategy selection and the retry policy of the
	// orchestration layer.
	Feed *FeedCfg `yaml:"feed"`

	// Telemetry configures periodic metrics logging.
	// If nil, telemetry logging is disabled; counters are still collected.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}
