package config

import "time"

const defaultHighWaterCoefficient = 0.90

type StoreCfg struct {
	// QuotaBytes is the storage quota the record store must stay under.
	// When the platform exposes its own quota estimation, the estimated
	// quota takes precedence and QuotaBytes acts as the manual fallback.
	QuotaBytes int64 `yaml:"quota"`

	// HighWaterCoefficient defines the usage threshold as a fraction of the
	// quota at which eviction starts.
	//
	// Example:
	//   HighWaterCoefficient: 0.90 // start evicting after reaching 90% of quota
	HighWaterCoefficient float64 `yaml:"high_water_coefficient"`

	// HighWaterBytes is derived during initialization from QuotaBytes and
	// HighWaterCoefficient. It is not read from YAML.
	HighWaterBytes int64 // virtual: computed during init (bytes)

	// SweepInterval defines how often the background sweep removes records
	// past their TTL. Expiry is additionally enforced lazily on every read,
	// so the sweep is housekeeping, not a correctness requirement.
	// Example: "5m".
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SweepRate limits how many sweep scan cycles run per second when a
	// sweep is in progress. Increasing it makes sweeps finish faster at the
	// cost of CPU.
	SweepRate int `yaml:"sweep_rate"`

	// Eviction configures score-based eviction under quota pressure.
	// If nil, eviction is disabled and the store may exceed its quota
	// (not recommended).
	Eviction *EvictionCfg `yaml:"eviction"`
}

func (cfg *StoreCfg) Enabled() bool {
	return cfg != nil
}

// EvictionCfg configures the scoring policy used to pick eviction victims
// under quota pressure. The weights are policy parameters, not constants:
// the defaults favor frequently read, bookmarked, high-impact and
// AI-enhanced records over large stale ones.
type EvictionCfg struct {
	// MinEvict is the lower bound on records removed per eviction run.
	MinEvict int `yaml:"min_evict"`

	// Fraction is the share of total records removed per eviction run.
	// The effective batch is max(MinEvict, Fraction * total).
	Fraction float64 `yaml:"fraction"`

	// AccessWeight multiplies the record's access count.
	AccessWeight float64 `yaml:"access_weight"`

	// AgeDivisor divides the record age (seconds) before subtraction.
	AgeDivisor float64 `yaml:"age_divisor"`

	// SizeDivisor divides the record size (bytes) before subtraction.
	SizeDivisor float64 `yaml:"size_divisor"`

	// BookmarkBonus is added to bookmarked records.
	BookmarkBonus float64 `yaml:"bookmark_bonus"`

	// HighImpactBonus is added to records with high market impact.
	HighImpactBonus float64 `yaml:"high_impact_bonus"`

	// SentimentBonus is added to records with a non-neutral sentiment.
	SentimentBonus float64 `yaml:"sentiment_bonus"`

	// AIEnhancedBonus is added to AI-enhanced records.
	AIEnhancedBonus float64 `yaml:"ai_enhanced_bonus"`
}

func (cfg *EvictionCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *EvictionCfg) applyDefaults() {
	if cfg.MinEvict <= 0 {
		cfg.MinEvict = 10
	}
	if cfg.Fraction <= 0 {
		cfg.Fraction = 0.2
	}
	if cfg.AccessWeight == 0 {
		cfg.AccessWeight = 100
	}
	if cfg.AgeDivisor == 0 {
		cfg.AgeDivisor = 10
	}
	if cfg.SizeDivisor == 0 {
		cfg.SizeDivisor = 10000
	}
	if cfg.BookmarkBonus == 0 {
		cfg.BookmarkBonus = 1000
	}
	if cfg.HighImpactBonus == 0 {
		cfg.HighImpactBonus = 500
	}
	if cfg.SentimentBonus == 0 {
		cfg.SentimentBonus = 200
	}
	if cfg.AIEnhancedBonus == 0 {
		cfg.AIEnhancedBonus = 300
	}
}
