package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

func (cfg *Config) AdjustConfig() error {
	if cfg.Store.Enabled() {
		if cfg.Store.HighWaterCoefficient <= 0 {
			cfg.Store.HighWaterCoefficient = defaultHighWaterCoefficient
		}
		cfg.Store.HighWaterBytes = int64(float64(cfg.Store.QuotaBytes) * cfg.Store.HighWaterCoefficient)

		if cfg.Store.Eviction.Enabled() {
			cfg.Store.Eviction.applyDefaults()
		}
	}

	if cfg.Provider.Enabled() {
		for i := range cfg.Provider.TTLRules {
			re, err := regexp.Compile(cfg.Provider.TTLRules[i].Pattern)
			if err != nil {
				return fmt.Errorf("compile provider ttl pattern %q: %w", cfg.Provider.TTLRules[i].Pattern, err)
			}
			cfg.Provider.TTLRules[i].Regexp = re
		}
		for _, p := range cfg.Provider.CriticalPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("compile provider critical pattern %q: %w", p, err)
			}
			cfg.Provider.criticalRegexps = append(cfg.Provider.criticalRegexps, re)
		}
	}

	return nil
}

func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if err = cfg.AdjustConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}
