package help

import (
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
)

func Cfg() *config.Config {
	c := &config.Config{
		Store: &config.StoreCfg{
			QuotaBytes:           10 * 1024 * 1024,
			HighWaterCoefficient: 0.9,
			SweepInterval:        time.Minute * 5,
			Eviction:             &config.EvictionCfg{},
		},
		TTL: &config.TTLCfg{
			Breaking:   time.Minute * 15,
			AIEnhanced: time.Hour * 6,
			Regular:    time.Hour,
			UserPref:   time.Hour * 24,
		},
		Market: &config.MarketCfg{
			Timezone:             "America/New_York",
			OpenMinute:           570,
			CloseMinute:          960,
			PreMinute:            240,
			PostMinute:           1200,
			OpenMultiplier:       0.5,
			AfterHoursMultiplier: 2,
			ClosedMultiplier:     4,
			WeekendMultiplier:    8,
		},
		Compression: &config.CompressionCfg{
			ThresholdBytes: 1024,
			MinGain:        0.2,
		},
		HTTP: &config.HTTPCfg{
			MaxEntries:     50,
			RequestTimeout: time.Second * 3,
		},
		Provider: &config.ProviderCfg{
			MaxPersisted: 100,
			Debounce:     time.Second,
			DefaultTTL:   time.Minute * 5,
			TTLRules: []config.TTLRuleCfg{
				{Pattern: `^market:`, TTL: time.Second * 30},
				{Pattern: `^ai:`, TTL: time.Hour * 24},
				{Pattern: `^user:`, TTL: time.Hour * 24 * 7},
			},
			CriticalPatterns: []string{`^user:`, `^ai:`, `^bookmarks:`},
		},
		Feed: &config.FeedCfg{
			NetworkTimeout: time.Second * 3,
			Strategies: map[string]config.Strategy{
				"breaking": config.StrategyNetworkFirst,
				"markets":  config.StrategyCacheFirst,
				"live":     config.StrategyNetworkOnly,
			},
			DefaultStrategy: config.StrategyStaleWhileRevalidate,
			Retry: &config.RetryCfg{
				MaxAttempts: 3,
				BaseDelay:   time.Millisecond * 5,
				MaxDelay:    time.Millisecond * 50,
			},
		},
		Telemetry: &config.TelemetryCfg{
			IsLogsEnabled: true,
			LogsInterval:  time.Second * 5,
		},
	}
	if err := c.AdjustConfig(); err != nil {
		panic(err)
	}
	return c
}

func OfflineFirstCfg() *config.Config {
	c := Cfg()
	c.Feed.Retry = nil
	c.Telemetry = nil
	return c
}
