package config

import "time"

// TTLCfg defines the base lifetime classes assigned to cached records.
// Which class a record falls into is decided at write time from its
// content (breaking / high market impact -> Breaking, AI-enhanced ->
// AIEnhanced, user preferences -> UserPref, everything else -> Regular).
// The base duration is then scaled by the current market-session
// multiplier from MarketCfg.
type TTLCfg struct {
	// Breaking is the shortest class, for breaking news and records with
	// high market impact. Example: "15m".
	Breaking time.Duration `yaml:"breaking"`

	// AIEnhanced is the longest news class; AI enhancement is expensive to
	// recompute, so enhanced records are kept around longer. Example: "6h".
	AIEnhanced time.Duration `yaml:"ai_enhanced"`

	// Regular is the default news class. Example: "1h".
	Regular time.Duration `yaml:"regular"`

	// UserPref is the class for user-preference records, long-lived since
	// they only change on explicit user action. Example: "24h".
	UserPref time.Duration `yaml:"user_pref"`
}

func (cfg *TTLCfg) Enabled() bool {
	return cfg != nil
}

// MarketCfg configures market-session determination. The exchange
// timezone and open/close window are fixed at configuration time;
// session state is derived from the wall clock Monday through Friday.
type MarketCfg struct {
	// Timezone is the IANA name of the exchange timezone.
	// Example: "America/New_York".
	Timezone string `yaml:"timezone"`

	// OpenMinute/CloseMinute bound the regular trading session, expressed
	// as minutes after midnight exchange time. Example: 570 (09:30) and
	// 960 (16:00).
	OpenMinute  int `yaml:"open_minute"`
	CloseMinute int `yaml:"close_minute"`

	// PreMinute/PostMinute bound the extended session around regular
	// hours. Example: 240 (04:00) and 1200 (20:00).
	PreMinute  int `yaml:"pre_minute"`
	PostMinute int `yaml:"post_minute"`

	// Multipliers scale record TTLs per session state. During open hours
	// data goes stale fast; on weekends much slower.
	OpenMultiplier       float64 `yaml:"open_multiplier"`
	AfterHoursMultiplier float64 `yaml:"after_hours_multiplier"`
	ClosedMultiplier     float64 `yaml:"closed_multiplier"`
	WeekendMultiplier    float64 `yaml:"weekend_multiplier"`
}

func (cfg *MarketCfg) Enabled() bool {
	return cfg != nil
}
