package store

import (
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/market"
)

const (
	defaultBreakingTTL   = 15 * time.Minute
	defaultAIEnhancedTTL = 6 * time.Hour
	defaultRegularTTL    = time.Hour
	defaultUserPrefTTL   = 24 * time.Hour
)

// userPrefCategory marks records holding user preferences rather than
// news; they only change on explicit user action.
const userPrefCategory = "user-preferences"

// determineTTL assigns the lifetime class for a record and scales it by
// the current market-session multiplier: breaking or high-impact records
// get the shortest class, user-preference records the longest one,
// AI-enhanced records the longest news class, everything else the
// regular default.
func determineTTL(rec *Record, cfg *config.TTLCfg, sessions *market.Sessions) time.Duration {
	var base time.Duration
	switch {
	case rec.Breaking || rec.MarketImpact == ImpactHigh:
		base = defaultBreakingTTL
		if cfg.Enabled() && cfg.Breaking > 0 {
			base = cfg.Breaking
		}
	case rec.SourceCategory == userPrefCategory:
		base = defaultUserPrefTTL
		if cfg.Enabled() && cfg.UserPref > 0 {
			base = cfg.UserPref
		}
	case rec.AIEnhanced:
		base = defaultAIEnhancedTTL
		if cfg.Enabled() && cfg.AIEnhanced > 0 {
			base = cfg.AIEnhanced
		}
	default:
		base = defaultRegularTTL
		if cfg.Enabled() && cfg.Regular > 0 {
			base = cfg.Regular
		}
	}
	return sessions.Scale(base)
}
