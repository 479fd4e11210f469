// Package market derives the trading-session state used to scale cache
// freshness: data cached while the market is open goes stale much faster
// than data cached over a weekend.
package market

import (
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/platform"
)

type State string

const (
	Open       State = "open"
	AfterHours State = "after_hours"
	Closed     State = "closed"
	Weekend    State = "weekend"
)

// Sessions resolves market-session state against a fixed exchange
// timezone and scales TTLs by the per-session multiplier.
type Sessions struct {
	cfg   *config.MarketCfg
	clock platform.Clock
	loc   *time.Location
}

func New(cfg *config.MarketCfg, clk platform.Clock) *Sessions {
	s := &Sessions{cfg: cfg, clock: clk, loc: time.UTC}
	if cfg.Enabled() && cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			s.loc = loc
		}
	}
	return s
}

// State returns the current session state in exchange time.
func (s *Sessions) State() State {
	if !s.cfg.Enabled() {
		return Closed
	}

	now := s.clock.Now().In(s.loc)
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	}

	minute := now.Hour()*60 + now.Minute()
	switch {
	case minute >= s.cfg.OpenMinute && minute < s.cfg.CloseMinute:
		return Open
	case minute >= s.cfg.PreMinute && minute < s.cfg.OpenMinute,
		minute >= s.cfg.CloseMinute && minute < s.cfg.PostMinute:
		return AfterHours
	default:
		return Closed
	}
}

// Multiplier returns the TTL scale factor for the current session.
func (s *Sessions) Multiplier() float64 {
	if !s.cfg.Enabled() {
		return 1
	}

	var m float64
	switch s.State() {
	case Open:
		m = s.cfg.OpenMultiplier
	case AfterHours:
		m = s.cfg.AfterHoursMultiplier
	case Weekend:
		m = s.cfg.WeekendMultiplier
	default:
		m = s.cfg.ClosedMultiplier
	}
	if m <= 0 {
		return 1
	}
	return m
}

// Scale applies the current session multiplier to a base TTL.
func (s *Sessions) Scale(base time.Duration) time.Duration {
	return time.Duration(float64(base) * s.Multiplier())
}
