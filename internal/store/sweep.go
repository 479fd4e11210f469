package store

import (
	"time"

	"github.com/fintide/go-hybrid-cache/internal/shared/rate"
)

const defaultSweepInterval = 5 * time.Minute

// runSweeper starts the background expiry sweep. The sweep is best-effort
// housekeeping: lazy per-read expiry stays authoritative, so a slow or
// missed sweep never serves stale data.
func (s *Store) runSweeper() {
	if !s.cfg.Store.Enabled() {
		return
	}

	interval := s.cfg.Store.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	var jitter *rate.Jitter
	if s.cfg.Store.SweepRate > 0 {
		jitter = rate.NewJitter(s.ctx, s.cfg.Store.SweepRate)
	}

	s.logger.Info("sweeper is running", "interval", interval.String(), "rate", s.cfg.Store.SweepRate)

	go func() {
		defer s.logger.Info("sweeper is stopped")

		ticker := s.clock.Ticker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if jitter != nil {
					jitter.Take()
				}
				s.counters.sweeps.Add(1)
				if removed := s.ClearExpired(); removed > 0 {
					s.logger.Info("expiry sweep", "removed", removed)
				}
				s.saveSnapshot()
			}
		}
	}()
}
