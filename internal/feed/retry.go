package feed

import (
	"context"
	"errors"
	"time"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/fintide/go-hybrid-cache/internal/httpcache"
	"github.com/fintide/go-hybrid-cache/internal/platform"
	"github.com/fintide/go-hybrid-cache/internal/shared/random"
)

// retryable reports whether a failed network attempt is worth repeating:
// never while offline, never on 4xx-class upstream failures, never once
// the caller's context is gone.
func retryable(err error, conn platform.Connectivity) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpcache.StatusError
	if errors.As(err, &statusErr) && statusErr.ClientFault() {
		return false
	}
	if conn != nil && !conn.Online() {
		return false
	}
	return true
}

// backoffDelay computes the capped exponential delay for an attempt
// (0-based), with jitter in [0.5, 1.0) of the nominal delay to avoid
// synchronized retries.
func backoffDelay(cfg *config.RetryCfg, attempt int) time.Duration {
	base := cfg.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	d := base << attempt
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return time.Duration(float64(d) * (0.5 + 0.5*random.Float64()))
}

// withRetry runs fn under the configured retry policy.
func (f *Feed) withRetry(ctx context.Context, fn func(context.Context) error) error {
	attempts := 1
	if f.cfg.Enabled() && f.cfg.Retry.Enabled() && f.cfg.Retry.MaxAttempts > 0 {
		attempts = f.cfg.Retry.MaxAttempts
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := f.clock.Timer(backoffDelay(f.cfg.Retry, attempt-1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err, f.conn) {
			return err
		}
	}
	return err
}
