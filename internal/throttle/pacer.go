// Package throttle provides the two timing primitives used against remote
// services: a Pacer enforcing a minimum spacing between consecutive requests
// and a Poller repeating a status check until it reports a terminal state.
package throttle

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next request may be issued
type Pacer interface {
	Wait(ctx context.Context) error
}

// RateLimiter is a Pacer backed by a token bucket with a burst of one, so
// consecutive Wait calls return at least interval apart. The first call
// never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimiter creates a pacer spacing requests by interval.
// A non-positive interval disables pacing.
func NewRateLimiter(interval time.Duration, logger *slog.Logger) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Wait blocks until the spacing since the previous request has elapsed
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		rl.logger.DebugContext(ctx, "pacer wait aborted", "error", err)
		return err
	}
	return nil
}

// Unpaced is a Pacer that never blocks
type Unpaced struct{}

// Wait returns immediately unless ctx is already done
func (Unpaced) Wait(ctx context.Context) error {
	return ctx.Err()
}
