// SPDX-License-Identifier: MIT

// Package retry runs short operations with exponential backoff. It is
// used for player lookups after a navigation settles, where the video
// element mounts some unknown number of milliseconds later.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/seekmark/seekmark/internal/clock"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts  int
	InitialDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	MaxDelay   time.Duration
}

// DefaultPolicy waits 250ms, 500ms, 1s, 2s between its five attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     2 * time.Second,
	}
}

// Do calls fn until it succeeds, attempts run out, or ctx is cancelled.
// The delay before attempt n+1 is InitialDelay * Multiplier^(n-1),
// capped at MaxDelay.
func Do(ctx context.Context, clk clock.Clock, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := clk.NewTimer(delay)
			select {
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}
