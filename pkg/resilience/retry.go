// Package resilience provides the small fault-tolerance helpers the
// binaries use when dialing backing stores at startup: retry with
// exponential backoff and a bounded-time call wrapper.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Policy controls retry behaviour. Zero fields take sensible defaults.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.Jitter <= 0 {
		p.Jitter = 0.1
	}
	return p
}

// Retry runs fn until it succeeds, the policy's attempts are exhausted, or
// ctx is cancelled. The delay between attempts grows by the policy
// multiplier, capped at MaxDelay, with a random jitter fraction applied.
func Retry(ctx context.Context, op string, p Policy, fn func() error) error {
	p = p.normalized()
	log := slog.Default().With("component", "retry", "operation", op)

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("recovered", "attempt", attempt)
			}
			return nil
		}
		if attempt >= p.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", op, p.MaxAttempts, lastErr)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s aborted: %w", op, err)
		}

		wait := jittered(delay, p.Jitter)
		log.Warn("attempt failed",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"error", lastErr,
			"backoff", wait,
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s aborted during backoff: %w", op, ctx.Err())
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

// jittered spreads a delay by up to +/- frac of its value.
func jittered(d time.Duration, frac float64) time.Duration {
	spread := float64(d) * frac
	out := float64(d) + (2*rand.Float64()-1)*spread
	if out < 0 {
		return d
	}
	return time.Duration(out)
}
