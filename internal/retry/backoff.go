// Package retry holds the backoff schedule shared by queue producers and
// consumers. LLM backend calls are never retried.
package retry

import (
	"context"
	"time"
)

// MaxBackoff caps the delay returned by ExponentialBackoff.
const MaxBackoff = time.Minute

// ExponentialBackoff returns base * 2^attempt, capped at MaxBackoff.
// Negative attempts count as zero.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	attempt = max(attempt, 0)
	if attempt > 30 {
		return MaxBackoff
	}
	return min(base<<attempt, MaxBackoff)
}

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	Attempts int
	Base     time.Duration
}

// Do runs fn until it succeeds, the attempts are used up, or ctx ends. It
// returns fn's last error, or ctx.Err() when interrupted while waiting.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for attempt := range attempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(ExponentialBackoff(attempt, p.Base))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
