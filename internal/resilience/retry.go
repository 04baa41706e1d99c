package resilience

import (
	"context"
	"errors"
	"time"
)

// Guard runs dependency calls through a breaker with bounded retries.
type Guard struct {
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	// Retryable decides whether an error counts as a dependency failure worth retrying.
	// Errors it rejects are returned immediately and do not trip the breaker.
	Retryable func(error) bool
}

// Call invokes fn through g. A nil guard calls fn directly.
func Call[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		return fn(ctx)
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	base := g.BaseBackoff
	if base <= 0 {
		base = 50 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if !g.Breaker.Allow(ctx) {
			return zero, ErrOpenCircuit
		}
		v, err := fn(ctx)
		if err == nil {
			g.Breaker.Report(ctx, true)
			return v, nil
		}
		if !g.retryable(err) {
			// the dependency answered; the error belongs to the caller
			g.Breaker.Report(ctx, true)
			return zero, err
		}
		g.Breaker.Report(ctx, false)
		lastErr = err
		if attempt == attempts {
			break
		}
		if g.Breaker != nil {
			RetriesTotal.WithLabelValues(g.Breaker.cfg.Dependency).Inc()
		}
		timer := time.NewTimer(Backoff(base, attempt, g.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (g *Guard) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if g.Retryable == nil {
		return true
	}
	return g.Retryable(err)
}
