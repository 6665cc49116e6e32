package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/olprint/storefront/core"
)

// Retry executes fn with exponential backoff between attempts.
// The interval grows by the configured multiplier up to MaxInterval, with
// a small deterministic jitter to avoid synchronized retries. Context
// cancellation is honored both before each attempt and during the backoff
// sleep.
func Retry(ctx context.Context, cfg core.RetryConfig, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}

	var lastErr error
	delay := cfg.InitialInterval

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxInterval {
				delay = cfg.MaxInterval
			}
		}

		// Jitter to mitigate thundering herd across clients
		jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
		sleep := delay + jitter

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded for %v: %w", cfg.MaxAttempts, lastErr, core.ErrMaxRetriesExceeded)
}

// RetryWithCircuitBreaker combines retry logic with circuit breaker state
func RetryWithCircuitBreaker(ctx context.Context, cfg core.RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, cfg, func() error {
		if !cb.CanExecute() {
			return core.ErrCircuitBreakerOpen
		}

		err := fn()
		if err != nil {
			cb.RecordFailure()
			return err
		}

		cb.RecordSuccess()
		return nil
	})
}

// Poll repeatedly invokes check until it reports done, the attempt bound is
// reached, or the context is cancelled. The wait between checks backs off
// exponentially from cfg.InitialInterval up to cfg.MaxInterval. Used for
// long-running remote operations such as video generation jobs.
func Poll(ctx context.Context, cfg core.RetryConfig, check func() (done bool, err error)) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}

	delay := cfg.InitialInterval

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxInterval {
			delay = cfg.MaxInterval
		}
	}

	return fmt.Errorf("operation not done after %d checks: %w", cfg.MaxAttempts, core.ErrTimeout)
}
