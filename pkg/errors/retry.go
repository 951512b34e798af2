package errors

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         bool
	RetryableError func(error) bool
	// Notify is called before each wait with the failed attempt's error.
	Notify func(err error, next time.Duration)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableError: func(err error) bool {
			if IsRecoverable(err) {
				return true
			}

			switch GetErrorCode(err) {
			case ErrCodeConnectionFailed,
				ErrCodeConnectionTimeout,
				ErrCodeTimeout:
				return true
			default:
				return false
			}
		},
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) error

// NewBackOff builds the exponential policy described by the config.
func (c *RetryConfig) NewBackOff() backoff.BackOff {
	randomization := 0.0
	if c.Jitter {
		randomization = 0.3
	}
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	eb := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.InitialDelay),
		backoff.WithMaxInterval(c.MaxDelay),
		backoff.WithMultiplier(multiplier),
		backoff.WithRandomizationFactor(randomization),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithMaxRetries(eb, uint64(c.MaxRetries))
}

// Retry executes fn until it succeeds, returns a non-retryable error, the
// retry budget is spent, or ctx is done.
func Retry(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	attempts := 0
	var lastErr error
	op := func() error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if config.RetryableError != nil && !config.RetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if config.Notify != nil {
			config.Notify(err, next)
		}
	}

	err := backoff.RetryNotify(op, backoff.WithContext(config.NewBackOff(), ctx), notify)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Non-retryable errors come back unwrapped by backoff.
	if config.RetryableError != nil && !config.RetryableError(err) {
		return err
	}

	return Wrap(lastErr, ErrCodeMaxRetriesExceeded,
		fmt.Sprintf("Operation failed after %d attempts", attempts))
}

// RetryWithBackoff is a convenience function for common retry scenarios
func RetryWithBackoff(ctx context.Context, fn RetryableFunc) error {
	return Retry(ctx, DefaultRetryConfig(), fn)
}
