package steamapis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "steamapis_retries_total",
		Help: "Total number of retry attempts against SteamApis",
	})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "steamapis_retry_backoff_seconds",
		Help:    "Backoff duration between retry attempts",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "steamapis_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the backoff before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ErrContextCancelled is returned when the context is cancelled during a
// retry backoff wait.
var ErrContextCancelled = fmt.Errorf("context cancelled")

// retryWithBackoff executes fn with exponential backoff retry logic.
// fn reports whether its error is worth another attempt; non-retryable
// errors are returned immediately. The wait adds jitter and respects
// context cancellation.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, config RetryConfig, fn func() (retryable bool, err error)) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		retryable, err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !retryable {
			return lastErr
		}

		if attempt >= config.MaxAttempts {
			break
		}

		retriesTotal.Inc()

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.Observe(jitter.Seconds())

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	// All retries exhausted
	retryExhaustedTotal.Inc()
	logger.Warn().
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return lastErr
}
