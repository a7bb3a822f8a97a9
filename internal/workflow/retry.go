package workflow

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/solarops/bua/internal/config"
)

// RetryPolicy executes activities with exponential backoff. Attempts are
// bounded, intervals grow by the configured coefficient up to a cap, and
// failures whose kind is listed as non-retryable stop immediately.
type RetryPolicy struct {
	cfg          config.RetryConfig
	nonRetryable map[string]bool
	logger       *zap.Logger
}

// NewRetryPolicy builds a policy from validated configuration.
func NewRetryPolicy(cfg config.RetryConfig, logger *zap.Logger) *RetryPolicy {
	nonRetryable := make(map[string]bool, len(cfg.NonRetryableErrors))
	for _, kind := range cfg.NonRetryableErrors {
		nonRetryable[kind] = true
	}
	return &RetryPolicy{
		cfg:          cfg,
		nonRetryable: nonRetryable,
		logger:       logger.Named("retry"),
	}
}

// Run executes the operation under the policy. The returned error is the
// last attempt's failure.
func (p *RetryPolicy) Run(ctx context.Context, name string, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval
	b.Multiplier = p.cfg.BackoffCoefficient
	b.MaxInterval = p.cfg.MaximumInterval
	b.MaxElapsedTime = 0 // Bounded by attempts, not wall clock.
	b.RandomizationFactor = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if kind := KindOf(err); p.nonRetryable[kind] {
			p.logger.Warn("Activity failed with non-retryable error.",
				zap.String("activity", name),
				zap.String("kind", kind),
				zap.Error(err))
			return backoff.Permanent(err)
		}
		p.logger.Warn("Activity failed, may retry.",
			zap.String("activity", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}

	maxRetries := uint64(p.cfg.MaximumAttempts - 1)
	return backoff.Retry(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}
