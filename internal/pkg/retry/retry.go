// Package retry wraps individual durable-store calls with exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
)

// Policy bounds how often and how long a call is retried
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsed      time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2,
		MaxElapsed:      10 * time.Second,
	}
}

// Retrier runs operations under a Policy
type Retrier struct {
	policy    Policy
	retryable func(error) bool
	logger    *logrus.Logger
}

// New creates a retrier from configuration
func New(cfg *config.Config, logger *logrus.Logger) *Retrier {
	p := DefaultPolicy()
	if cfg != nil {
		p = Policy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			Multiplier:      cfg.Retry.Multiplier,
			MaxElapsed:      cfg.Retry.MaxElapsed,
		}
	}
	return NewWithPolicy(p, logger)
}

// NewWithPolicy creates a retrier with an explicit policy
func NewWithPolicy(p Policy, logger *logrus.Logger) *Retrier {
	return &Retrier{
		policy:    p,
		retryable: storeerr.Retryable,
		logger:    logger,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	return backoff.RetryNotify(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.backOff(ctx), r.notify)
}

// Value is Do for operations that return a result
func Value[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		exp.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		exp.MaxInterval = r.policy.MaxInterval
	}
	if r.policy.Multiplier > 1 {
		exp.Multiplier = r.policy.Multiplier
	}
	exp.MaxElapsedTime = r.policy.MaxElapsed
	exp.Reset()

	var b backoff.BackOff = exp
	if r.policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

func (r *Retrier) notify(err error, wait time.Duration) {
	if r.logger == nil {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"error":    err.Error(),
		"category": storeerr.Classify(err),
		"wait":     wait.String(),
	}).Debug("Retrying durable store call")
}
