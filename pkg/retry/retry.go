// Package retry provides the bounded exponential backoff policy shared by
// every read against the metadata service and by the site registration
// client. The heartbeat loop deliberately does not use it; that loop has its
// own unbounded fixed-delay policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes a bounded doubling backoff: no delay before the first
// attempt, then BaseDelay, 2x, 4x, ... between attempts, for MaxAttempts
// attempts in total.
type Policy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

// DefaultPolicy matches the metadata service contract: five attempts with
// delays of 1s, 2s, 4s and 8s between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: time.Second}
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.BaseDelay * time.Duration(1<<p.MaxAttempts)
	return b
}

// Do runs op under the policy and returns its last result. Every error from
// op is retryable; op itself decides what to surface. The context bounds the
// whole sequence including the sleeps.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.MaxAttempts),
	)
}
