package invoke

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is the retry schedule applied at every external call boundary:
// model invocations and the rendering collaborator. Delays grow as
// BaseDelay × 2^attempt, randomized by Jitter, capped at MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// Execute runs op under the policy, sleeping between attempts per the
// exponential schedule. op signals a non-retryable failure by returning
// backoff.Permanent(err); any other error is retried until MaxAttempts is
// reached or ctx ends. notify, when non-nil, observes each failure and the
// delay before the next attempt.
func (p Policy) Execute(ctx context.Context, op func() error, notify func(err error, delay time.Duration)) error {
	b := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		b.InitialInterval = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	b.Multiplier = 2
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := uint64(0)
	if p.MaxAttempts > 1 {
		attempts = uint64(p.MaxAttempts - 1)
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx)
	if notify == nil {
		return backoff.Retry(op, schedule)
	}
	return backoff.RetryNotify(op, schedule, backoff.Notify(notify))
}

// Permanent marks err as non-retryable for Execute.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
