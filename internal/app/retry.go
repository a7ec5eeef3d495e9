package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// Growth selects how the wait between attempts increases.
type Growth int

const (
	// GrowthLinear adds the initial delay each attempt. Used for the
	// DNS stage where failures are usually short resolver hiccups.
	GrowthLinear Growth = iota

	// GrowthExponential doubles the delay each attempt. Used for the
	// API stage where backing off hard protects provider quotas.
	GrowthExponential
)

// Default retry configuration values.
const (
	DefaultDNSRetries     = 3
	DefaultAPIRetries     = 3
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff produces the wait durations for one candidate's retry loop.
// Not safe for concurrent use; each worker call site owns its own.
type backoff struct {
	initial time.Duration
	max     time.Duration
	growth  Growth
	current time.Duration
}

func newBackoff(initial, max time.Duration, growth Growth) *backoff {
	return &backoff{initial: initial, max: max, growth: growth, current: initial}
}

// Next returns the wait before the following attempt and advances the
// schedule. Jitter of up to ±20% prevents worker lockstep.
func (b *backoff) Next() time.Duration {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	wait := time.Duration(float64(b.current) + jitter)

	switch b.growth {
	case GrowthLinear:
		b.current += b.initial
	case GrowthExponential:
		b.current *= 2
	}
	if b.current > b.max {
		b.current = b.max
	}
	return wait
}

func (b *backoff) Reset() {
	b.current = b.initial
}

// retryPolicy bundles the attempt budget with the backoff shape.
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
	growth   Growth
}

// do runs fn up to the attempt budget, waiting between attempts.
// Only transient errors are retried: permanent errors, context
// cancellation and success all return immediately. The last error is
// returned when the budget runs out.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	b := newBackoff(p.initial, p.max, p.growth)
	var err error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return err
		}
		if attempt == p.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Next()):
		}
	}
	return err
}
