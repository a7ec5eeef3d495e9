// Package ratelimit caps the outbound request rate per downstream
// target: the DNS resolver and each registrar provider get their own
// token bucket. Buckets are the only cross-worker mutable state
// besides the result store; both synchronize internally.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// Limiter is a token bucket for one target. Acquire blocks until a
// token is available or the acquire timeout elapses, in which case the
// caller sees a transient domain.ErrRateLimited. Waiters are served in
// FIFO order, so concurrent workers queue fairly.
type Limiter struct {
	lim     *rate.Limiter
	timeout time.Duration
}

// New creates a limiter that refills one token per interval with the
// given burst capacity. A non-positive interval means unlimited.
// timeout bounds how long Acquire may block; zero means wait forever
// (until ctx is done).
func New(interval time.Duration, burst int, timeout time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		lim:     rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// Acquire takes one token, blocking until one is available. Returns a
// transient error wrapping domain.ErrRateLimited when the acquire
// timeout elapses first, or ctx.Err() when the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	err := l.lim.Wait(waitCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// With a timeout set, Wait fails fast once it can tell the token
	// cannot arrive before the deadline. The caller's context is still
	// live here, so any failure means the acquire window elapsed.
	if l.timeout > 0 {
		return domain.Transient(domain.ErrRateLimited)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Transient(domain.ErrRateLimited)
	}
	return domain.Transient(err)
}

// Allow takes a token without blocking, reporting whether one was
// available. Used by tests to observe bucket accounting.
func (l *Limiter) Allow() bool { return l.lim.Allow() }

// Registry holds one limiter per target name.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Set installs the limiter for a target, replacing any existing one.
func (r *Registry) Set(target string, l *Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[target] = l
}

// Get returns the limiter for a target. Targets without a configured
// limiter get an unlimited one, installed on first use.
func (r *Registry) Get(target string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[target]
	if !ok {
		l = New(0, 1, 0)
		r.limiters[target] = l
	}
	return l
}
