package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the public API; check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running finder.
	ErrAlreadyRunning = errors.New("domainfinder: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped finder.
	ErrNotRunning = errors.New("domainfinder: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("domainfinder: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("domainfinder: invalid configuration")

	// ErrRateLimited is returned when a rate limiter token could not be
	// acquired before the acquire timeout. Always transient.
	ErrRateLimited = errors.New("domainfinder: rate limited")

	// ErrProviderFailed is returned for calls routed to a provider that
	// was disabled for the run after a permanent error.
	ErrProviderFailed = errors.New("domainfinder: provider failed for this run")

	// ErrStoreWrite wraps result store I/O failures. Fatal for the run:
	// correctness of resume depends on durable dedup.
	ErrStoreWrite = errors.New("domainfinder: store write failure")
)

// TransientError marks a failure worth retrying with backoff: timeouts,
// connection resets, provider rate limits. Classification happens at
// the prober/provider boundary so the stages only ever see the closed
// taxonomy.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// PermanentError marks a failure that retrying cannot fix: bad
// credentials, malformed requests, local validation.
type PermanentError struct {
	Cause error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Cause)
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// Transient wraps err as a TransientError. Returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Cause: err}
}

// Permanent wraps err as a PermanentError. Returns nil for nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Cause: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
