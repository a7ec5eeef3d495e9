package ports

import "context"

// Provider is the single capability the pipeline needs from a
// registrar: an authoritative availability answer for one domain.
//
// Each implementation encapsulates its own request construction (JSON
// or XML body), authentication and response parsing. Failures must be
// classified before they leave the adapter: domain.TransientError for
// timeouts, 429s and handshake failures, domain.PermanentError for
// auth and request construction errors. The confirm stage never sees
// raw network errors.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// CheckAvailability reports whether the domain can be registered.
	// The note carries pricing or provider detail and may be empty.
	CheckAvailability(ctx context.Context, fqdn string) (available bool, note string, err error)
}
