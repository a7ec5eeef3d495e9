package finder

import (
	"context"
	"net/http"

	"github.com/jnMetaCode/available-domains/internal/ports"
	"github.com/jnMetaCode/available-domains/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober classifies one fully qualified name by DNS. Implementations
// replace the built-in resolver probe, mainly in tests.
type Prober interface {
	Probe(ctx context.Context, fqdn string) (Status, error)
}

// Provider confirms availability against one registrar API.
type Provider interface {
	Name() string
	CheckAvailability(ctx context.Context, fqdn string) (available bool, note string, err error)
}

// Option configures optional behavior of a Finder.
type Option func(*options)

// options holds the optional configuration for a Finder instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	prober       Prober
	providers    []Provider
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client for registrar calls.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithEventHandler sets a handler for finder events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithProber replaces the built-in DNS probe.
func WithProber(p Prober) Option {
	return func(o *options) {
		o.prober = p
	}
}

// WithProviders replaces the providers built from Config.Providers.
func WithProviders(providers ...Provider) Option {
	return func(o *options) {
		o.providers = providers
	}
}
