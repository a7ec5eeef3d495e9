// Package registrar implements the provider adapters: one concrete
// type per registrar API, each exposing only the single availability
// capability to the pipeline. Wire formats differ (Porkbun and Dynadot
// speak JSON over HTTPS, Loopia speaks XML-RPC) but every failure
// leaves an adapter already classified as transient or permanent.
package registrar

import (
	"fmt"
	"net/http"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// Config is the static per-provider configuration, immutable for the
// lifetime of a run.
type Config struct {
	// Endpoint overrides the provider's default API URL. Tests point
	// this at an httptest server.
	Endpoint string

	// APIKey and APISecret authenticate HTTP providers. Loopia uses
	// Username and Password instead.
	APIKey    string
	APISecret string
	Username  string
	Password  string

	// Active providers join the confirm stage's rotation. Inactive
	// providers are never constructed, so no call is ever issued.
	Active bool
}

// classifyHTTPStatus maps response codes that did not carry a usable
// body onto the error taxonomy.
func classifyHTTPStatus(provider string, code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.Permanent(fmt.Errorf("%s: http %d", provider, code))
	case code == http.StatusTooManyRequests:
		return domain.Transient(fmt.Errorf("%s: http %d: %w", provider, code, domain.ErrRateLimited))
	case code >= 500:
		return domain.Transient(fmt.Errorf("%s: http %d", provider, code))
	default:
		return domain.Permanent(fmt.Errorf("%s: unexpected http %d", provider, code))
	}
}
