package registrar

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kolo/xmlrpc"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// DefaultLoopiaEndpoint is Loopia's XML-RPC service.
const DefaultLoopiaEndpoint = "https://api.loopia.se/RPCSERV"

// rpcCaller is the slice of xmlrpc.Client the adapter needs; tests
// install a fake.
type rpcCaller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
}

// Loopia checks availability through Loopia's XML-RPC API. Username
// and password are prepended as the first two parameters of every
// call, which is how the Loopia API authenticates.
type Loopia struct {
	username string
	password string
	rpc      rpcCaller
}

// NewLoopia creates a Loopia adapter from config. transport may be nil
// for the default HTTP transport.
func NewLoopia(cfg Config, transport http.RoundTripper) (*Loopia, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultLoopiaEndpoint
	}
	c, err := xmlrpc.NewClient(endpoint, transport)
	if err != nil {
		return nil, fmt.Errorf("loopia: client: %w", err)
	}
	return &Loopia{username: cfg.Username, password: cfg.Password, rpc: c}, nil
}

// Name implements ports.Provider.
func (l *Loopia) Name() string { return "loopia" }

// CheckAvailability implements ports.Provider.
func (l *Loopia) CheckAvailability(ctx context.Context, fqdn string) (bool, string, error) {
	if l.username == "" || l.password == "" {
		return false, "", domain.Permanent(fmt.Errorf("loopia: credentials missing"))
	}
	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	var reply string
	args := []interface{}{l.username, l.password, fqdn}
	if err := l.rpc.Call("domainIsFree", args, &reply); err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "401") || strings.Contains(msg, "AUTH_ERROR"):
			return false, "", domain.Permanent(fmt.Errorf("loopia: %w", err))
		case strings.Contains(msg, "429") || strings.Contains(msg, "RATE_LIMITED"):
			return false, "", domain.Transient(fmt.Errorf("loopia: %w", domain.ErrRateLimited))
		default:
			return false, "", domain.Transient(fmt.Errorf("loopia: %w", err))
		}
	}

	switch reply {
	case "OK":
		return true, "", nil
	case "DOMAIN_OCCUPIED":
		return false, "", nil
	default:
		return false, "", domain.Transient(fmt.Errorf("loopia: unexpected reply %q", reply))
	}
}
