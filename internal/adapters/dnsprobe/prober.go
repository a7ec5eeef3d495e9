// Package dnsprobe implements the preliminary availability check as a
// client of a standard DNS resolver. It never resolves anything
// itself; it asks the configured server and classifies the response
// code.
package dnsprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/ports"
	"github.com/jnMetaCode/available-domains/pkg/log"
)

// DefaultServer is used when no resolver is configured.
const DefaultServer = "1.1.1.1:53"

// Prober asks a DNS server for A records and maps the outcome onto
// the pipeline's status taxonomy. Safe for concurrent use.
type Prober struct {
	server string
	client *dns.Client
	logger ports.Logger
}

// New creates a prober against the given server ("host:port"). timeout
// bounds each query; the retry policy lives in the probe stage, not
// here.
func New(server string, timeout time.Duration, logger ports.Logger) *Prober {
	if server == "" {
		server = DefaultServer
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Prober{
		server: server,
		client: &dns.Client{Timeout: timeout},
		logger: logger,
	}
}

// Probe classifies one fully qualified domain name.
//
// NXDOMAIN means no such name exists, which is the heuristic signal
// that the domain is unregistered. Any successful response means the
// name exists and the domain is taken, whether or not answers came
// back. Everything else (timeout, SERVFAIL, REFUSED) is transient.
func (p *Prober) Probe(ctx context.Context, fqdn string) (domain.Status, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(fqdn), dns.TypeA)
	m.RecursionDesired = true

	resp, _, err := p.client.ExchangeContext(ctx, m, p.server)
	if err != nil {
		if ctx.Err() != nil {
			return domain.StatusUnknown, ctx.Err()
		}
		return domain.StatusUnknown, domain.Transient(fmt.Errorf("dns exchange %s: %w", fqdn, err))
	}
	if resp.Truncated {
		// Retry over TCP; a truncated UDP answer proves nothing.
		tcp := &dns.Client{Net: "tcp", Timeout: p.client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, m, p.server)
		if err != nil {
			return domain.StatusUnknown, domain.Transient(fmt.Errorf("dns tcp exchange %s: %w", fqdn, err))
		}
	}
	return Classify(resp.Rcode)
}

// Classify maps a DNS response code onto a status. Split out for
// testing without a live resolver.
func Classify(rcode int) (domain.Status, error) {
	switch rcode {
	case dns.RcodeNameError:
		// NXDOMAIN: no record anywhere beneath the name.
		return domain.StatusAvailable, nil
	case dns.RcodeSuccess:
		return domain.StatusTaken, nil
	case dns.RcodeServerFailure, dns.RcodeRefused:
		return domain.StatusUnknown, domain.Transient(fmt.Errorf("resolver rcode %s", dns.RcodeToString[rcode]))
	default:
		return domain.StatusUnknown, domain.Transient(fmt.Errorf("unexpected rcode %s", dns.RcodeToString[rcode]))
	}
}
