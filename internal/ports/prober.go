package ports

import (
	"context"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// Prober performs the cheap, non-authoritative DNS pre-filter for a
// fully qualified domain name.
//
// Probe returns StatusAvailable when the resolver reports the name
// does not exist (NXDOMAIN), StatusTaken when any record comes back,
// and a non-nil error otherwise. Errors are classified: a
// domain.TransientError is worth retrying, anything else is not.
// Probe must honor ctx cancellation and the implementation's own
// query timeout.
type Prober interface {
	Probe(ctx context.Context, fqdn string) (domain.Status, error)
}
