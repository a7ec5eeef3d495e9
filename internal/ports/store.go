package ports

import (
	"github.com/jnMetaCode/available-domains/internal/domain"
)

// ResultStore is the durable, append-only log of probe results plus
// the single mutable checkpoint record.
//
// Implementations serialize concurrent appends internally; callers
// never need external locking. Appends may be buffered; Flush forces
// buffered records and the checkpoint to disk. A store write failure
// is fatal for the run, so Append and Flush errors must be surfaced,
// not swallowed.
type ResultStore interface {
	// Append records one probe result. The record becomes part of the
	// dedup index immediately even if the disk flush is deferred.
	Append(res domain.ProbeResult) error

	// MarkDone tells the store that the candidate at the given
	// generator position has finished both stages. The checkpoint
	// cursor advances over contiguous finished positions only.
	MarkDone(position uint64)

	// Seen reports the best terminal record for a name, if any.
	// API records outrank DNS records.
	Seen(name string) (domain.Source, domain.Status, bool)

	// PendingVerification lists names whose best record is a DNS
	// StatusAvailable with no API record yet. Feeds only-verify-api.
	PendingVerification() []string

	// Available lists every name currently classified available,
	// whatever the source. Feeds the final verification pass.
	Available() []string

	// Checkpoint returns the current checkpoint values.
	Checkpoint() domain.Checkpoint

	// Flush forces buffered records and the checkpoint to disk.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}
