package domain

import "time"

// Source identifies which stage produced a classification.
// API results outrank DNS results for the same candidate.
type Source int

const (
	SourceDNS Source = iota
	SourceAPI
)

// String returns a human-readable representation of the source.
func (s Source) String() string {
	switch s {
	case SourceDNS:
		return "dns"
	case SourceAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Status is the closed classification taxonomy the pipeline emits.
type Status int

const (
	// StatusUnknown means no classification could be established.
	StatusUnknown Status = iota

	// StatusAvailable means the candidate looks unregistered.
	// Heuristic when Source is DNS, authoritative when Source is API.
	StatusAvailable

	// StatusTaken means the candidate is registered.
	StatusTaken

	// StatusError means classification failed; ErrorKind says why.
	StatusError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusTaken:
		return "taken"
	case StatusError:
		return "error"
	case StatusUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Terminal reports whether the status ends processing for a candidate
// at its source: restarts never re-probe a terminally recorded name.
func (s Status) Terminal() bool {
	return s == StatusAvailable || s == StatusTaken
}

// ErrorKind is the closed error taxonomy for StatusError records.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota

	// ErrorKindInvalidName: local syntax validation failed. Permanent,
	// never retried, never forwarded.
	ErrorKindInvalidName

	// ErrorKindDNSTransient: resolver timeout or transient failure
	// after exhausting retries.
	ErrorKindDNSTransient

	// ErrorKindAPITransient: provider timeout, 429 or handshake
	// failure after exhausting retries.
	ErrorKindAPITransient

	// ErrorKindAPIPermanent: auth or request construction failure.
	// Fails the provider for the remainder of the run.
	ErrorKindAPIPermanent

	// ErrorKindStoreWrite: result store I/O failure. Fatal for the run.
	ErrorKindStoreWrite
)

// String returns a human-readable representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindInvalidName:
		return "invalid_name"
	case ErrorKindDNSTransient:
		return "dns_transient"
	case ErrorKindAPITransient:
		return "api_transient"
	case ErrorKindAPIPermanent:
		return "api_permanent"
	case ErrorKindStoreWrite:
		return "store_write"
	default:
		return "unknown"
	}
}

// ProbeResult is one classification of one candidate by one source.
// Results are immutable once created; a later disagreement (e.g. the
// final verification pass) appends a new record instead of editing.
type ProbeResult struct {
	Candidate Candidate
	Source    Source
	Status    Status

	// Provider is the registrar that answered, for API results.
	Provider string

	// Note carries provider price info or an error summary.
	Note string

	ErrorKind ErrorKind
	Timestamp time.Time
}

// Summary holds the totals the orchestrator reports when a run ends.
type Summary struct {
	TotalChecked   uint64
	TotalAvailable uint64
	Errors         map[ErrorKind]uint64
	Elapsed        time.Duration
}
