package finder

import "time"

// State is the public lifecycle state of a Finder.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// Status is the public classification of one name.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusError     Status = "error"
)

// Source identifies which stage produced a result.
type Source string

const (
	SourceDNS Source = "dns"
	SourceAPI Source = "api"
)

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// PhaseChangeEvent reports pipeline progress within a run.
type PhaseChangeEvent struct {
	Previous string
	Current  string
}

// ResultEvent reports one classification as it is recorded.
type ResultEvent struct {
	Name     string
	FQDN     string
	Source   Source
	Status   Status
	Provider string
	Note     string
}

// Summary holds the totals of a finished or interrupted run.
type Summary struct {
	TotalChecked   uint64
	TotalAvailable uint64

	// Errors counts error records by kind name.
	Errors map[string]uint64

	Elapsed time.Duration
}

// EventHandler receives finder events. Callbacks run synchronously on
// pipeline goroutines and must return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnResult(event ResultEvent)
	OnPhaseChange(event PhaseChangeEvent)
	OnRunComplete(summary Summary)
}

// BaseEventHandler provides no-op implementations of EventHandler.
// Embed it to override only the callbacks you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnResult(ResultEvent)           {}
func (BaseEventHandler) OnPhaseChange(PhaseChangeEvent) {}
func (BaseEventHandler) OnRunComplete(Summary)          {}
