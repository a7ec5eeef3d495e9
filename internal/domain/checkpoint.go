package domain

import "time"

// Checkpoint is the durable cursor into the generator's sequence plus
// aggregate counters. It is the only mutable shared entity in the data
// model, owned exclusively by the result store, written atomically
// after each batch flush, and read once at start-up to resume.
//
// Cursor only ever advances; it is reset solely by an explicit user
// reset (deleting the checkpoint file).
type Checkpoint struct {
	// Cursor is the generator position up to which every candidate has
	// a flushed record. Resuming seeks the generator here.
	Cursor uint64 `json:"cursor"`

	TotalChecked   uint64    `json:"total_checked"`
	TotalAvailable uint64    `json:"total_available"`
	LastUpdated    time.Time `json:"last_updated"`
}
