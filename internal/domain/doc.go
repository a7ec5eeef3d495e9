// Package domain contains the core entities and value objects of the
// domain finder.
//
// This is the innermost layer: it has no dependencies on infrastructure
// concerns (DNS, HTTP, file system, logging) and holds only the types
// that flow through the pipeline.
//
// # Entities
//
//   - [Candidate]: a generated domain name under test (TLD excluded)
//   - [ProbeResult]: one classification of a candidate by one source
//   - [Checkpoint]: durable cursor plus aggregate counters for resume
//   - [Summary]: end-of-run totals reported by the orchestrator
//
// ProbeResults are append-only: a correction is a new record, never an
// edit of an existing one.
package domain
