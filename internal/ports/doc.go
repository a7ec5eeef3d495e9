// Package ports defines the interfaces that connect the pipeline to
// infrastructure adapters.
//
// The application layer (internal/app) depends only on these
// interfaces; infrastructure adapters (internal/adapters) implement
// them against the real world: a DNS resolver, registrar HTTP/XML-RPC
// APIs, the file system.
//
// # Port Interfaces
//
//   - [Prober]: preliminary availability classification via DNS
//   - [Provider]: authoritative availability answer from a registrar
//   - [ResultStore]: durable, append-only record log plus checkpoint
//   - [Logger]: structured logging (alias of pkg/log.Logger)
//
// This separation lets every stage be tested with fakes and keeps the
// provider zoo out of the pipeline: adding a registrar means adding a
// Provider implementation, never touching a stage.
package ports
