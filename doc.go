// Package sesskit coordinates the client-side authenticated-session
// lifecycle for the GoGadget admin API: a persisted session store, a
// one-shot bootstrap reconciliation against the server, route guards, and a
// global failure monitor with a forced-logout kill switch.
//
// The package is designed for concurrent hosts: Engine methods are safe to
// call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sesskit is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Snapshot, Identity, AuditEvent, etc.). All internal
// coordination — flow orchestration, audit dispatch — lives under internal/
// and is never exported. Session state and storage backends live in
// [github.com/gogadget/sesskit/session]; transport in
// [github.com/gogadget/sesskit/api].
//
// # What this package must NOT do
//
//   - Expose the session store's mutation surface beyond the Engine
//     operations (login, logout, forced logout, bootstrap).
//   - Treat a plain 401 as a logout directive; only the server's explicit
//     shouldLogout flag tears a session down mid-flight.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Lifecycle contract
//
// Bootstrap runs at most once per process: the reconciliation state machine
// moves NotStarted → InFlight → Done and is reset only by process restart.
// Forced logout is idempotent — concurrent directives produce exactly one
// navigation to the login route.
package sesskit
