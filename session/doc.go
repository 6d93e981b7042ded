// Package session owns the authoritative client-side record of the signed-in
// identity: the [State] model, the [Store] that serializes every mutation of
// it, and the pluggable [Storage] backends that persist it across process
// restarts.
//
// # Persistence allow-list
//
// Only the user identity and the session-expired flag survive a restart.
// Transient flags (HasHydrated, IsValidating, IsLoggingOut) are deliberately
// excluded from the persisted record and reset to false on every load; see
// persist.go for the allow-list struct.
//
// # Architecture boundaries
//
// This package owns the [Store] (state transitions, persistence, change
// broadcast) and the [State] model. It does NOT perform network I/O, decide
// when a session is expired, or navigate anywhere — those responsibilities
// belong to the Engine and its flows.
//
// # What this package must NOT do
//
//   - Import sesskit, api, or middleware (no upward imports).
//   - Call any server endpoint.
//   - Mutate state outside the five named operations plus hydration.
package session
