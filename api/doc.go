// Package api is the HTTP client for the admin REST API. It executes calls
// against the standard response envelope, classifies failures, retries
// transient ones, and publishes every surfaced failure to a process-wide
// feed that the session monitor subscribes to.
//
// # Retry policy
//
// Network faults and 5xx responses are retried up to the configured attempt
// cap (default 3). 4xx responses are never retried: a client error does not
// become a success on the second try. Retries are paced through a shared
// rate limiter so a flapping backend is not hammered.
//
// # Architecture boundaries
//
// This package owns transport, the [Envelope] contract, and error
// classification. It does NOT mutate session state or navigate — it only
// reports; the Engine decides.
//
// # What this package must NOT do
//
//   - Import sesskit or middleware (no upward imports).
//   - Treat a plain 401 as a logout directive; only the explicit
//     shouldLogout body flag carries that meaning.
//   - Retry 4xx responses.
package api
