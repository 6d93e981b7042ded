// Package middleware exposes HTTP route guards built on top of
// sesskit.Engine authorization decisions.
//
// # Guards
//
//   - [Guard] — suspends until session state resolves, then admits or
//     redirects to the login route.
//   - [RedirectAuthenticated] — inverse guard for the login area; sends
//     already-authenticated users to the dashboard.
//   - [RequireCookie] — cheap edge precheck that rejects requests without
//     a session cookie before any suspension happens.
//
// Each guard delegates the decision to the Engine and injects the resolved
// identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement session logic itself — all decisions are delegated to
// Engine.Authorize.
//
// # What this package must NOT do
//
//   - Read or mutate session state directly (delegates to Engine).
//   - Verify token signatures (the cookie precheck only inspects shape).
//   - Make authorization decisions beyond pass/redirect from Authorize.
package middleware
