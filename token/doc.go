// Package token peeks at the access-token cookie without validating it. The
// server owns the session; the client only inspects the cookie to decide
// whether a bootstrap attempt is worth making, mirroring the edge proxy's
// presence check.
//
// # What this package must NOT do
//
//   - Verify signatures or treat a parsed token as proof of authentication.
//   - Issue, refresh, or store tokens.
package token
