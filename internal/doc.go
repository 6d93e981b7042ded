// Package internal groups helper packages that are intentionally private
// to sesskit.
//
// # Sub-packages
//
//   - audit — async lifecycle event dispatch (Dispatcher + Sink implementations)
//   - flows — pure-function flow orchestrators for every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public sesskit API except through
//     root-level aliases.
//   - Be imported by any package outside the sesskit module.
package internal
