package flows

import (
	"context"

	"github.com/gogadget/sesskit/api"
	"github.com/gogadget/sesskit/session"
)

// BootstrapOutcome classifies how a reconciliation attempt ended for
// root-level mapping to metrics and audit.
type BootstrapOutcome int

const (
	// BootstrapSkipped means a precondition failed and no request was made.
	BootstrapSkipped BootstrapOutcome = iota
	// BootstrapVerified means the server confirmed the session and the
	// identity was applied.
	BootstrapVerified
	// BootstrapExpired means the server confirmed there is no valid session.
	BootstrapExpired
	// BootstrapInconclusive means a transient failure left state unchanged.
	BootstrapInconclusive
	// BootstrapSuperseded means a logout or expiry raced the fetch and the
	// late identity was discarded.
	BootstrapSuperseded
)

func (o BootstrapOutcome) String() string {
	switch o {
	case BootstrapVerified:
		return "verified"
	case BootstrapExpired:
		return "expired"
	case BootstrapInconclusive:
		return "inconclusive"
	case BootstrapSuperseded:
		return "superseded"
	default:
		return "skipped"
	}
}

// BootstrapStore is the subset of the session store the bootstrap flow needs.
type BootstrapStore interface {
	Snapshot() session.Snapshot
	SetValidating(bool)
	LoginAt(user session.User, epoch uint64) bool
	MarkSessionExpired()
}

// BootstrapDeps captures bootstrap flow dependencies.
type BootstrapDeps struct {
	FetchIdentity  func(context.Context) (api.MeData, error)
	IsUnauthorized func(error) bool
	Store          BootstrapStore
}

// BootstrapResult carries the outcome, the applied identity when verified,
// and the underlying error for inconclusive attempts.
type BootstrapResult struct {
	Outcome BootstrapOutcome
	User    *session.User
	Err     error
}

// RunBootstrap reconciles the hydrated store with the server's notion of the
// session. Preconditions (hydrated, no user, not validating, not expired)
// are re-checked here against a fresh snapshot; the one-shot-per-load guard
// is the Engine's, not this flow's.
//
// An unauthorized response marks the session expired — it does not redirect
// and does not log out, so downstream UI can distinguish "never logged in"
// from "was logged in, server revoked it". Any other failure leaves state
// untouched.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) BootstrapResult {
	snap := deps.Store.Snapshot()
	if !snap.HasHydrated || snap.User != nil || snap.IsValidating || snap.IsSessionExpired {
		return BootstrapResult{Outcome: BootstrapSkipped}
	}

	// Captured before the fetch: a teardown during the round trip bumps the
	// epoch and the late login below is discarded.
	epoch := snap.Epoch

	deps.Store.SetValidating(true)
	defer deps.Store.SetValidating(false)

	me, err := deps.FetchIdentity(ctx)
	if err != nil {
		if deps.IsUnauthorized(err) {
			deps.Store.MarkSessionExpired()
			return BootstrapResult{Outcome: BootstrapExpired, Err: err}
		}
		return BootstrapResult{Outcome: BootstrapInconclusive, Err: err}
	}

	user := session.User{
		ID:    me.UserID,
		Name:  me.Name,
		Email: me.Email,
		Role:  me.Role,
	}
	if !deps.Store.LoginAt(user, epoch) {
		return BootstrapResult{Outcome: BootstrapSuperseded}
	}
	return BootstrapResult{Outcome: BootstrapVerified, User: &user}
}
