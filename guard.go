package sesskit

import (
	"context"

	"github.com/gogadget/sesskit/internal/audit"
)

// GuardReason explains why a guard decision denied access.
type GuardReason uint8

const (
	// GuardOK means the request is admitted.
	GuardOK GuardReason = iota
	// GuardUnresolved means the session did not resolve before the deadline.
	GuardUnresolved
	// GuardNoUser means no identity is present.
	GuardNoUser
	// GuardSessionExpired means the server revoked the session.
	GuardSessionExpired
	// GuardRoleDenied means the identity's role is outside the allowed set.
	GuardRoleDenied
)

func (r GuardReason) String() string {
	switch r {
	case GuardOK:
		return "ok"
	case GuardUnresolved:
		return "unresolved"
	case GuardNoUser:
		return "no_user"
	case GuardSessionExpired:
		return "session_expired"
	case GuardRoleDenied:
		return "role_denied"
	default:
		return "unknown"
	}
}

// GuardDecision is the outcome of an [Engine.Authorize] check.
type GuardDecision struct {
	Allowed  bool
	Reason   GuardReason
	Identity *Identity
}

// Authorize suspends until the session state resolves, then decides whether
// the current identity may enter a guarded area. An empty roles list falls
// back to the configured default set. The wait is bounded by ctx and by the
// configured resolve timeout, whichever ends first; an unresolved state is
// denied rather than admitted.
func (e *Engine) Authorize(ctx context.Context, roles ...Role) GuardDecision {
	if e == nil {
		return GuardDecision{Reason: GuardUnresolved}
	}
	if len(roles) == 0 {
		roles = e.config.Session.AllowedRoles
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.config.Guard.ResolveTimeout)
	defer cancel()

	snap, err := e.WaitResolved(waitCtx)
	if err != nil {
		return e.deny(ctx, GuardDecision{Reason: GuardUnresolved})
	}

	switch {
	// Expired first: teardown nils the user, so the no-user case would
	// otherwise swallow every revoked session.
	case snap.IsSessionExpired:
		return e.deny(ctx, GuardDecision{Reason: GuardSessionExpired})
	case snap.User == nil:
		return e.deny(ctx, GuardDecision{Reason: GuardNoUser})
	case !roleAllowed(snap.User.Role, roles):
		return e.deny(ctx, GuardDecision{
			Reason:   GuardRoleDenied,
			Identity: snap.User,
		})
	}

	e.metricInc(MetricGuardAllowed)
	return GuardDecision{Allowed: true, Reason: GuardOK, Identity: snap.User}
}

func (e *Engine) deny(ctx context.Context, decision GuardDecision) GuardDecision {
	e.metricInc(MetricGuardRedirect)
	event := audit.Event{
		EventType: audit.EventGuardRedirect,
		Metadata:  map[string]string{"reason": decision.Reason.String()},
	}
	if decision.Identity != nil {
		event.UserID = decision.Identity.ID
		event.Role = string(decision.Identity.Role)
	}
	e.emitAudit(ctx, event)
	return decision
}

func roleAllowed(role Role, allowed []Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// LoginRoute is the configured route guards redirect unauthenticated
// requests to.
func (e *Engine) LoginRoute() string {
	return e.config.Session.LoginRoute
}

// DashboardRoute is the configured landing route for authenticated users.
func (e *Engine) DashboardRoute() string {
	return e.config.Session.DashboardRoute
}
