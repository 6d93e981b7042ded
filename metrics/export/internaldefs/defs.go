package internaldefs

import (
	"github.com/gogadget/sesskit"
)

// CounterDef binds a sesskit counter to its stable exported name.
type CounterDef struct {
	ID   sesskit.MetricID
	Name string
	Help string
}

// CounterDefs enumerates every exported counter in a fixed render order.
var CounterDefs = []CounterDef{
	{ID: sesskit.MetricBootstrapVerified, Name: "sesskit_bootstrap_verified_total", Help: "Bootstraps that confirmed a live session."},
	{ID: sesskit.MetricBootstrapExpired, Name: "sesskit_bootstrap_expired_total", Help: "Bootstraps the server rejected as unauthorized."},
	{ID: sesskit.MetricBootstrapInconclusive, Name: "sesskit_bootstrap_inconclusive_total", Help: "Bootstraps ended by a transient failure."},
	{ID: sesskit.MetricBootstrapSuperseded, Name: "sesskit_bootstrap_superseded_total", Help: "Bootstrap results discarded by an intervening teardown."},
	{ID: sesskit.MetricBootstrapSkipped, Name: "sesskit_bootstrap_skipped_total", Help: "Bootstrap attempts stopped by a precondition or already-ran guard."},
	{ID: sesskit.MetricLoginSuccess, Name: "sesskit_login_success_total", Help: "Completed login flows."},
	{ID: sesskit.MetricLoginFailure, Name: "sesskit_login_failure_total", Help: "Rejected or partially failed login flows."},
	{ID: sesskit.MetricLogout, Name: "sesskit_logout_total", Help: "Explicit user logouts."},
	{ID: sesskit.MetricForcedLogout, Name: "sesskit_forced_logout_total", Help: "Server-directed forced teardowns."},
	{ID: sesskit.MetricForcedLogoutDuplicate, Name: "sesskit_forced_logout_duplicate_total", Help: "Logout directives coalesced into an in-flight teardown."},
	{ID: sesskit.MetricSessionExpired, Name: "sesskit_session_expired_total", Help: "Transitions into the expired session state."},
	{ID: sesskit.MetricGuardAllowed, Name: "sesskit_guard_allowed_total", Help: "Guard checks that admitted the request."},
	{ID: sesskit.MetricGuardRedirect, Name: "sesskit_guard_redirect_total", Help: "Guard checks that redirected to login."},
}

// AuditDroppedDef names the dispatcher backpressure counter. It lives
// outside CounterDefs because its value comes from the audit dispatcher,
// not the metrics snapshot.
var AuditDroppedDef = CounterDef{
	Name: "sesskit_audit_dropped_total",
	Help: "Dropped audit events due to dispatcher backpressure.",
}
