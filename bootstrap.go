package sesskit

import (
	"context"

	"github.com/gogadget/sesskit/internal/audit"
	"github.com/gogadget/sesskit/internal/flows"
)

// Bootstrap phases. The check-and-set on bootstrapPhase makes the flow
// one-shot per process: once it has fired it never re-runs, even if the
// attempt was inconclusive.
const (
	bootstrapNotStarted int32 = iota
	bootstrapInFlight
	bootstrapDone
)

// Bootstrap reconciles local session state with the server exactly once.
// Start calls it automatically; calling it again, or concurrently, returns
// [BootstrapSkipped] without touching state.
//
// An unauthorized response marks the session expired. Any other failure
// leaves state untouched and the attempt is not retried; the host decides
// whether "possibly authenticated" screens are acceptable or whether to
// log out explicitly.
func (e *Engine) Bootstrap(ctx context.Context) BootstrapOutcome {
	if e == nil {
		return flows.BootstrapSkipped
	}
	if !e.bootstrapPhase.CompareAndSwap(bootstrapNotStarted, bootstrapInFlight) {
		e.metricInc(MetricBootstrapSkipped)
		return flows.BootstrapSkipped
	}
	defer e.bootstrapPhase.Store(bootstrapDone)

	e.emitAudit(ctx, audit.Event{EventType: audit.EventBootstrapStarted})

	result := flows.RunBootstrap(ctx, flows.BootstrapDeps{
		FetchIdentity:  e.client.Me,
		IsUnauthorized: IsUnauthorized,
		Store:          e.store,
	})

	event := audit.Event{
		EventType: audit.EventBootstrapOutcome,
		Success:   result.Outcome == flows.BootstrapVerified,
		Metadata:  map[string]string{"outcome": result.Outcome.String()},
	}
	if result.User != nil {
		event.UserID = result.User.ID
		event.Email = result.User.Email
		event.Role = string(result.User.Role)
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}
	e.emitAudit(ctx, event)

	switch result.Outcome {
	case flows.BootstrapVerified:
		e.metricInc(MetricBootstrapVerified)
	case flows.BootstrapExpired:
		e.metricInc(MetricBootstrapExpired)
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, audit.Event{EventType: audit.EventSessionExpired})
	case flows.BootstrapInconclusive:
		e.metricInc(MetricBootstrapInconclusive)
		e.warnf("sesskit: bootstrap inconclusive: %v", result.Err)
	case flows.BootstrapSuperseded:
		e.metricInc(MetricBootstrapSuperseded)
	case flows.BootstrapSkipped:
		e.metricInc(MetricBootstrapSkipped)
	}

	return result.Outcome
}
