package sesskit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogadget/sesskit/api"
	"github.com/gogadget/sesskit/internal/audit"
	"github.com/gogadget/sesskit/internal/flows"
	"github.com/gogadget/sesskit/session"
)

// Engine coordinates the session lifecycle: hydration, the one-shot
// bootstrap, explicit login/logout, and server-directed forced logout.
//
// Engine instances are built once via [Builder] and then treated as
// immutable; all exported methods are safe for concurrent use.
type Engine struct {
	config    Config
	store     *session.Store
	client    *api.Client
	navigator Navigator
	audit     *audit.Dispatcher
	metrics   *Metrics
	warn      func(string, ...any)

	bootstrapPhase atomic.Int32
	forcingLogout  atomic.Bool

	started atomic.Bool
	closed  atomic.Bool

	// settled is closed once Start's hydration and bootstrap have both
	// finished, whatever their outcome. WaitResolved gates on it so a
	// guard never observes the empty window between the two.
	settled     chan struct{}
	settleOnce  sync.Once
	monitorStop chan struct{}
	monitorWG   sync.WaitGroup
}

// Start hydrates the session store, arms the global failure monitor, and
// fires the one-shot bootstrap. It returns the bootstrap outcome; a
// hydration failure is logged and does not prevent startup, since the
// store still resolves to a clean state.
func (e *Engine) Start(ctx context.Context) (BootstrapOutcome, error) {
	if e == nil {
		return flows.BootstrapSkipped, ErrEngineNotReady
	}
	if e.closed.Load() {
		return flows.BootstrapSkipped, ErrEngineClosed
	}
	if !e.started.CompareAndSwap(false, true) {
		return flows.BootstrapSkipped, ErrAlreadyStarted
	}

	if err := e.store.Hydrate(ctx); err != nil {
		e.warnf("sesskit: hydration degraded to clean start: %v", err)
	}

	e.monitorStop = make(chan struct{})
	e.monitorWG.Add(1)
	go e.runMonitor()

	outcome := e.Bootstrap(ctx)
	e.settleOnce.Do(func() { close(e.settled) })
	return outcome, nil
}

// Snapshot returns a copy of the current session state.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	return e.store.Snapshot()
}

// WaitResolved blocks until the session state is resolved (hydrated and
// not mid-validation) or ctx expires. Guards use it to suspend requests
// instead of flashing a redirect during startup.
func (e *Engine) WaitResolved(ctx context.Context) (Snapshot, error) {
	if e == nil {
		return Snapshot{}, ErrEngineNotReady
	}
	select {
	case <-e.settled:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	return e.store.WaitResolved(ctx)
}

// Changed returns a channel closed on the next state transition. Callers
// re-fetch the channel after each receive.
func (e *Engine) Changed() <-chan struct{} {
	return e.store.Changed()
}

// Login authenticates against the backend, hydrates the identity from the
// who-am-I endpoint, and commits it to the store. Credential rejection
// returns [ErrInvalidCredentials]; a post-authentication identity fetch
// failure returns [ErrIdentityUnavailable] and commits nothing.
func (e *Engine) Login(ctx context.Context, email, password string) (Snapshot, error) {
	if e == nil {
		return Snapshot{}, ErrEngineNotReady
	}
	if e.closed.Load() {
		return Snapshot{}, ErrEngineClosed
	}

	result := flows.RunLogin(ctx, email, password, flows.LoginDeps{
		Authenticate:  e.client.Login,
		FetchIdentity: e.client.Me,
		Store:         e.store,
	})

	switch result.Failure {
	case flows.LoginFailureCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, audit.Event{
			EventType: audit.EventLoginFailed,
			Email:     email,
			Error:     result.Err.Error(),
		})
		return e.store.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidCredentials, result.Err)
	case flows.LoginFailureIdentityFetch:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, audit.Event{
			EventType: audit.EventLoginFailed,
			Email:     email,
			Error:     result.Err.Error(),
		})
		return e.store.Snapshot(), fmt.Errorf("%w: %w", ErrIdentityUnavailable, result.Err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, audit.Event{
		EventType: audit.EventLogin,
		UserID:    result.User.ID,
		Email:     result.User.Email,
		Role:      string(result.User.Role),
		Success:   true,
	})
	return e.store.Snapshot(), nil
}

// Logout performs an explicit user logout: local teardown first, then a
// best-effort server notify, then navigation to the login route. The
// returned error only reports the notify failure; local state is always
// cleared.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}

	before := e.store.Snapshot()
	result := flows.RunLogout(ctx, e.logoutDeps())

	e.metricInc(MetricLogout)
	event := audit.Event{
		EventType: audit.EventLogout,
		Success:   result.NotifyErr == nil,
	}
	if before.User != nil {
		event.UserID = before.User.ID
		event.Email = before.User.Email
		event.Role = string(before.User.Role)
	}
	if result.NotifyErr != nil {
		event.Error = result.NotifyErr.Error()
	}
	e.emitAudit(ctx, event)

	return result.NotifyErr
}

// ForceLogout tears down the session in response to a server directive.
// Concurrent directives coalesce into a single teardown; once a teardown
// completes the gate re-arms so a later directive (after a fresh login)
// forces logout again.
func (e *Engine) ForceLogout(ctx context.Context) {
	if e == nil || e.closed.Load() {
		return
	}
	if !e.forcingLogout.CompareAndSwap(false, true) {
		e.metricInc(MetricForcedLogoutDuplicate)
		return
	}
	defer e.forcingLogout.Store(false)

	before := e.store.Snapshot()
	flows.RunForcedLogout(ctx, e.logoutDeps())

	e.metricInc(MetricForcedLogout)
	event := audit.Event{
		EventType: audit.EventForcedLogout,
		Success:   true,
	}
	if before.User != nil {
		event.UserID = before.User.ID
		event.Email = before.User.Email
		event.Role = string(before.User.Role)
	}
	e.emitAudit(ctx, event)
}

func (e *Engine) logoutDeps() flows.LogoutDeps {
	return flows.LogoutDeps{
		Store:        e.store,
		NotifyServer: e.client.Logout,
		Navigate:     e.navigator.ReplaceTo,
		LoginRoute:   e.config.Session.LoginRoute,
		Warn:         e.warn,
	}
}

// API exposes the engine's HTTP client so host requests share the retry
// policy and, crucially, the failure stream the logout monitor watches. A
// host calling the backend through any other client loses the global
// shouldLogout handling.
func (e *Engine) API() *api.Client {
	if e == nil {
		return nil
	}
	return e.client
}

// Close stops the failure monitor and flushes the audit dispatcher. The
// engine rejects further lifecycle operations afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.monitorStop != nil {
		close(e.monitorStop)
		e.monitorWG.Wait()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the engine's counter set for exporters. When metrics
// are disabled the returned set records nothing.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, event audit.Event) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) warnf(format string, args ...any) {
	if e.warn != nil {
		e.warn(format, args...)
	}
}
