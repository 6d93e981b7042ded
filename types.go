package sesskit

import (
	"context"
	"io"

	"github.com/gogadget/sesskit/api"
	internalaudit "github.com/gogadget/sesskit/internal/audit"
	"github.com/gogadget/sesskit/internal/flows"
	"github.com/gogadget/sesskit/session"
)

// Identity is the authenticated user record resolved by login or bootstrap.
type Identity = session.User

// Role is the server-assigned authorization role.
type Role = session.Role

const (
	// RoleSuperAdmin is an elevated role with unrestricted dashboard access.
	RoleSuperAdmin = session.RoleSuperAdmin
	// RoleAdmin is the standard administrator role.
	RoleAdmin = session.RoleAdmin
	// RoleStaff is a restricted operator role.
	RoleStaff = session.RoleStaff
)

// Snapshot is a point-in-time view of session state.
type Snapshot = session.Snapshot

// BootstrapOutcome classifies how a bootstrap reconciliation ended.
type BootstrapOutcome = flows.BootstrapOutcome

const (
	// BootstrapSkipped means a precondition stopped the attempt (or it
	// already ran for this load).
	BootstrapSkipped = flows.BootstrapSkipped
	// BootstrapVerified means the server confirmed the session.
	BootstrapVerified = flows.BootstrapVerified
	// BootstrapExpired means the server confirmed there is no valid session.
	BootstrapExpired = flows.BootstrapExpired
	// BootstrapInconclusive means a transient failure left state unchanged.
	BootstrapInconclusive = flows.BootstrapInconclusive
	// BootstrapSuperseded means an intervening teardown discarded the result.
	BootstrapSuperseded = flows.BootstrapSuperseded
)

// Navigator performs the host's route changes. Implementations must be safe
// for concurrent use; the monitor may navigate from its own goroutine.
type Navigator interface {
	ReplaceTo(route string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route string)

func (f NavigatorFunc) ReplaceTo(route string) { f(route) }

// AuditEvent is a structured lifecycle record emitted by the engine.
type AuditEvent = internalaudit.Event

// Audit event types emitted by the engine.
const (
	EventLogin            = internalaudit.EventLogin
	EventLoginFailed      = internalaudit.EventLoginFailed
	EventLogout           = internalaudit.EventLogout
	EventForcedLogout     = internalaudit.EventForcedLogout
	EventSessionExpired   = internalaudit.EventSessionExpired
	EventBootstrapStarted = internalaudit.EventBootstrapStarted
	EventBootstrapOutcome = internalaudit.EventBootstrapOutcome
	EventGuardRedirect    = internalaudit.EventGuardRedirect
)

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// WithRequestID attaches a caller-chosen request ID to ctx for log
// correlation across retries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return api.WithRequestID(ctx, id)
}
