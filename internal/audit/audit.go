package audit

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session lifecycle event types.
const (
	EventLogin            = "login"
	EventLoginFailed      = "login_failed"
	EventLogout           = "logout"
	EventForcedLogout     = "forced_logout"
	EventSessionExpired   = "session_expired"
	EventBootstrapStarted = "bootstrap_started"
	EventBootstrapOutcome = "bootstrap_outcome"
	EventGuardRedirect    = "guard_redirect"
)

// Event is the canonical lifecycle record used by internal dispatching and
// root APIs. ID is a ULID so events sort by emission time.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Role      string            `json:"role,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Stamp fills ID and Timestamp if the emitter left them zero.
func (e *Event) Stamp(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.ID == "" {
		e.ID = ulid.MustNew(ulid.Timestamp(e.Timestamp), rand.Reader).String()
	}
}

// Sink receives emitted lifecycle events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
