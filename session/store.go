package session

import (
	"context"
	"errors"
	"sync"
)

// Store is the single source of truth for authentication state. All writes
// go through the named operations below, which serializes every transition;
// no caller mutates [State] fields directly.
//
// The zero value is not usable; construct with [NewStore].
type Store struct {
	storage Storage
	name    string
	warn    func(string, ...any)

	mu      sync.Mutex
	state   State
	epoch   uint64
	changed chan struct{}

	hydrateOnce sync.Once
	hydrateErr  error
}

// NewStore creates a [Store] persisting under the given record name. warn
// receives non-fatal persistence failures and may be nil.
func NewStore(storage Storage, name string, warn func(string, ...any)) *Store {
	return &Store{
		storage: storage,
		name:    name,
		warn:    warn,
		changed: make(chan struct{}),
	}
}

// Hydrate loads the persisted record and flips HasHydrated exactly once.
// Repeat calls are no-ops returning the first outcome. A missing record is a
// clean empty start; a corrupt or unreadable one still completes hydration
// (with empty state) so the application never stalls unresolved.
func (s *Store) Hydrate(ctx context.Context) error {
	s.hydrateOnce.Do(func() {
		data, err := s.storage.Load(ctx, s.name)

		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case err == nil:
			rec, decodeErr := decodePersisted(data)
			if decodeErr != nil {
				s.hydrateErr = decodeErr
				break
			}
			s.state.User = rec.User
			s.state.IsSessionExpired = rec.IsSessionExpired
		case errors.Is(err, ErrNoSnapshot):
		default:
			s.hydrateErr = err
		}

		s.setHydratedLocked()
		s.broadcastLocked()
	})
	return s.hydrateErr
}

// setHydratedLocked flips the hydration flag. Invoked exactly once, from
// Hydrate; it has no other caller.
func (s *Store) setHydratedLocked() {
	s.state.HasHydrated = true
}

// Login sets the resolved identity and clears the expiry kill switch.
func (s *Store) Login(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.state.User = &u
	s.state.IsSessionExpired = false
	s.persistLocked()
	s.broadcastLocked()
}

// LoginAt applies a login only if no logout or expiry happened since the
// caller captured epoch. It reports whether the login was applied; a stale
// login is discarded so a slow bootstrap cannot resurrect a torn-down
// session.
func (s *Store) LoginAt(user User, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}

	u := user
	s.state.User = &u
	s.state.IsSessionExpired = false
	s.persistLocked()
	s.broadcastLocked()
	return true
}

// Logout clears the identity and the logging-out flag. It performs no
// network call; callers are responsible for notifying the server.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.User = nil
	s.state.IsLoggingOut = false
	s.epoch++
	s.persistLocked()
	s.broadcastLocked()
}

// MarkSessionExpired records a server-confirmed invalid session. It is not a
// general-purpose error handler: only a confirmed rejection may call it.
func (s *Store) MarkSessionExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsSessionExpired = true
	s.state.User = nil
	s.epoch++
	s.persistLocked()
	s.broadcastLocked()
}

// SetValidating toggles the in-flight reconciliation flag.
func (s *Store) SetValidating(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsValidating = v
	s.persistLocked()
	s.broadcastLocked()
}

// SetLoggingOut toggles the logout-in-progress flag.
func (s *Store) SetLoggingOut(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsLoggingOut = v
	s.persistLocked()
	s.broadcastLocked()
}

// Snapshot returns a point-in-time copy of the state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		HasHydrated:      s.state.HasHydrated,
		IsValidating:     s.state.IsValidating,
		IsLoggingOut:     s.state.IsLoggingOut,
		IsSessionExpired: s.state.IsSessionExpired,
		Epoch:            s.epoch,
	}
	if s.state.User != nil {
		u := *s.state.User
		snap.User = &u
	}
	return snap
}

// Epoch returns the current teardown counter. Capture it before a slow
// operation and pass it to [Store.LoginAt] afterwards.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Changed returns a channel that is closed on the next state transition.
// Callers re-arm by calling Changed again after each wakeup.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// WaitResolved blocks until hydration is complete and no reconciliation is
// in flight, then returns the resolved snapshot. It honors ctx cancellation.
func (s *Store) WaitResolved(ctx context.Context) (Snapshot, error) {
	for {
		ch := s.Changed()
		snap := s.Snapshot()
		if snap.Resolved() {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

func (s *Store) persistLocked() {
	data, err := encodePersisted(s.state)
	if err == nil {
		err = s.storage.Save(context.Background(), s.name, data)
	}
	if err != nil && s.warn != nil {
		s.warn("sesskit: session persist failed: %v", err)
	}
}

func (s *Store) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
