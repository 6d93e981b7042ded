package session

// Role is the server-assigned authorization role of an identity.
type Role string

const (
	// RoleSuperAdmin is the elevated role with unrestricted dashboard access.
	RoleSuperAdmin Role = "SUPERADMIN"
	// RoleAdmin is the standard administrator role.
	RoleAdmin Role = "ADMIN"
	// RoleStaff is a restricted operator role.
	RoleStaff Role = "STAFF"
)

// User is the identity record embedded in the session. It is immutable once
// fetched for a given login and replaced wholesale on the next login or
// bootstrap.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// State is the full session record. User and IsSessionExpired persist across
// restarts; the remaining flags are transient and reset to false on load.
type State struct {
	User *User

	HasHydrated  bool
	IsValidating bool
	IsLoggingOut bool

	// IsSessionExpired is the kill switch: the server rejected the session
	// but no explicit logout occurred. It is mutually exclusive with User.
	IsSessionExpired bool
}

// Snapshot is a point-in-time copy of [State] handed to readers. The embedded
// user, if any, is a copy; mutating it does not affect the store.
type Snapshot struct {
	User *User

	HasHydrated      bool
	IsValidating     bool
	IsLoggingOut     bool
	IsSessionExpired bool

	// Epoch counts logout and expiry transitions. A flow that captured the
	// epoch before a slow fetch can detect an intervening teardown.
	Epoch uint64
}

// IsAuthenticated reports whether a user identity is resolved.
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

// Resolved reports whether hydration finished and no reconciliation is in
// flight, i.e. the snapshot is safe for a guard decision.
func (s Snapshot) Resolved() bool {
	return s.HasHydrated && !s.IsValidating
}
