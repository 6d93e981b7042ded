package sesskit

import (
	"errors"
	"time"
)

// Config defines the engine's behavior. Configure before [Builder.Build];
// the engine treats it as immutable afterwards.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Guard   GuardConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig controls transport and retry behavior of the underlying client.
type APIConfig struct {
	BaseURL string

	// MaxAttempts caps tries per request for network/5xx failures. Client
	// errors always fail on the first attempt.
	MaxAttempts   int
	Timeout       time.Duration
	RetryInterval time.Duration
	FailureBuffer int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls persistence and routing of the session record.
type SessionConfig struct {
	// StorageName keys the persisted record in the configured backend.
	StorageName string

	LoginRoute     string
	DashboardRoute string

	// AllowedRoles is the default role set for guarded areas. Guards may
	// narrow it per area but never widen it.
	AllowedRoles []Role
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig controls route-guard suspension behavior.
type GuardConfig struct {
	// ResolveTimeout bounds how long a guard waits for hydration and
	// bootstrap to resolve before it gives up and redirects to login.
	ResolveTimeout time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async lifecycle-event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns the baseline configuration with baseURL applied.
// Hosts tweak fields and pass the result to [Builder.WithConfig].
func DefaultConfig(baseURL string) Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	return cfg
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			MaxAttempts:   3,
			Timeout:       10 * time.Second,
			RetryInterval: 250 * time.Millisecond,
			FailureBuffer: 64,
		},
		Session: SessionConfig{
			StorageName:    "auth-storage",
			LoginRoute:     "/login",
			DashboardRoute: "/dashboard",
			AllowedRoles:   []Role{RoleSuperAdmin, RoleAdmin},
		},
		Guard: GuardConfig{
			ResolveTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.AllowedRoles = append([]Role(nil), cfg.Session.AllowedRoles...)
	return out
}

// Validate checks the configuration for contradictions. Build calls it; it
// is exported so hosts can validate eagerly.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL required")
	}
	if c.API.MaxAttempts < 1 {
		return errors.New("API MaxAttempts must be at least 1")
	}
	if c.Session.StorageName == "" {
		return errors.New("Session StorageName required")
	}
	if c.Session.LoginRoute == "" {
		return errors.New("Session LoginRoute required")
	}
	if len(c.Session.AllowedRoles) == 0 {
		return errors.New("Session AllowedRoles must not be empty")
	}
	if c.Guard.ResolveTimeout <= 0 {
		return errors.New("Guard ResolveTimeout must be positive")
	}
	return nil
}
