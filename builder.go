package sesskit

import (
	"errors"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/gogadget/sesskit/api"
	"github.com/gogadget/sesskit/internal/audit"
	"github.com/gogadget/sesskit/session"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call Build exactly once; the builder is not safe for concurrent use.
type Builder struct {
	config Config

	storage    session.Storage
	redis      redis.UniversalClient
	httpClient *http.Client
	navigator  Navigator
	auditSink  AuditSink
	warn       func(format string, args ...any)

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The config is copied;
// later mutation of cfg by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the API base URL without replacing the rest of the
// configuration.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStorage sets the persistence backend for the session record.
// Defaults to in-memory storage when neither this nor WithRedis is used.
func (b *Builder) WithStorage(storage session.Storage) *Builder {
	b.storage = storage
	return b
}

// WithRedis persists the session record in redis. Ignored when
// WithStorage was also called; an explicit backend wins.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the transport used for API calls. The engine
// still applies its own timeout and retry policy on top.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNavigator sets the host callback for forced route changes, such as
// the redirect to the login route after a forced logout.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithAuditSink sets the destination for lifecycle audit events. Without
// one, events are dropped via a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithWarn sets the logger for non-fatal conditions such as persistence
// failures. Defaults to the standard library logger.
func (b *Builder) WithWarn(warn func(format string, args ...any)) *Builder {
	b.warn = warn
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the engine. The engine
// is inert until [Engine.Start] runs hydration and bootstrap.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	storage := b.storage
	if storage == nil && b.redis != nil {
		storage = session.NewRedisStorage(b.redis, "")
	}
	if storage == nil {
		storage = session.NewMemoryStorage()
	}

	warn := b.warn
	if warn == nil {
		warn = log.Printf
	}
	store := session.NewStore(storage, cfg.Session.StorageName, warn)

	// -------- API CLIENT --------
	client, err := api.NewClient(api.Config{
		BaseURL:       cfg.API.BaseURL,
		MaxAttempts:   cfg.API.MaxAttempts,
		Timeout:       cfg.API.Timeout,
		RetryInterval: cfg.API.RetryInterval,
		FailureBuffer: cfg.API.FailureBuffer,
	}, b.httpClient)
	if err != nil {
		return nil, err
	}

	// -------- AUDIT --------
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	nav := b.navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}

	engine := &Engine{
		config:    cfg,
		store:     store,
		client:    client,
		navigator: nav,
		audit:     dispatcher,
		warn:      warn,
		settled:   make(chan struct{}),
	}

	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true
	return engine, nil
}
