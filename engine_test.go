package sesskit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogadget/sesskit/session"
)

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) ReplaceTo(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *routeRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": data})
}

func writeErr(w http.ResponseWriter, status int, message string, shouldLogout bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	errBody := map[string]any{"message": message}
	if shouldLogout {
		errBody["shouldLogout"] = true
	}
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": errBody})
}

func meData() map[string]any {
	return map[string]any{
		"userId": "u1",
		"name":   "Ann",
		"email":  "a@x.com",
		"role":   "ADMIN",
	}
}

type engineFixture struct {
	engine  *Engine
	nav     *routeRecorder
	storage *session.MemoryStorage
}

func newEngineFixture(t *testing.T, handler http.Handler) *engineFixture {
	t.Helper()
	return newEngineFixtureWithStorage(t, handler, session.NewMemoryStorage())
}

func newEngineFixtureWithStorage(t *testing.T, handler http.Handler, storage *session.MemoryStorage) *engineFixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.API.RetryInterval = time.Millisecond
	cfg.Audit.Enabled = false

	nav := &routeRecorder{}
	engine, err := New().
		WithConfig(cfg).
		WithStorage(storage).
		WithNavigator(nav).
		WithWarn(func(string, ...any) {}).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineFixture{engine: engine, nav: nav, storage: storage}
}

func waitForState(t *testing.T, engine *Engine, cond func(Snapshot) bool) Snapshot {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		changed := engine.Changed()
		snap := engine.Snapshot()
		if cond(snap) {
			return snap
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("state never reached expected condition, last %+v", snap)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func seedPersistedUser(t *testing.T, storage *session.MemoryStorage, name string) {
	t.Helper()

	record := map[string]any{
		"user": map[string]any{
			"id":    "u1",
			"name":  "Ann",
			"email": "a@x.com",
			"role":  "ADMIN",
		},
		"isSessionExpired": false,
	}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if err := storage.Save(context.Background(), name, data); err != nil {
		t.Fatalf("seed storage: %v", err)
	}
}

func TestStartVerifiesCleanSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	fix := newEngineFixture(t, mux)

	outcome, err := fix.engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != BootstrapVerified {
		t.Fatalf("expected verified bootstrap, got %v", outcome)
	}

	snap := fix.engine.Snapshot()
	if !snap.IsAuthenticated() || snap.User.ID != "u1" {
		t.Fatalf("expected authenticated session, got %+v", snap)
	}
	if got := fix.engine.MetricsSnapshot().Counters[MetricBootstrapVerified]; got != 1 {
		t.Fatalf("expected verified counter 1, got %d", got)
	}
}

func TestStartExpiresRevokedCleanSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "Unauthorized", false)
	})
	fix := newEngineFixture(t, mux)

	outcome, err := fix.engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != BootstrapExpired {
		t.Fatalf("expected expired bootstrap, got %v", outcome)
	}

	snap := fix.engine.Snapshot()
	if snap.User != nil || !snap.IsSessionExpired {
		t.Fatalf("expected expired anonymous session, got %+v", snap)
	}
	// No redirect and no logout call: expiry is a state, not a teardown.
	if fix.nav.Last() != "" {
		t.Fatalf("bootstrap expiry must not navigate, got %q", fix.nav.Last())
	}
}

func TestStartTrustsPersistedUserWithoutRevalidating(t *testing.T) {
	var meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		writeOK(w, meData())
	})

	storage := session.NewMemoryStorage()
	fix := newEngineFixtureWithStorage(t, mux, storage)
	seedPersistedUser(t, storage, "auth-storage")

	outcome, err := fix.engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != BootstrapSkipped {
		t.Fatalf("expected skipped bootstrap for restored user, got %v", outcome)
	}
	if meCalls.Load() != 0 {
		t.Fatalf("expected no identity fetch, got %d", meCalls.Load())
	}

	snap := fix.engine.Snapshot()
	if !snap.IsAuthenticated() || snap.User.Name != "Ann" {
		t.Fatalf("expected restored identity, got %+v", snap)
	}
}

func TestStartTwiceRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := fix.engine.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestBootstrapNeverRerunsAfterSettling(t *testing.T) {
	var meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		writeErr(w, http.StatusUnauthorized, "Unauthorized", false)
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	calls := meCalls.Load()

	if outcome := fix.engine.Bootstrap(context.Background()); outcome != BootstrapSkipped {
		t.Fatalf("expected second bootstrap skipped, got %v", outcome)
	}
	if meCalls.Load() != calls {
		t.Fatal("second bootstrap must not hit the network")
	}
}

func TestBootstrapTransientFailureLeavesStateUntouched(t *testing.T) {
	var meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		writeErr(w, http.StatusServiceUnavailable, "upstream down", false)
	})
	fix := newEngineFixture(t, mux)

	outcome, err := fix.engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome != BootstrapInconclusive {
		t.Fatalf("expected inconclusive bootstrap, got %v", outcome)
	}
	if got := meCalls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts at the retry cap, got %d", got)
	}

	snap := fix.engine.Snapshot()
	if snap.User != nil || snap.IsSessionExpired {
		t.Fatalf("transient failure must not mutate session state, got %+v", snap)
	}
}

func TestLoginCommitsIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	fix := newEngineFixture(t, mux)

	snap, err := fix.engine.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !snap.IsAuthenticated() || snap.User.Role != RoleAdmin {
		t.Fatalf("expected authenticated admin, got %+v", snap)
	}
	if got := fix.engine.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("expected login success counter 1, got %d", got)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "Invalid credentials", false)
	})
	fix := newEngineFixture(t, mux)

	_, err := fix.engine.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if snap := fix.engine.Snapshot(); snap.User != nil {
		t.Fatalf("failed login must not commit a user, got %+v", snap)
	}
}

func TestLoginIdentityFetchFailureCommitsNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusInternalServerError, "boom", false)
	})
	fix := newEngineFixture(t, mux)

	_, err := fix.engine.Login(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
	if snap := fix.engine.Snapshot(); snap.User != nil {
		t.Fatalf("half-finished login must not commit a user, got %+v", snap)
	}
}

func TestLogoutTearsDownAndNavigates(t *testing.T) {
	var logoutCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
		writeOK(w, map[string]any{})
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Login(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := fix.engine.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	snap := fix.engine.Snapshot()
	if snap.User != nil || snap.IsLoggingOut {
		t.Fatalf("expected torn-down session, got %+v", snap)
	}
	if logoutCalls.Load() != 1 {
		t.Fatalf("expected 1 server notify, got %d", logoutCalls.Load())
	}
	if fix.nav.Last() != "/login" {
		t.Fatalf("expected navigation to /login, got %q", fix.nav.Last())
	}
}

func TestLogoutNotifyFailureStillTearsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusBadGateway, "gateway down", false)
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Login(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	err := fix.engine.Logout(context.Background())
	if err == nil {
		t.Fatal("expected notify failure to be reported")
	}
	if snap := fix.engine.Snapshot(); snap.User != nil {
		t.Fatalf("teardown must complete despite notify failure, got %+v", snap)
	}
	if fix.nav.Last() != "/login" {
		t.Fatalf("expected navigation to /login, got %q", fix.nav.Last())
	}
}

func TestLogoutDirectiveForcesTeardown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusForbidden, "session revoked", true)
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, fix.engine, func(s Snapshot) bool { return s.IsAuthenticated() })

	if _, err := fix.engine.API().Request(context.Background(), http.MethodGet, "/reports", nil); err == nil {
		t.Fatal("expected directive-carrying request to fail")
	}

	snap := waitForState(t, fix.engine, func(s Snapshot) bool { return s.User == nil })
	if snap.IsLoggingOut {
		t.Fatalf("expected finished teardown, got %+v", snap)
	}
	waitFor(t, "navigation to /login", func() bool { return fix.nav.Last() == "/login" })
	waitFor(t, "forced logout counter", func() bool {
		return fix.engine.MetricsSnapshot().Counters[MetricForcedLogout] == 1
	})
}

func TestLogoutDirectiveInSuccessStatusForcesTeardown(t *testing.T) {
	var revoked atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if revoked.Load() {
			// Revocation reported inside the envelope under a 200.
			writeErr(w, http.StatusOK, "session revoked", true)
			return
		}
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, fix.engine, func(s Snapshot) bool { return s.IsAuthenticated() })

	revoked.Store(true)
	if _, err := fix.engine.API().Me(context.Background()); err == nil {
		t.Fatal("expected directive-carrying response to fail")
	}

	waitForState(t, fix.engine, func(s Snapshot) bool { return s.User == nil })
	waitFor(t, "navigation to /login", func() bool { return fix.nav.Last() == "/login" })
	waitFor(t, "forced logout counter", func() bool {
		return fix.engine.MetricsSnapshot().Counters[MetricForcedLogout] == 1
	})
}

func TestPlainErrorsDoNotForceLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "Unauthorized", false)
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, fix.engine, func(s Snapshot) bool { return s.IsAuthenticated() })

	if _, err := fix.engine.API().Request(context.Background(), http.MethodGet, "/reports", nil); err == nil {
		t.Fatal("expected request to fail")
	}

	// The monitor sees the failure but must not tear down without the flag.
	time.Sleep(50 * time.Millisecond)
	if snap := fix.engine.Snapshot(); !snap.IsAuthenticated() {
		t.Fatalf("plain 401 must not force logout, got %+v", snap)
	}
}

func TestForcedLogoutCoalescesConcurrentDirectives(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var logoutCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if logoutCalls.Add(1) == 1 {
			close(entered)
			<-release
		}
		writeOK(w, map[string]any{})
	})
	fix := newEngineFixture(t, mux)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		fix.engine.ForceLogout(context.Background())
		close(done)
	}()

	<-entered
	// Second directive lands while the first teardown is mid-notify.
	fix.engine.ForceLogout(context.Background())
	close(release)
	<-done

	counters := fix.engine.MetricsSnapshot().Counters
	if counters[MetricForcedLogout] != 1 {
		t.Fatalf("expected a single teardown, got %d", counters[MetricForcedLogout])
	}
	if counters[MetricForcedLogoutDuplicate] != 1 {
		t.Fatalf("expected one coalesced duplicate, got %d", counters[MetricForcedLogoutDuplicate])
	}
	if logoutCalls.Load() != 1 {
		t.Fatalf("expected one server notify, got %d", logoutCalls.Load())
	}
}

func TestForcedLogoutGateRearmsAfterCompletion(t *testing.T) {
	var logoutCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
		writeOK(w, map[string]any{})
	})
	fix := newEngineFixture(t, mux)

	fix.engine.ForceLogout(context.Background())
	fix.engine.ForceLogout(context.Background())

	counters := fix.engine.MetricsSnapshot().Counters
	if counters[MetricForcedLogout] != 2 {
		t.Fatalf("expected sequential directives to both run, got %d", counters[MetricForcedLogout])
	}
	if counters[MetricForcedLogoutDuplicate] != 0 {
		t.Fatalf("expected no duplicates for sequential directives, got %d", counters[MetricForcedLogoutDuplicate])
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, meData())
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	})

	storage := session.NewMemoryStorage()
	first := newEngineFixtureWithStorage(t, mux, storage)
	if _, err := first.engine.Login(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	first.engine.Close()

	second := newEngineFixtureWithStorage(t, mux, storage)
	outcome, err := second.engine.Start(context.Background())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if outcome != BootstrapSkipped {
		t.Fatalf("expected restored user to skip bootstrap, got %v", outcome)
	}
	if snap := second.engine.Snapshot(); !snap.IsAuthenticated() {
		t.Fatalf("expected restored identity after restart, got %+v", snap)
	}
}

func TestLifecycleRejectedAfterClose(t *testing.T) {
	storage := session.NewMemoryStorage()
	seedPersistedUser(t, storage, "Ann")
	fix := newEngineFixtureWithStorage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{})
	}), storage)

	if _, err := fix.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	fix.engine.Close()

	if err := fix.engine.Logout(context.Background()); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
	fix.engine.ForceLogout(context.Background())

	if snap := fix.engine.Snapshot(); !snap.IsAuthenticated() {
		t.Fatalf("closed engine must not tear down the session, got %+v", snap)
	}
	if got := fix.engine.MetricsSnapshot().Counters[MetricForcedLogout]; got != 0 {
		t.Fatalf("expected no forced teardown after close, got %d", got)
	}
}
