package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type requestIDContextKey struct{}

// WithRequestID attaches a caller-chosen request ID to ctx. When absent, the
// client stamps a fresh UUID per logical request; retries reuse the same ID
// so server logs can correlate attempts.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// FailureEvent is one surfaced request failure, published to the feed after
// classification and any retries.
type FailureEvent struct {
	Time         time.Time
	Method       string
	Path         string
	Status       int
	ShouldLogout bool
	Err          error
}

// Config controls transport, retry, and feed behavior.
type Config struct {
	BaseURL string

	// MaxAttempts caps tries per request for retryable failures. 4xx
	// responses always fail on the first attempt regardless.
	MaxAttempts int

	Timeout       time.Duration
	RetryInterval time.Duration
	FailureBuffer int
}

// DefaultConfig returns the client defaults: 3 attempts, 10s timeout,
// 250ms retry pacing, a 64-event failure buffer.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		MaxAttempts:   3,
		Timeout:       10 * time.Second,
		RetryInterval: 250 * time.Millisecond,
		FailureBuffer: 64,
	}
}

// Client executes envelope requests against the admin API. Safe for
// concurrent use after construction.
type Client struct {
	base        *url.URL
	http        *http.Client
	maxAttempts int
	limiter     *rate.Limiter
	failures    chan FailureEvent
	dropped     atomic.Uint64
}

// NewClient creates a [Client]. httpClient may be nil, in which case a
// cookie-jar client is built (the session is cookie-based; losing the jar
// means losing the session).
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 250 * time.Millisecond
	}
	if cfg.FailureBuffer <= 0 {
		cfg.FailureBuffer = 64
	}

	if httpClient == nil {
		jar, jarErr := cookiejar.New(nil)
		if jarErr != nil {
			return nil, fmt.Errorf("api: cookie jar: %w", jarErr)
		}
		httpClient = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	}

	return &Client{
		base:        base,
		http:        httpClient,
		maxAttempts: cfg.MaxAttempts,
		limiter:     rate.NewLimiter(rate.Every(cfg.RetryInterval), 1),
		failures:    make(chan FailureEvent, cfg.FailureBuffer),
	}, nil
}

// Failures returns the process-wide failure feed. Exactly one consumer (the
// session monitor) is expected; slow consumption drops events rather than
// blocking request paths.
func (c *Client) Failures() <-chan FailureEvent {
	return c.failures
}

// FailuresDropped returns how many failure events were dropped due to a full
// feed buffer.
func (c *Client) FailuresDropped() uint64 {
	return c.dropped.Load()
}

// Request executes method path against the API and returns the decoded
// envelope. body, when non-nil, is JSON-encoded. Transport faults and 5xx
// responses are retried up to the attempt cap; 4xx responses and envelopes
// fail immediately. Every final failure is published to the feed.
func (c *Client) Request(ctx context.Context, method, path string, body any) (Envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return Envelope{}, &Error{Message: "encode request body", Err: err}
		}
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.limiter.Wait(ctx); err != nil {
				lastErr = &Error{Message: "retry canceled", Err: err}
				break
			}
		}

		env, err := c.do(ctx, method, path, payload, requestID)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	if IsRetryable(lastErr) {
		lastErr = wrapExhausted(lastErr)
	}
	c.publishFailure(method, path, lastErr)
	return Envelope{}, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, requestID string) (Envelope, error) {
	target := c.base.JoinPath(path)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return Envelope{}, &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Envelope{}, &Error{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Envelope{}, errorFromResponse(resp.StatusCode, raw)
	}

	var env Envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return Envelope{}, &Error{Status: resp.StatusCode, Message: "decode envelope", Err: err}
		}
	}
	env.HTTPStatus = resp.StatusCode
	return env, nil
}

func errorFromResponse(status int, raw []byte) *Error {
	apiErr := &Error{Status: status, Message: strings.ToLower(http.StatusText(status))}

	var body map[string]any
	if json.Unmarshal(raw, &body) == nil && body != nil {
		apiErr.Body = body
		if env, ok := body["error"].(map[string]any); ok {
			// Error envelopes nest the directive under error.
			apiErr.Body = env
		}
		if msg, ok := apiErr.Body["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}
	return apiErr
}

func wrapExhausted(err error) error {
	var inner *Error
	if !errors.As(err, &inner) {
		return err
	}
	return &Error{
		Status:  inner.Status,
		Body:    inner.Body,
		Message: inner.Message,
		Err:     fmt.Errorf("%w: %v", ErrRetryExhausted, err),
	}
}

// Report publishes a failure for a request the caller executed through
// [Client.Request] and unwrapped itself. The endpoint helpers do this
// automatically; hosts unwrapping raw envelopes call Report so a logout
// directive delivered inside a 2xx response still reaches the feed.
func (c *Client) Report(method, path string, err error) {
	c.publishFailure(method, path, err)
}

func (c *Client) publishFailure(method, path string, err error) {
	if err == nil {
		return
	}
	event := FailureEvent{
		Time:   time.Now(),
		Method: method,
		Path:   path,
		Err:    err,
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		event.Status = apiErr.Status
		event.ShouldLogout = apiErr.ShouldLogout()
	}

	select {
	case c.failures <- event:
	default:
		c.dropped.Add(1)
	}
}

// exchange runs one envelope request end to end: execute, unwrap, and
// publish an envelope-level failure to the feed. Request publishes
// transport and status failures itself, but a directive can also arrive
// inside a 2xx body; without this the monitor would never see it.
func exchange[T any](ctx context.Context, c *Client, method, path string, body any, fallback string) (T, error) {
	var zero T
	env, err := c.Request(ctx, method, path, body)
	if err != nil {
		return zero, err
	}
	out, err := Unwrap[T](env, fallback)
	if err != nil {
		c.publishFailure(method, path, err)
		return zero, err
	}
	return out, nil
}

// Me fetches the current identity via GET /auth/me.
func (c *Client) Me(ctx context.Context) (MeData, error) {
	return exchange[MeData](ctx, c, http.MethodGet, "/auth/me", nil, "Unauthorized")
}

// Login authenticates via POST /auth/login. Success only sets the session
// cookie; the caller must follow with [Client.Me] for identity.
func (c *Client) Login(ctx context.Context, email, password string) error {
	req := LoginRequest{Email: email, Password: password}
	_, err := exchange[json.RawMessage](ctx, c, http.MethodPost, "/auth/login", req, "Login failed")
	return err
}

// Logout invalidates the server-side session via POST /auth/logout.
// Best-effort from the client's perspective.
func (c *Client) Logout(ctx context.Context) error {
	_, err := exchange[json.RawMessage](ctx, c, http.MethodPost, "/auth/logout", nil, "Logout failed")
	return err
}
