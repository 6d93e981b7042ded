package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized marks a server-confirmed absent or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEnvelope marks a response whose envelope reported ok=false.
	ErrEnvelope = errors.New("envelope not ok")
	// ErrRetryExhausted marks a transient failure that survived every retry.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// Error is a classified API failure. Status is the HTTP status code (0 for
// transport-level faults) and Body the decoded error body, when present.
type Error struct {
	Status  int
	Body    map[string]any
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// ShouldLogout reports whether the server attached the explicit logout
// directive to the error body. This flag, not the status code, is the sole
// trigger for the forced-logout path.
func (e *Error) ShouldLogout() bool {
	if e == nil || e.Body == nil {
		return false
	}
	v, ok := e.Body["shouldLogout"].(bool)
	return ok && v
}

// IsUnauthorized reports whether err is a server-confirmed 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable reports whether err is eligible for automatic retry: transport
// faults and 5xx-class responses. 4xx-class errors are final.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == 0 || apiErr.Status >= http.StatusInternalServerError
	}
	// Anything not classified is a transport fault.
	return err != nil
}

// ShouldLogout reports whether err carries the server's logout directive.
func ShouldLogout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.ShouldLogout()
}
