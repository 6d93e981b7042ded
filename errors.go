package sesskit

import (
	"errors"

	"github.com/gogadget/sesskit/api"
)

var (
	// ErrUnauthorized is returned when the server confirms there is no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned when POST /auth/login rejects the attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityUnavailable is returned when login succeeded but the follow-up identity fetch failed.
	ErrIdentityUnavailable = errors.New("login succeeded but identity fetch failed")
	// ErrNotHydrated is returned when an operation requires a hydrated store.
	ErrNotHydrated = errors.New("session store not hydrated")
	// ErrEngineNotReady is returned when an Engine method is called before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrEngineClosed is returned when an Engine method is called after Close.
	ErrEngineClosed = errors.New("engine closed")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("engine already started")
)

// IsUnauthorized reports whether err is a server-confirmed 401, from either
// the root sentinels or the API client's typed errors.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || api.IsUnauthorized(err)
}
