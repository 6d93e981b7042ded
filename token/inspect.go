package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName is the session cookie set by POST /auth/login.
const DefaultCookieName = "access_token"

var (
	// ErrNoToken is returned when the request carries no session cookie.
	ErrNoToken = errors.New("no access token cookie")
	// ErrMalformed is returned when the cookie value is not a parseable JWT.
	ErrMalformed = errors.New("malformed access token")
)

// Info is the unverified view of an access token. It is advisory only: the
// subject and expiry come from an unvalidated payload and must never gate
// authorization.
type Info struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token's stated expiry has passed. Tokens
// without an exp claim never report expired.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ExpiresWithin reports whether the token expires inside d from now.
func (i Info) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now.Add(d))
}

// Inspector reads the session cookie from requests. The zero value uses
// [DefaultCookieName].
type Inspector struct {
	CookieName string
}

func (in Inspector) cookieName() string {
	if in.CookieName == "" {
		return DefaultCookieName
	}
	return in.CookieName
}

// Peek parses value without verifying the signature and returns the claims
// the client is allowed to act on.
func (in Inspector) Peek(value string) (Info, error) {
	if value == "" {
		return Info{}, ErrNoToken
	}

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(value, &claims); err != nil {
		return Info{}, errors.Join(ErrMalformed, err)
	}

	info := Info{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// FromRequest reads and peeks the session cookie on r. A missing cookie
// returns [ErrNoToken].
func (in Inspector) FromRequest(r *http.Request) (Info, error) {
	cookie, err := r.Cookie(in.cookieName())
	if err != nil {
		return Info{}, ErrNoToken
	}
	return in.Peek(cookie.Value)
}
