package middleware

import (
	"net/http"

	"github.com/gogadget/sesskit/token"
)

// RequireCookie rejects requests lacking a well-formed session cookie with
// a 303 redirect to loginRoute, before any guard suspension happens. It is
// the edge-proxy precheck: shape only, no signature verification, so a
// passing request still goes through [Guard] for the real decision.
func RequireCookie(inspector token.Inspector, loginRoute string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := inspector.FromRequest(r); err != nil {
				http.Redirect(w, r, loginRoute, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
