package middleware

import (
	"context"
	"net/http"

	"github.com/gogadget/sesskit"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity a [Guard] injected for the
// current request.
func IdentityFromContext(ctx context.Context) (*sesskit.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*sesskit.Identity)
	return id, ok
}

// Guard protects a route subtree. It suspends the request until session
// state resolves, then either admits it with the identity in context or
// redirects to the login route with 303 See Other. An empty roles list
// uses the engine's configured default set.
func Guard(engine *sesskit.Engine, roles ...sesskit.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			decision := engine.Authorize(r.Context(), roles...)
			if !decision.Allowed {
				http.Redirect(w, r, engine.LoginRoute(), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, decision.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated is the inverse guard for the login area: a request
// with a live authenticated session is redirected to the dashboard instead
// of being shown the login screen again. Unresolved or unauthenticated
// state always falls through to the wrapped handler.
func RedirectAuthenticated(engine *sesskit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine != nil {
				snap := engine.Snapshot()
				if snap.Resolved() && snap.IsAuthenticated() {
					http.Redirect(w, r, engine.DashboardRoute(), http.StatusSeeOther)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
