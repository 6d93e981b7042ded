package flows

import (
	"context"

	"github.com/gogadget/sesskit/api"
	"github.com/gogadget/sesskit/session"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	// LoginFailureCredentials means POST /auth/login rejected the attempt.
	LoginFailureCredentials
	// LoginFailureIdentityFetch means authentication succeeded (the cookie
	// is set) but the follow-up identity fetch failed. The caller decides
	// whether to surface this as a partial success.
	LoginFailureIdentityFetch
)

// LoginStore is the subset of the session store the login flow needs.
type LoginStore interface {
	Login(user session.User)
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Authenticate  func(ctx context.Context, email, password string) error
	FetchIdentity func(context.Context) (api.MeData, error)
	Store         LoginStore
}

// LoginResult carries the hydrated identity or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	User    *session.User
}

// RunLogin authenticates and then hydrates the identity. The login response
// itself carries no identity — a successful POST /auth/login only sets the
// session cookie, so the flow always follows with the who-am-I endpoint.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	if err := deps.Authenticate(ctx, email, password); err != nil {
		return LoginResult{Failure: LoginFailureCredentials, Err: err}
	}

	me, err := deps.FetchIdentity(ctx)
	if err != nil {
		return LoginResult{Failure: LoginFailureIdentityFetch, Err: err}
	}

	user := session.User{
		ID:    me.UserID,
		Name:  me.Name,
		Email: me.Email,
		Role:  me.Role,
	}
	deps.Store.Login(user)
	return LoginResult{Failure: LoginFailureNone, User: &user}
}
