package flows

import "context"

// LogoutStore is the subset of the session store the teardown flows need.
type LogoutStore interface {
	Logout()
	SetLoggingOut(bool)
}

// LogoutDeps captures teardown flow dependencies.
type LogoutDeps struct {
	Store        LogoutStore
	NotifyServer func(context.Context) error
	Navigate     func(route string)
	LoginRoute   string
	Warn         func(string, ...any)
}

// LogoutResult reports whether the server acknowledged the logout. Local
// teardown always completes regardless.
type LogoutResult struct {
	NotifyErr error
}

// RunLogout tears down an explicit user logout: local state first, then a
// best-effort server notify, then navigation to the login route. A failed
// notify is reported but never blocks the teardown.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	deps.Store.SetLoggingOut(true)
	deps.Store.Logout()

	result := LogoutResult{NotifyErr: notifyQuietly(ctx, deps)}

	if deps.Navigate != nil {
		deps.Navigate(deps.LoginRoute)
	}
	return result
}

// RunForcedLogout tears down a server-directed logout. The local session is
// cleared synchronously before anything else so no guarded screen renders
// with revoked credentials; the notify failure is swallowed entirely.
func RunForcedLogout(ctx context.Context, deps LogoutDeps) {
	deps.Store.Logout()
	_ = notifyQuietly(ctx, deps)
	if deps.Navigate != nil {
		deps.Navigate(deps.LoginRoute)
	}
}

func notifyQuietly(ctx context.Context, deps LogoutDeps) error {
	if deps.NotifyServer == nil {
		return nil
	}
	err := deps.NotifyServer(ctx)
	if err != nil && deps.Warn != nil {
		deps.Warn("sesskit: logout notify failed: %v", err)
	}
	return err
}
