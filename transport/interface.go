package transport

import "context"

// TokenSource supplies the bearer credential for outgoing calls; empty means anonymous.
type TokenSource interface {
	AccessToken() string
}

// Refresher renews the bearer credential, reporting whether a usable one is now available.
type Refresher interface {
	RefreshAuthToken(ctx context.Context) bool
}

// LogoutNotifier is told when a credential could not be refreshed and the session is over.
type LogoutNotifier interface {
	ForceLogout(ctx context.Context)
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func() string

func (f TokenSourceFunc) AccessToken() string { return f() }

// RefresherFunc adapts a function to Refresher
type RefresherFunc func(ctx context.Context) bool

func (f RefresherFunc) RefreshAuthToken(ctx context.Context) bool { return f(ctx) }

// LogoutFunc adapts a function to LogoutNotifier
type LogoutFunc func(ctx context.Context)

func (f LogoutFunc) ForceLogout(ctx context.Context) { f(ctx) }
