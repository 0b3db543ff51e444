package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/mcpadmin/auth/store"
	"github.com/viant/mcpadmin/transport"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Caller is the low-level tool primitive; it must not trigger refreshes itself.
type Caller interface {
	CallToolRaw(ctx context.Context, name string, args map[string]interface{}) *transport.Result
}

// SetupStatus reports whether the backend has been provisioned with a privileged account
type SetupStatus struct {
	HasAdmin bool `json:"has_admin"`
}

// NeedsSetup reports first-run provisioning mode
func (s *SetupStatus) NeedsSetup() bool {
	return !s.HasAdmin
}

// Coordinator owns the admin credential lifecycle: login, single-flight refresh and revocation.
type Coordinator struct {
	caller         Caller
	store          store.Store
	tools          Tools
	logger         *slog.Logger
	minTokenLength int
	refreshing     singleflight.Group
}

// CheckSystemSetup asks the backend whether any privileged account exists yet
func (c *Coordinator) CheckSystemSetup(ctx context.Context) (*SetupStatus, error) {
	result := transport.Decode[SetupStatus](c.caller.CallToolRaw(ctx, c.tools.SetupStatus, nil))
	if !result.Success {
		return nil, result.Err
	}
	return result.Data, nil
}

// AuthenticateAdmin logs in and stores the credential when the backend grants the admin role.
func (c *Coordinator) AuthenticateAdmin(ctx context.Context, identity, secret string) error {
	if identity == "" || secret == "" {
		return transport.NewAuthError("identity and secret are required", nil)
	}
	result := transport.Decode[tokenResponse](c.caller.CallToolRaw(ctx, c.tools.Login, map[string]interface{}{
		"username": identity,
		"password": secret,
	}))
	if !result.Success {
		return result.Err
	}
	credential, err := newCredential(result.Data, nil, c.minTokenLength)
	if err != nil {
		return err
	}
	if credential.Role != store.RoleAdmin {
		return transport.NewAuthError(fmt.Sprintf("role %q is not permitted", credential.Role), nil)
	}
	if credential.Identity == "" {
		credential.Identity = identity
	}
	c.store.Set(credential)
	c.logger.Info("admin authenticated", "identity", credential.Identity)
	return nil
}

// RefreshAuthToken renews the credential. Concurrent callers share a single network
// refresh and observe the same outcome. The shared attempt is not cancelled when a
// waiting caller gives up; the transport timeout bounds it.
func (c *Coordinator) RefreshAuthToken(ctx context.Context) bool {
	if c.store.AccessToken() == "" {
		return false
	}
	ch := c.refreshing.DoChan(refreshKey, func() (interface{}, error) {
		return c.doRefresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case ret := <-ch:
		ok, _ := ret.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

// doRefresh applies the refreshed credential only if no other mutation happened while the call was in flight.
func (c *Coordinator) doRefresh(ctx context.Context) bool {
	record := c.store.Lookup()
	generation := record.Generation
	refreshToken := record.RefreshToken()
	if refreshToken == "" {
		c.store.CompareAndClear(generation)
		return false
	}
	result := transport.Decode[tokenResponse](c.caller.CallToolRaw(ctx, c.tools.Refresh, map[string]interface{}{
		"refresh_token": refreshToken,
	}))
	if !result.Success {
		c.logger.Info("credential refresh failed", "error", result.Err)
		c.store.CompareAndClear(generation)
		return false
	}
	if c.store.Generation() != generation {
		c.logger.Warn("discarding stale refresh result", "generation", generation)
		return false
	}
	credential, err := newCredential(result.Data, &record.Credential, c.minTokenLength)
	if err != nil {
		c.logger.Info("refreshed credential rejected", "error", err)
		c.store.CompareAndClear(generation)
		return false
	}
	if !c.store.CompareAndSet(generation, credential) {
		c.logger.Warn("discarding stale refresh result", "generation", generation)
		return false
	}
	c.logger.Debug("credential refreshed", "identity", credential.Identity)
	return true
}

// RevokeToken ends the session: local state is cleared first, then both tokens are
// revoked server-side. Revocation failures are logged, never returned.
func (c *Coordinator) RevokeToken(ctx context.Context) {
	record := c.store.Lookup()
	c.store.Clear()
	var group errgroup.Group
	revoke := func(token, hint string) {
		if token == "" {
			return
		}
		group.Go(func() error {
			result := c.caller.CallToolRaw(ctx, c.tools.Revoke, map[string]interface{}{
				"token":           token,
				"token_type_hint": hint,
			})
			if !result.Success {
				c.logger.Warn("token revocation failed", "hint", hint, "error", result.Err)
				return result.Err
			}
			return nil
		})
	}
	revoke(record.AccessToken(), "access_token")
	revoke(record.RefreshToken(), "refresh_token")
	_ = group.Wait()
}

// Logout clears the local credential without contacting the backend
func (c *Coordinator) Logout() {
	c.store.Clear()
}

// ForceLogout implements transport.LogoutNotifier. A failed refresh has already
// cleared the credential it tried to renew; anything stored since is newer and kept.
func (c *Coordinator) ForceLogout(ctx context.Context) {
	c.logger.Info("forced logout", "authenticated", c.IsAuthenticated())
}

// IsAuthenticated reports an admin credential is held
func (c *Coordinator) IsAuthenticated() bool {
	return c.store.Lookup().Authenticated()
}

// Current returns the credential snapshot
func (c *Coordinator) Current() store.Record {
	return c.store.Lookup()
}

// Store returns the credential store
func (c *Coordinator) Store() store.Store {
	return c.store
}

// New creates a coordinator issuing its calls through caller
func New(caller Caller, credentials store.Store, options ...Option) *Coordinator {
	ret := &Coordinator{
		caller:         caller,
		store:          credentials,
		tools:          DefaultTools(),
		logger:         slog.Default(),
		minTokenLength: DefaultMinTokenLength,
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.tools.init()
	return ret
}

var _ transport.Refresher = (*Coordinator)(nil)
var _ transport.LogoutNotifier = (*Coordinator)(nil)
