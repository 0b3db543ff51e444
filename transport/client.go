package transport

import (
	"context"
	"log/slog"
)

// Client is the credential-aware entry point used by command handlers.
type Client struct {
	session   *Session
	refresher Refresher
	logout    LogoutNotifier
	logger    *slog.Logger
}

// CallTool calls a tool; on a 401 it asks the refresher for a new credential and retries once.
// When the refresh fails the logout notifier is told and the original failure is returned.
// A caller whose ctx ends while waiting for the refresh gets a transport failure and no logout.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) *Result {
	result := c.session.CallToolRaw(ctx, name, args)
	if !result.Unauthenticated() || c.refresher == nil {
		return result
	}
	if c.refresher.RefreshAuthToken(ctx) {
		c.logger.Debug("credential refreshed, retrying", "tool", name)
		return c.session.CallToolRaw(ctx, name, args)
	}
	if err := ctx.Err(); err != nil {
		// the shared refresh keeps running for other callers; only this call gives up
		return failure(NewTransportError("stopped waiting for credential refresh", 0, err))
	}
	c.logger.Info("credential refresh failed, forcing logout", "tool", name)
	if c.logout != nil {
		c.logout.ForceLogout(ctx)
	}
	return result
}

// Session returns the underlying session
func (c *Client) Session() *Session {
	return c.session
}

// Disconnect drops the session
func (c *Client) Disconnect() {
	c.session.Disconnect()
}

// NewClient creates a client over session
func NewClient(session *Session, options ...ClientOption) *Client {
	ret := &Client{session: session, logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var _ Caller = (*Client)(nil)
