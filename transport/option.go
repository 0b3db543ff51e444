package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/mcp-protocol/schema"
)

// Option configures a Session
type Option func(s *Session)

// WithHTTPClient sets the HTTP client used for every exchange
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.httpClient = client
	}
}

// WithTimeout sets the per-request timeout (default 30s)
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithTokenSource sets the bearer credential getter
func WithTokenSource(tokens TokenSource) Option {
	return func(s *Session) {
		s.tokens = tokens
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClientInfo sets the client identity sent on initialize
func WithClientInfo(name, version string) Option {
	return func(s *Session) {
		s.info = *schema.NewImplementation(name, version)
	}
}

// WithProtocolVersion overrides the protocol version sent on initialize
func WithProtocolVersion(version string) Option {
	return func(s *Session) {
		if version != "" {
			s.protocolVersion = version
		}
	}
}

// WithCapabilities set capabilities
func WithCapabilities(capabilities schema.ClientCapabilities) Option {
	return func(s *Session) {
		s.capabilities = capabilities
	}
}

// ClientOption configures a Client
type ClientOption func(c *Client)

// WithRefresher sets the credential refresher consulted on 401
func WithRefresher(refresher Refresher) ClientOption {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// WithLogoutNotifier sets the forced-logout notifier
func WithLogoutNotifier(notifier LogoutNotifier) ClientOption {
	return func(c *Client) {
		c.logout = notifier
	}
}

// WithClientLogger sets logger
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
