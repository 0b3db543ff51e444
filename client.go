package mcpadmin

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/mcpadmin/auth"
	"github.com/viant/mcpadmin/auth/store"
	"github.com/viant/mcpadmin/transport"
)

// ClientOptions defines options for configuring an admin client.
type ClientOptions struct {
	Name            string     `yaml:"name,omitempty" json:"name,omitempty"`
	Version         string     `yaml:"version,omitempty" json:"version,omitempty"`
	ProtocolVersion string     `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	URL             string     `yaml:"url" json:"url"`
	TimeoutSeconds  int        `yaml:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"`
	CredentialFile  string     `yaml:"credentialFile,omitempty" json:"credentialFile,omitempty"`
	Tools           auth.Tools `yaml:"tools,omitempty" json:"tools,omitempty"`

	// Logger defaults to slog.Default
	Logger *slog.Logger `yaml:"-" json:"-"`
	// OnForceLogout is told when the credential could not be refreshed and no newer credential is held.
	OnForceLogout func(ctx context.Context) `yaml:"-" json:"-"`
}

// Init sets defaults for unset options
func (c *ClientOptions) Init() {
	if c.Name == "" {
		c.Name = "mcpadmin"
	}
	if c.Version == "" {
		c.Version = "0.1"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(transport.DefaultTimeout / time.Second)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client bundles the credential-aware transport with the auth coordinator.
// Construct one per backend and pass it down; there is no package level instance.
type Client struct {
	*transport.Client
	Auth  *auth.Coordinator
	Store store.Store
}

// Login authenticates the admin
func (c *Client) Login(ctx context.Context, identity, secret string) error {
	return c.Auth.AuthenticateAdmin(ctx, identity, secret)
}

// Logout revokes the credential and drops the session
func (c *Client) Logout(ctx context.Context) {
	c.Auth.RevokeToken(ctx)
	c.Disconnect()
}

// NewClient wires store, session, coordinator and client by constructor injection.
func NewClient(options *ClientOptions) (*Client, error) {
	if options == nil || options.URL == "" {
		return nil, transport.NewConfigurationError("URL is required")
	}
	options.Init()
	logger := options.Logger

	var credentials store.Store
	if options.CredentialFile != "" {
		credentials = store.NewFileStore(options.CredentialFile, logger)
	} else {
		credentials = store.NewMemoryStore()
	}

	session := transport.NewSession(options.URL,
		transport.WithTokenSource(credentials),
		transport.WithTimeout(time.Duration(options.TimeoutSeconds)*time.Second),
		transport.WithLogger(logger),
		transport.WithClientInfo(options.Name, options.Version),
		transport.WithProtocolVersion(options.ProtocolVersion))

	coordinator := auth.New(session, credentials, auth.WithTools(options.Tools), auth.WithLogger(logger))

	var notifier transport.LogoutNotifier = coordinator
	if options.OnForceLogout != nil {
		onForceLogout := options.OnForceLogout
		notifier = transport.LogoutFunc(func(ctx context.Context) {
			coordinator.ForceLogout(ctx)
			if !coordinator.IsAuthenticated() {
				onForceLogout(ctx)
			}
		})
	}
	client := transport.NewClient(session,
		transport.WithRefresher(coordinator),
		transport.WithLogoutNotifier(notifier),
		transport.WithClientLogger(logger))
	return &Client{Client: client, Auth: coordinator, Store: credentials}, nil
}
