package auth

import "log/slog"

// Tools names the backend tools used by the coordinator
type Tools struct {
	SetupStatus string `yaml:"setupStatus,omitempty" json:"setupStatus,omitempty"`
	Login       string `yaml:"login,omitempty" json:"login,omitempty"`
	Refresh     string `yaml:"refresh,omitempty" json:"refresh,omitempty"`
	Revoke      string `yaml:"revoke,omitempty" json:"revoke,omitempty"`
}

// DefaultTools returns the default auth tool names
func DefaultTools() Tools {
	return Tools{
		SetupStatus: "auth_setup_status",
		Login:       "auth_login",
		Refresh:     "auth_refresh",
		Revoke:      "auth_revoke",
	}
}

func (t *Tools) init() {
	defaults := DefaultTools()
	if t.SetupStatus == "" {
		t.SetupStatus = defaults.SetupStatus
	}
	if t.Login == "" {
		t.Login = defaults.Login
	}
	if t.Refresh == "" {
		t.Refresh = defaults.Refresh
	}
	if t.Revoke == "" {
		t.Revoke = defaults.Revoke
	}
}

// Option configures a Coordinator
type Option func(c *Coordinator)

// WithTools overrides tool names; empty names keep defaults
func WithTools(tools Tools) Option {
	return func(c *Coordinator) {
		c.tools = tools
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMinTokenLength sets the shortest accepted access token
func WithMinTokenLength(length int) Option {
	return func(c *Coordinator) {
		if length > 0 {
			c.minTokenLength = length
		}
	}
}
