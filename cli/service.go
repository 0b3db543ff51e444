package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/viant/mcpadmin"
)

var (
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	label   = color.New(color.Bold)
)

// Service executes one command against a configured client
type Service struct {
	client  *mcpadmin.Client
	options *Options
	out     io.Writer
}

// Setup reports whether the backend still needs an initial administrator
func (s *Service) Setup(ctx context.Context) error {
	status, err := s.client.Auth.CheckSystemSetup(ctx)
	if err != nil {
		return err
	}
	if status.NeedsSetup() {
		_, _ = warning.Fprintln(s.out, "no administrator configured")
		return nil
	}
	_, _ = success.Fprintln(s.out, "administrator configured")
	return nil
}

// Login authenticates the admin and persists the credential
func (s *Service) Login(ctx context.Context) error {
	identity, secret, err := adminCredentials(ctx, s.options)
	if err != nil {
		return err
	}
	if identity == "" || secret == "" {
		return fmt.Errorf("identity and secret are required, use --identity/--secret or --secrets")
	}
	if err = s.client.Login(ctx, identity, secret); err != nil {
		return err
	}
	_, _ = success.Fprintf(s.out, "logged in as %v\n", s.client.Auth.Current().Identity)
	return nil
}

// Whoami prints the stored credential
func (s *Service) Whoami(_ context.Context) error {
	record := s.client.Auth.Current()
	if !record.Authenticated() {
		_, _ = warning.Fprintln(s.out, "not logged in")
		return nil
	}
	_, _ = label.Fprint(s.out, "identity: ")
	_, _ = fmt.Fprintln(s.out, record.Identity)
	_, _ = label.Fprint(s.out, "role: ")
	_, _ = fmt.Fprintln(s.out, record.Role)
	if record.Token != nil && !record.Token.Expiry.IsZero() {
		_, _ = label.Fprint(s.out, "expires: ")
		_, _ = fmt.Fprintln(s.out, record.Token.Expiry.Format(time.RFC3339))
	}
	return nil
}

// Call invokes a tool with optional JSON object arguments and prints its data
func (s *Service) Call(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("tool name is required")
	}
	var arguments map[string]interface{}
	if len(args) > 1 {
		if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
			return fmt.Errorf("invalid tool arguments: %w", err)
		}
	}
	result := s.client.CallTool(ctx, args[0], arguments)
	if !result.Success {
		return result.Err
	}
	return s.printJSON(result.Data)
}

// Logout revokes the credential
func (s *Service) Logout(ctx context.Context) error {
	s.client.Logout(ctx)
	_, _ = success.Fprintln(s.out, "logged out")
	return nil
}

func (s *Service) printJSON(data json.RawMessage) error {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		_, err = fmt.Fprintln(s.out, string(data))
		return err
	}
	formatted, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(formatted))
	return err
}

// NewService creates a service writing to out
func NewService(client *mcpadmin.Client, options *Options, out io.Writer) *Service {
	return &Service{client: client, options: options, out: out}
}
