package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/mcpadmin"
	"github.com/viant/mcpadmin/mock"
)

// Run parses args and executes the requested command
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	return Execute(context.Background(), options, os.Stdout, os.Stderr)
}

// Execute runs the command described by options
func Execute(ctx context.Context, options *Options, out, errOut io.Writer) error {
	logger := NewLogger(errOut, options.LogLevel)
	command := options.Args.Command
	if command == "serve-mock" {
		backend := mock.New()
		logger.Info("serving mock backend", "address", options.Listen)
		_, _ = fmt.Fprintf(out, "mock backend listening on http://%v/mcp\n", options.Listen)
		return http.ListenAndServe(options.Listen, backend)
	}
	config, err := clientOptions(ctx, options)
	if err != nil {
		return err
	}
	config.Logger = logger
	config.OnForceLogout = func(ctx context.Context) {
		_, _ = warning.Fprintln(errOut, "session expired, please login again")
	}
	client, err := mcpadmin.NewClient(config)
	if err != nil {
		return err
	}
	defer client.Disconnect()
	service := NewService(client, options, out)
	switch command {
	case "setup":
		return service.Setup(ctx)
	case "login":
		return service.Login(ctx)
	case "whoami":
		return service.Whoami(ctx)
	case "call":
		return service.Call(ctx, options.Args.Rest)
	case "logout":
		return service.Logout(ctx)
	case "":
		return fmt.Errorf("command is required: setup | login | whoami | call | logout | serve-mock")
	default:
		return fmt.Errorf("unknown command: %v", command)
	}
}
