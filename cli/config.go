package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"github.com/viant/mcpadmin"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"gopkg.in/yaml.v3"
)

// clientOptions merges the config file (if any) with command line overrides.
func clientOptions(ctx context.Context, options *Options) (*mcpadmin.ClientOptions, error) {
	ret := &mcpadmin.ClientOptions{}
	if options.ConfigURL != "" {
		fs := afs.New()
		data, err := fs.DownloadWithURL(ctx, options.ConfigURL)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %v: %w", options.ConfigURL, err)
		}
		if err = yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("invalid config %v: %w", options.ConfigURL, err)
		}
	}
	if options.URL != "" {
		ret.URL = options.URL
	}
	if options.TimeoutSeconds > 0 {
		ret.TimeoutSeconds = options.TimeoutSeconds
	}
	if options.CredentialFile != "" {
		ret.CredentialFile = options.CredentialFile
	}
	if ret.CredentialFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate credential file: %w", err)
		}
		ret.CredentialFile = filepath.Join(home, ".mcpadmin", "credential.json")
	}
	return ret, nil
}

// adminCredentials resolves identity and secret from flags, falling back to a scy secret resource.
func adminCredentials(ctx context.Context, options *Options) (string, string, error) {
	if options.SecretsURL == "" {
		return options.Identity, options.Secret, nil
	}
	resource := scy.NewResource(&cred.Basic{}, options.SecretsURL, options.SecretsKey)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return "", "", fmt.Errorf("failed to load secrets %v: %w", options.SecretsURL, err)
	}
	basic, ok := secret.Target.(*cred.Basic)
	if !ok {
		return "", "", fmt.Errorf("unexpected secret type %T", secret.Target)
	}
	identity := options.Identity
	if identity == "" {
		identity = basic.Username
	}
	return identity, basic.Password, nil
}
