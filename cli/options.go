package cli

// Options are the mcpadmin command line options
type Options struct {
	URL            string `short:"u" long:"url" description:"backend tool endpoint url"`
	ConfigURL      string `short:"c" long:"config" description:"yaml config file url"`
	Identity       string `short:"i" long:"identity" description:"admin identity"`
	Secret         string `short:"s" long:"secret" description:"admin secret"`
	SecretsURL     string `long:"secrets" description:"scy secret resource url with admin credentials"`
	SecretsKey     string `long:"secrets-key" description:"scy secret key" default:"blowfish://default"`
	CredentialFile string `long:"credentials" description:"credential file, defaults to ~/.mcpadmin/credential.json"`
	TimeoutSeconds int    `short:"t" long:"timeout" description:"per request timeout in seconds"`
	LogLevel       string `long:"log-level" description:"log level: debug, info, warn, error" default:"warn"`
	Listen         string `long:"listen" description:"serve-mock listen address" default:"127.0.0.1:8765"`

	Args struct {
		Command string   `positional-arg-name:"command" description:"setup | login | whoami | call | logout | serve-mock"`
		Rest    []string `positional-arg-name:"args"`
	} `positional-args:"yes"`
}
