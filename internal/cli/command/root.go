package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/config"
	"github.com/yndnr/lwm2m-seccfg/internal/cli/connection"
	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/buildinfo"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/tlsroots"
)

const (
	appName     = "lwm2m-seccfg-cli"
	metadataCfg = "cliConfig"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    appName,
		Usage:   "LwM2M device security configuration tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConnectCommand(),
			UseCommand(),
			DisconnectCommand(),
			ModesCommand(),
			DefaultsCommand(),
			PolicyCommand(),
			BootstrapCommand(),
			ObjectsCommand(),
			ProfileCommand(),
			ValidateCommand(),
			BackupCommand(),
			APIKeyCommand(),
			SystemCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[metadataCfg] = cfg
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (e.g., http://localhost:8080)",
			EnvVars: []string{"LWM2MSECCFG_SERVER"},
		},
		&cli.StringFlag{
			Name:    "api-key-id",
			Aliases: []string{"k"},
			Usage:   "API Key ID for authentication",
			EnvVars: []string{"LWM2MSECCFG_API_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API Key secret for authentication",
			EnvVars: []string{"LWM2MSECCFG_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "ca-cert",
			Usage:   "PEM file with extra CA certificates for https servers",
			EnvVars: []string{"LWM2MSECCFG_CA_CERT"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"LWM2MSECCFG_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server   string
	APIKeyID string
	APIKey   string
	CACert   string

	Output  string
	Wide    bool
	Timeout time.Duration
	Config  string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:   c.String("server"),
		APIKeyID: c.String("api-key-id"),
		APIKey:   c.String("api-key"),
		CACert:   c.String("ca-cert"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
		Timeout:  c.Duration("timeout"),
		Config:   c.String("config"),
	}
}

// GetConfig returns the loaded CLI config, or the defaults outside Run.
func GetConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metadataCfg].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// EnsureConnected returns an HTTP client for the resolved server.
// Flags win over the current saved connection, which wins over the default.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	cfg := GetConfig(c)

	server, keyID, key, caCert := flags.Server, flags.APIKeyID, flags.APIKey, flags.CACert
	if saved, ok := cfg.Current(); ok {
		if server == "" {
			server = saved.Server
		}
		if keyID == "" && key == "" {
			keyID, key = saved.APIKeyID, saved.APIKey
		}
		if caCert == "" {
			caCert = saved.CACert
		}
	}
	if server == "" {
		server = cfg.DefaultServer
	}
	if server == "" {
		return nil, fmt.Errorf("no server configured, use --server or connect")
	}

	return newClient(server, keyID, key, caCert)
}

// newClient builds a client that also trusts the CA certificates in caCert.
func newClient(server, keyID, key, caCert string) (*connection.HTTPClient, error) {
	var opts []connection.ClientOption
	if caCert != "" {
		pool, err := tlsroots.LoadPool(caCert)
		if err != nil {
			return nil, fmt.Errorf("load --ca-cert: %w", err)
		}
		opts = append(opts, connection.WithTLSConfig(pool.ClientConfig()))
	}
	return connection.NewHTTPClient(server, keyID, key, opts...), nil
}

// requestContext bounds one remote call by --timeout.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	return context.WithTimeout(c.Context, timeout)
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	name := flags.Output
	if name == "" {
		name = GetConfig(c).DefaultOutput
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// structured reports whether output is machine-readable.
func structured(c *cli.Context) bool {
	name := c.String("output")
	if name == "" {
		name = GetConfig(c).DefaultOutput
	}
	return name == string(output.FormatJSON) || name == string(output.FormatYAML)
}

// getJSON fetches path and decodes the envelope data into target.
func getJSON(c *cli.Context, path string, target any) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return connection.ParseResponse(resp, target)
}

// printf writes a human message to the app writer.
func printf(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.Writer, format, args...)
}
