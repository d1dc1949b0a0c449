package command

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/config"
	"github.com/yndnr/lwm2m-seccfg/internal/cli/connection"
	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
)

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Save a server connection and make it current",
		ArgsUsage: "NAME SERVER",
		Description: "Credentials come from --api-key-id and --api-key. " +
			"Without arguments the saved connections are listed.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-check",
				Usage: "Save without checking that the server is reachable",
			},
		},
		Action: connectAction,
	}
}

func connectAction(c *cli.Context) error {
	cfg := GetConfig(c)
	if c.NArg() == 0 {
		return render(c, connectionList{cfg: cfg})
	}
	if c.NArg() != 2 {
		return fmt.Errorf("usage: connect NAME SERVER")
	}

	flags := ParseGlobalFlags(c)
	name, server := c.Args().Get(0), c.Args().Get(1)
	conn := config.ConnectionConfig{
		Server:   server,
		APIKeyID: flags.APIKeyID,
		APIKey:   flags.APIKey,
		CACert:   flags.CACert,
	}

	if !c.Bool("no-check") {
		client, err := newClient(conn.Server, conn.APIKeyID, conn.APIKey, conn.CACert)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		resp, err := client.Get(ctx, "/health")
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		if err := connection.ParseResponse(resp, nil); err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
	}

	cfg.Connections[name] = conn
	cfg.CurrentConnection = name
	if err := config.Save(cfg, flags.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	printf(c, "Connected to %s as %q\n", server, name)
	return nil
}

// UseCommand returns the use command for switching connections.
func UseCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Switch to a saved connection",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return fmt.Errorf("connection name required")
			}
			cfg := GetConfig(c)
			if _, ok := cfg.Connections[name]; !ok {
				return fmt.Errorf("no saved connection %q", name)
			}
			cfg.CurrentConnection = name
			if err := config.Save(cfg, c.String("config")); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			printf(c, "Using connection %q\n", name)
			return nil
		},
	}
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Clear the current connection (saved connections are kept)",
		Action: func(c *cli.Context) error {
			cfg := GetConfig(c)
			if cfg.CurrentConnection == "" {
				printf(c, "Not connected to any server\n")
				return nil
			}
			cfg.CurrentConnection = ""
			if err := config.Save(cfg, c.String("config")); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			printf(c, "Disconnected\n")
			return nil
		},
	}
}

type connectionList struct {
	cfg *config.CLIConfig
}

type connectionEntry struct {
	Name     string `json:"name" yaml:"name"`
	Server   string `json:"server" yaml:"server"`
	APIKeyID string `json:"api_key_id,omitempty" yaml:"api_key_id,omitempty"`
	Current  bool   `json:"current" yaml:"current"`
}

func (l connectionList) entries() []connectionEntry {
	names := make([]string, 0, len(l.cfg.Connections))
	for name := range l.cfg.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]connectionEntry, 0, len(names))
	for _, name := range names {
		conn := l.cfg.Connections[name]
		out = append(out, connectionEntry{
			Name:     name,
			Server:   conn.Server,
			APIKeyID: conn.APIKeyID,
			Current:  name == l.cfg.CurrentConnection,
		})
	}
	return out
}

// MarshalJSON hides secrets from structured output.
func (l connectionList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.entries())
}

// MarshalYAML hides secrets from structured output.
func (l connectionList) MarshalYAML() (any, error) {
	return l.entries(), nil
}

// Table implements output.Tabler.
func (l connectionList) Table(bool) *output.Table {
	t := output.NewTable("CURRENT", "NAME", "SERVER", "API KEY ID")
	for _, e := range l.entries() {
		mark := ""
		if e.Current {
			mark = "*"
		}
		t.AddRow(mark, e.Name, e.Server, e.APIKeyID)
	}
	return t
}
