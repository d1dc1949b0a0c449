package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// APIKeyCommand returns the apikey subcommand group. Keys live in the
// server configuration, so these commands work offline.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "apikey",
		Aliases: []string{"key"},
		Usage:   "Generate API keys for the server configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a key and print its config entry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Usage:   "Key role (viewer, editor, admin)",
						Value:   string(domain.RoleViewer),
					},
				},
				Action: apikeyGenerate,
			},
			{
				Name:      "hash",
				Usage:     "Hash an existing secret (read from stdin when omitted)",
				ArgsUsage: "[SECRET]",
				Action:    apikeyHash,
			},
		},
	}
}

type generatedKey struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Role       domain.Role `json:"role" yaml:"role"`
	Secret     string      `json:"secret" yaml:"secret"`
	SecretHash string      `json:"secret_hash" yaml:"secret_hash"`
}

// configEntry is the security.api_keys item for the server config.
type configEntry struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Role       domain.Role `yaml:"role"`
	SecretHash string      `yaml:"secret_hash"`
}

func apikeyGenerate(c *cli.Context) error {
	role := domain.Role(strings.ToLower(c.String("role")))
	key, secret, err := domain.NewAPIKey(c.String("name"), role)
	if err != nil {
		return err
	}

	if structured(c) {
		return render(c, generatedKey{
			ID:         key.ID,
			Name:       key.Name,
			Role:       key.Role,
			Secret:     secret,
			SecretHash: key.SecretHash,
		})
	}

	entry, err := yaml.Marshal(map[string]map[string][]configEntry{
		"security": {"api_keys": {{key.ID, key.Name, key.Role, key.SecretHash}}},
	})
	if err != nil {
		return err
	}

	printf(c, "API key generated:\n")
	printf(c, "  Key ID: %s\n", key.ID)
	printf(c, "  Secret: %s\n", secret)
	printf(c, "\nSave this secret - it cannot be retrieved later.\n")
	printf(c, "Add the key to the server configuration:\n\n%s", entry)
	return nil
}

func apikeyHash(c *cli.Context) error {
	secret := c.Args().First()
	if secret == "" {
		raw, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		secret = strings.TrimSpace(string(raw))
	}
	if secret == "" {
		return fmt.Errorf("secret required")
	}

	hash, err := domain.HashAPIKeySecret(secret)
	if err != nil {
		return err
	}
	printf(c, "%s\n", hash)
	return nil
}
