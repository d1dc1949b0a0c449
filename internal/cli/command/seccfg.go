package command

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

const apiPrefix = "/api/lwm2m"

// ModesCommand returns the modes command.
func ModesCommand() *cli.Command {
	return &cli.Command{
		Name:   "modes",
		Usage:  "List supported security modes",
		Action: modesAction,
	}
}

type modeInfo struct {
	Mode        domain.SecurityMode `json:"securityMode" yaml:"securityMode"`
	DisplayName string              `json:"displayName" yaml:"displayName"`
}

type modeList []modeInfo

// Table implements output.Tabler.
func (l modeList) Table(bool) *output.Table {
	t := output.NewTable("MODE", "NAME")
	for _, m := range l {
		t.AddRow(m.Mode, m.DisplayName)
	}
	return t
}

func modesAction(c *cli.Context) error {
	var modes modeList
	if err := getJSON(c, apiPrefix+"/securityModes", &modes); err != nil {
		return err
	}
	return render(c, modes)
}

// DefaultsCommand returns the defaults command.
func DefaultsCommand() *cli.Command {
	return &cli.Command{
		Name:  "defaults",
		Usage: "Show the default security document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Server host written into the defaults (server default when empty)",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Client security mode (NO_SEC, PSK, RPK, X509)",
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "Client endpoint used with --mode",
			},
		},
		Action: defaultsAction,
	}
}

func defaultsAction(c *cli.Context) error {
	q := url.Values{}
	if host := c.String("host"); host != "" {
		q.Set("host", host)
	}
	if mode := c.String("mode"); mode != "" {
		if _, err := domain.ParseSecurityMode(mode); err != nil {
			return err
		}
		q.Set("mode", mode)
		if ep := c.String("endpoint"); ep != "" {
			q.Set("endpoint", ep)
		}
	}

	path := apiPrefix + "/defaults"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var doc domain.SecurityConfig
	if err := getJSON(c, path, &doc); err != nil {
		return err
	}
	return render(c, &doc)
}

// PolicyCommand returns the policy command.
func PolicyCommand() *cli.Command {
	return &cli.Command{
		Name:      "policy",
		Usage:     "Show credential validation rules of a security mode",
		ArgsUsage: "MODE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client",
				Usage: "Show the client-side rules instead of the server-side ones",
			},
		},
		Action: policyAction,
	}
}

type ruleView struct {
	Required bool   `json:"required" yaml:"required"`
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MaxLen   int    `json:"maxLen" yaml:"maxLen"`
}

type policyView struct {
	SecurityMode domain.SecurityMode `json:"securityMode" yaml:"securityMode"`
	Side         string              `json:"side" yaml:"side"`
	Rules        struct {
		PublicKeyOrID ruleView `json:"publicKeyOrId" yaml:"publicKeyOrId"`
		SecretKey     ruleView `json:"secretKey" yaml:"secretKey"`
	} `json:"rules" yaml:"rules"`
}

// Table implements output.Tabler. The pattern column is wide-only.
func (p policyView) Table(wide bool) *output.Table {
	t := output.NewTable("FIELD", "REQUIRED", "MAX LEN")
	if wide {
		t.Headers = append(t.Headers, "PATTERN")
	}
	add := func(name string, r ruleView) {
		if wide {
			t.AddRow(name, r.Required, r.MaxLen, r.Pattern)
			return
		}
		t.AddRow(name, r.Required, r.MaxLen)
	}
	add("publicKeyOrId", p.Rules.PublicKeyOrID)
	add("secretKey", p.Rules.SecretKey)
	return t
}

func policyAction(c *cli.Context) error {
	raw := c.Args().First()
	if raw == "" {
		return fmt.Errorf("security mode required")
	}
	mode, err := domain.ParseSecurityMode(raw)
	if err != nil {
		return err
	}

	side := "server"
	if c.Bool("client") {
		side = "client"
	}

	var view policyView
	if err := getJSON(c, apiPrefix+"/policy/"+url.PathEscape(string(mode))+"?side="+side, &view); err != nil {
		return err
	}
	return render(c, view)
}

// BootstrapCommand returns the bootstrap command.
func BootstrapCommand() *cli.Command {
	return &cli.Command{
		Name:      "bootstrap",
		Usage:     "Show the server connection a client gets for a security mode",
		ArgsUsage: "MODE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "bootstrap-server",
				Aliases: []string{"b"},
				Usage:   "Describe the bootstrap server instead of the LwM2M server",
			},
		},
		Action: bootstrapAction,
	}
}

type serverView domain.ServerSecurityConfig

// Table implements output.Tabler.
func (s serverView) Table(wide bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("securityMode", s.SecurityMode)
	t.AddRow("host", s.Host)
	t.AddRow("port", s.Port)
	t.AddRow("bootstrapServerIs", s.IsBootstrapServer)
	t.AddRow("serverId", s.ServerID)
	key := s.ServerPublicKey
	if !wide {
		key = output.Truncate(key, 40)
	}
	t.AddRow("serverPublicKey", key)
	t.AddRow("clientHoldOffTime", s.ClientHoldOffTime)
	t.AddRow("bootstrapServerAccountTimeout", s.BootstrapServerAccountTimeout)
	return t
}

func bootstrapAction(c *cli.Context) error {
	raw := c.Args().First()
	if raw == "" {
		return fmt.Errorf("security mode required")
	}
	mode, err := domain.ParseSecurityMode(raw)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s/deviceProfile/bootstrap/%s/%s",
		apiPrefix, url.PathEscape(string(mode)), strconv.FormatBool(c.Bool("bootstrap-server")))

	var cfg domain.ServerSecurityConfig
	if err := getJSON(c, path, &cfg); err != nil {
		return err
	}
	if structured(c) {
		return render(c, cfg)
	}
	return render(c, serverView(cfg))
}
