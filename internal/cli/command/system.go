package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check whether the server accepts traffic",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show client and server versions",
				Action: systemVersion,
			},
		},
	}
}

type statusView map[string]string

// Table implements output.Tabler.
func (s statusView) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	for _, k := range []string{"status", "version", "time"} {
		if v, ok := s[k]; ok {
			t.AddRow(k, v)
		}
	}
	return t
}

func systemHealth(c *cli.Context) error {
	var status statusView
	if err := getJSON(c, "/health", &status); err != nil {
		return err
	}
	return render(c, status)
}

func systemReady(c *cli.Context) error {
	var status statusView
	if err := getJSON(c, "/ready", &status); err != nil {
		return err
	}
	return render(c, status)
}

type versionView struct {
	Client buildinfo.Info `json:"client" yaml:"client"`
	Server string         `json:"server" yaml:"server"`
}

// Table implements output.Tabler.
func (v versionView) Table(bool) *output.Table {
	t := output.NewTable("COMPONENT", "VERSION")
	t.AddRow("client", v.Client.Version+" ("+v.Client.Commit+", "+v.Client.GoVersion+")")
	t.AddRow("server", v.Server)
	return t
}

func systemVersion(c *cli.Context) error {
	view := versionView{Client: buildinfo.Get(), Server: "unreachable"}

	var status statusView
	if err := getJSON(c, "/health", &status); err == nil {
		view.Server = status["version"]
	}
	return render(c, view)
}
