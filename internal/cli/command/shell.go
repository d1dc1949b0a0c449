package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive session",
		Action: func(c *cli.Context) error {
			return repl.New(c.App, inheritedArgs(c)).Run()
		},
	}
}

// inheritedArgs carries global flags set on the shell invocation into
// every command run inside it.
func inheritedArgs(c *cli.Context) []string {
	var args []string
	for _, name := range []string{"server", "api-key-id", "api-key", "ca-cert", "output", "config"} {
		if c.IsSet(name) {
			args = append(args, "--"+name, c.String(name))
		}
	}
	if c.Bool("wide") {
		args = append(args, "--wide")
	}
	if c.IsSet("timeout") {
		args = append(args, "--timeout", c.Duration("timeout").String())
	}
	return args
}
