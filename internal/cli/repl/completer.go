package repl

import (
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter collects command and subcommand paths from cmds, plus the
// shell built-ins.
func NewCompleter(cmds []*cli.Command) *Completer {
	c := &Completer{commands: []string{"exit", "quit", "help", "complete"}}
	for _, cmd := range cmds {
		if cmd.Name == "shell" || cmd.Hidden {
			continue
		}
		c.commands = append(c.commands, cmd.Name)
		for _, sub := range cmd.Subcommands {
			if sub.Name == "help" {
				continue
			}
			c.commands = append(c.commands, cmd.Name+" "+sub.Name)
		}
	}
	sort.Strings(c.commands)
	return c
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
