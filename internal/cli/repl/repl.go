package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

const prompt = "lwm2m-seccfg> "

var errNested = errors.New("already in the interactive shell")

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	app       *cli.App
	baseArgs  []string
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
}

// New creates a REPL that runs lines through app. baseArgs are prepended
// to every line, typically the global flags of the shell invocation.
func New(app *cli.App, baseArgs []string) *REPL {
	in, out := io.Reader(os.Stdin), io.Writer(os.Stdout)
	if app.Reader != nil {
		in = app.Reader
	}
	if app.Writer != nil {
		out = app.Writer
	}
	return &REPL{
		app:       app,
		baseArgs:  baseArgs,
		input:     in,
		output:    out,
		completer: NewCompleter(app.Commands),
		history:   NewHistory(),
	}
}

// Run starts the REPL loop. It returns on exit, quit or end of input.
func (r *REPL) Run() error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history not loaded: %v\n", err)
	}
	defer r.history.Save()

	scanner := bufio.NewScanner(r.input)
	for {
		fmt.Fprint(r.output, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		switch line {
		case "exit", "quit":
			return nil
		}

		if err := r.execute(line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(line string) error {
	words, err := Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	if words[0] == "shell" {
		return errNested
	}
	if words[0] == "complete" {
		prefix := strings.TrimSpace(strings.TrimPrefix(line, "complete"))
		for _, s := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, s)
		}
		return nil
	}

	args := make([]string, 0, 1+len(r.baseArgs)+len(words))
	args = append(args, r.app.Name)
	args = append(args, r.baseArgs...)
	args = append(args, words...)
	return r.app.Run(args)
}

// Split breaks a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func Split(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
