package repl

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func newTestREPL(input string, out *bytes.Buffer, calls *[][]string) *REPL {
	app := &cli.App{
		Name:   "seccfg",
		Writer: out,
		Flags:  []cli.Flag{&cli.StringFlag{Name: "server"}},
		Commands: []*cli.Command{
			{
				Name: "echo",
				Action: func(c *cli.Context) error {
					*calls = append(*calls, append([]string{c.String("server")}, c.Args().Slice()...))
					return nil
				},
			},
			{Name: "shell"},
		},
	}
	return &REPL{
		app:       app,
		baseArgs:  []string{"--server", "http://bs.example.org"},
		input:     strings.NewReader(input),
		output:    out,
		completer: NewCompleter(app.Commands),
		history:   NewHistoryFile("", 0),
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	for _, input := range []string{"exit\n", "quit\n", "exit", ""} {
		var out bytes.Buffer
		var calls [][]string
		if err := newTestREPL(input, &out, &calls).Run(); err != nil {
			t.Errorf("Run(%q) error = %v", input, err)
		}
		if !strings.HasPrefix(out.String(), prompt) {
			t.Errorf("Run(%q) output = %q, want prompt", input, out.String())
		}
	}
}

func TestREPL_Run_Executes(t *testing.T) {
	var out bytes.Buffer
	var calls [][]string
	r := newTestREPL("\n\necho a 'b c'\nexit\n", &out, &calls)

	if err := r.Run(); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"http://bs.example.org", "a", "b c"}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if r.history.Len() != 2 || r.history.Get(0) != "exit" {
		t.Errorf("history = %v", r.history.entries)
	}
}

func TestREPL_Run_Errors(t *testing.T) {
	var out bytes.Buffer
	var calls [][]string
	r := newTestREPL("shell\necho \"open\nexit\n", &out, &calls)

	if err := r.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Error: "+errNested.Error()) {
		t.Errorf("nested shell not rejected: %q", out.String())
	}
	if !strings.Contains(out.String(), "unterminated") {
		t.Errorf("quote error not reported: %q", out.String())
	}
	if len(calls) != 0 {
		t.Errorf("calls = %v", calls)
	}
}

func TestREPL_Complete(t *testing.T) {
	var out bytes.Buffer
	var calls [][]string
	if err := newTestREPL("complete ec\nexit\n", &out, &calls).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "echo\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"profile get dev-1", []string{"profile", "get", "dev-1"}, false},
		{"  spaced\t out  ", []string{"spaced", "out"}, false},
		{`validate "my file.json"`, []string{"validate", "my file.json"}, false},
		{`echo 'a "b"'`, []string{"echo", `a "b"`}, false},
		{`echo a\ b`, []string{"echo", "a b"}, false},
		{`echo ''`, []string{"echo", ""}, false},
		{`echo "open`, nil, true},
		{`echo \`, nil, true},
	}
	for _, tt := range tests {
		got, err := Split(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("Split(%q) error = %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Split(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter([]*cli.Command{
		{Name: "profile", Subcommands: []*cli.Command{{Name: "get"}, {Name: "put"}}},
		{Name: "policy"},
		{Name: "shell"},
		{Name: "secret", Hidden: true},
	})

	tests := []struct {
		prefix string
		want   []string
	}{
		{"pro", []string{"profile", "profile get", "profile put"}},
		{"profile p", []string{"profile put"}},
		{"po", []string{"policy"}},
		{"sh", nil},
		{"se", nil},
		{"ex", []string{"exit"}},
	}
	for _, tt := range tests {
		if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")
	h := NewHistoryFile(path, 3)

	for _, cmd := range []string{"a", "b", "b", "c", "d"} {
		h.Add(cmd)
	}
	if h.Len() != 3 || h.Get(0) != "d" || h.Get(2) != "b" {
		t.Errorf("entries = %v", h.entries)
	}
	if h.Get(5) != "" || h.Get(-1) != "" {
		t.Error("out of range Get should be empty")
	}

	if err := h.Save(); err != nil {
		t.Fatal(err)
	}
	loaded := NewHistoryFile(path, 3)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.entries, h.entries) {
		t.Errorf("loaded = %v, want %v", loaded.entries, h.entries)
	}
}

func TestHistory_MissingFile(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "none"), 10)
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if err := NewHistoryFile("", 0).Save(); err != nil {
		t.Errorf("in-memory Save() error = %v", err)
	}
}
