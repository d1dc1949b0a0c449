package command

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/connection"
	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
)

// errDocumentInvalid is returned after the violations have been printed.
var errDocumentInvalid = errors.New("document is invalid")

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:    "profile",
		Aliases: []string{"prof"},
		Usage:   "Manage stored device profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List profile ids",
				Action: profileList,
			},
			{
				Name:      "get",
				Usage:     "Show a profile document",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "default",
						Usage: "Show the defaults when the profile does not exist",
					},
				},
				Action: profileGet,
			},
			{
				Name:      "put",
				Usage:     "Store a profile document (JSON or YAML, - for stdin)",
				ArgsUsage: "ID FILE",
				Action:    profilePut,
			},
			{
				Name:      "delete",
				Usage:     "Delete a profile",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: profileDelete,
			},
		},
	}
}

// ValidateCommand returns the validate command.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a security document (JSON or YAML, - for stdin)",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Validate offline without contacting the server",
			},
		},
		Action: validateAction,
	}
}

type profileIDs []string

// Table implements output.Tabler.
func (ids profileIDs) Table(bool) *output.Table {
	t := output.NewTable("PROFILE ID")
	for _, id := range ids {
		t.AddRow(id)
	}
	return t
}

func profileList(c *cli.Context) error {
	var result struct {
		IDs []string `json:"ids"`
	}
	if err := getJSON(c, apiPrefix+"/profiles", &result); err != nil {
		return err
	}
	if structured(c) {
		return render(c, result.IDs)
	}
	if err := render(c, profileIDs(result.IDs)); err != nil {
		return err
	}
	printf(c, "\nTotal: %d profiles\n", len(result.IDs))
	return nil
}

func profileGet(c *cli.Context) error {
	id := c.Args().First()
	if err := service.ValidateProfileID(id); err != nil {
		return err
	}

	path := apiPrefix + "/profiles/" + url.PathEscape(id)
	if c.Bool("default") {
		path += "?default=true"
	}

	var doc domain.SecurityConfig
	if err := getJSON(c, path, &doc); err != nil {
		return err
	}
	return render(c, &doc)
}

func profilePut(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: profile put ID FILE")
	}
	id := c.Args().Get(0)
	if err := service.ValidateProfileID(id); err != nil {
		return err
	}
	raw, err := readDocument(c, c.Args().Get(1))
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Put(ctx, apiPrefix+"/profiles/"+url.PathEscape(id), json.RawMessage(raw))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return printViolations(c, err)
	}

	printf(c, "Profile %s stored.\n", id)
	return nil
}

func profileDelete(c *cli.Context) error {
	id := c.Args().First()
	if err := service.ValidateProfileID(id); err != nil {
		return err
	}

	if !c.Bool("force") && !confirm(c, fmt.Sprintf("Delete profile '%s'? [y/N]: ", id), "y") {
		printf(c, "Cancelled.\n")
		return nil
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Delete(ctx, apiPrefix+"/profiles/"+url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	printf(c, "Profile %s deleted.\n", id)
	return nil
}

type validationResult struct {
	Valid  bool              `json:"valid" yaml:"valid"`
	Errors map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Table implements output.Tabler.
func (r validationResult) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "ERROR")
	fields := make([]string, 0, len(r.Errors))
	for f := range r.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		t.AddRow(f, r.Errors[f])
	}
	return t
}

func validateAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("document file required")
	}
	raw, err := readDocument(c, path)
	if err != nil {
		return err
	}

	var result validationResult
	if c.Bool("local") {
		result, err = validateLocal(raw)
		if err != nil {
			return err
		}
	} else {
		client, err := EnsureConnected(c)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		resp, err := client.Post(ctx, apiPrefix+"/profiles/validate", json.RawMessage(raw))
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if err := connection.ParseResponse(resp, &result); err != nil {
			return err
		}
	}

	if structured(c) {
		if err := render(c, result); err != nil {
			return err
		}
	} else if result.Valid {
		printf(c, "Document is valid.\n")
	} else if err := render(c, result); err != nil {
		return err
	}

	if !result.Valid {
		return errDocumentInvalid
	}
	return nil
}

func validateLocal(raw []byte) (validationResult, error) {
	doc, err := service.ParseDocument(raw)
	if err != nil {
		return validationResult{}, err
	}
	if err := doc.Validate(); err != nil {
		if !domain.IsDomainError(err, domain.ErrProfileValidation.Code) {
			return validationResult{}, err
		}
		return validationResult{Errors: domain.GetErrorFields(err)}, nil
	}
	return validationResult{Valid: true}, nil
}

// printViolations renders field violations of a rejected document before
// returning err.
func printViolations(c *cli.Context, err error) error {
	var apiErr *connection.APIError
	if errors.As(err, &apiErr) {
		if fields := apiErr.Fields(); len(fields) > 0 {
			if rerr := render(c, validationResult{Errors: fields}); rerr != nil {
				return rerr
			}
			return fmt.Errorf("[%s] %s", apiErr.Code, apiErr.Message)
		}
	}
	return err
}

// readDocument loads a security document and returns it as JSON. YAML is
// recognised by extension or by content not starting with '{'.
func readDocument(c *cli.Context, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(c.App.Reader)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	trimmed := bytes.TrimSpace(raw)
	if ext == ".json" || (ext != ".yaml" && ext != ".yml" && bytes.HasPrefix(trimmed, []byte("{"))) {
		return trimmed, nil
	}

	var doc domain.SecurityConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml document: %w", err)
	}
	return json.Marshal(&doc)
}

// confirm prompts on the app writer and reads one line from the app reader.
func confirm(c *cli.Context, prompt, want string) bool {
	printf(c, "%s", prompt)
	line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
	answer := strings.TrimSpace(line)
	return strings.EqualFold(answer, want)
}
