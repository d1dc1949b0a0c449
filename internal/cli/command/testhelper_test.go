package command

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver/handler"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/memory"
)

const testHost = "lwm2m.example.org"

// newTestServer serves the real API on an in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	kv := memory.New()
	profiles := service.NewProfileService(storage.NewProfileStore(kv), service.WithDefaultHost(testHost))
	objects, err := service.NewObjectService("", nil)
	if err != nil {
		t.Fatal(err)
	}
	boot, err := service.NewBootstrapService(service.BootstrapConfig{
		Bootstrap: service.TransportEndpoint{Host: "0.0.0.0", SecureHost: "bs.example.org"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := backup.NewManager(kv, backup.Options{})
	if err != nil {
		t.Fatal(err)
	}

	h := handler.New(handler.Deps{
		Profiles:    profiles,
		Editor:      service.NewEditorService(service.DefaultEditorConfig(), service.WithProfiles(profiles)),
		Objects:     objects,
		Bootstrap:   boot,
		Backup:      mgr,
		DefaultHost: testHost,
		Ready:       func(context.Context) error { return nil },
	})
	srv := httptest.NewServer(h.ServeMux())
	t.Cleanup(srv.Close)
	return srv
}

// cliRun runs the app against a private config file.
type cliRun struct {
	t      *testing.T
	config string
	server string
	stdin  string
}

func newCLI(t *testing.T, server string) *cliRun {
	return &cliRun{
		t:      t,
		config: filepath.Join(t.TempDir(), "cli.yaml"),
		server: server,
	}
}

// run executes args and returns stdout.
func (r *cliRun) run(args ...string) (string, error) {
	r.t.Helper()
	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(r.stdin)

	full := []string{appName, "--config", r.config}
	if r.server != "" {
		full = append(full, "--server", r.server)
	}
	full = append(full, args...)
	err := app.Run(full)
	return out.String(), err
}

// mustRun fails the test on error.
func (r *cliRun) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	if err != nil {
		r.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}
