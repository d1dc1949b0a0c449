package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver/handler"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/memory"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/metric"
)

func newTestRouter(t *testing.T, auth *service.AuthService, reg *metric.Registry) http.Handler {
	t.Helper()
	kv := memory.New()
	profiles := service.NewProfileService(storage.NewProfileStore(kv))
	objects, err := service.NewObjectService("", nil)
	if err != nil {
		t.Fatal(err)
	}
	boot, err := service.NewBootstrapService(service.BootstrapConfig{})
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := backup.NewManager(kv, backup.Options{})
	if err != nil {
		t.Fatal(err)
	}
	l, _ := testLogger(t)

	deps := handler.Deps{
		Profiles:  profiles,
		Editor:    service.NewEditorService(service.DefaultEditorConfig(), service.WithProfiles(profiles)),
		Objects:   objects,
		Bootstrap: boot,
		Backup:    mgr,
		Logger:    l,
	}
	cfg := &RouterConfig{
		AuthService:     auth,
		Logger:          l,
		GlobalRateLimit: 1000,
		EnableAudit:     true,
	}
	if reg != nil {
		deps.Metrics = reg.Handler()
		cfg.Metrics = reg
	}
	cfg.Handler = handler.New(deps)
	return NewRouter(cfg)
}

func TestRouter_Roles(t *testing.T) {
	auth, creds := newAuth(t)
	router := newTestRouter(t, auth, nil)

	tests := []struct {
		name   string
		method string
		path   string
		role   domain.Role
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"defaults need a key", http.MethodGet, "/api/lwm2m/defaults", "", http.StatusUnauthorized},
		{"viewer reads defaults", http.MethodGet, "/api/lwm2m/defaults", domain.RoleViewer, http.StatusOK},
		{"viewer cannot delete", http.MethodDelete, "/api/lwm2m/profiles/p1", domain.RoleViewer, http.StatusForbidden},
		{"editor deletes", http.MethodDelete, "/api/lwm2m/profiles/p1", domain.RoleEditor, http.StatusNotFound},
		{"editor cannot back up", http.MethodGet, "/api/lwm2m/admin/backup", domain.RoleEditor, http.StatusForbidden},
		{"admin backs up", http.MethodGet, "/api/lwm2m/admin/backup", domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+creds[tt.role])
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get(HeaderRequestID) == "" {
				t.Error("X-Request-ID missing")
			}
		})
	}
}

func TestRouter_NoKeysKeepsAdminClosed(t *testing.T) {
	auth, err := service.NewAuthService(nil)
	if err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(t, auth, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/lwm2m/deviceProfile/3", http.StatusOK},
		{http.MethodGet, "/api/lwm2m/admin/backup", http.StatusForbidden},
		{http.MethodPost, "/api/lwm2m/admin/restore", http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader("x")))
		if rec.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	router := newTestRouter(t, nil, reg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lwm2m/securityModes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `lwm2m_seccfg_http_requests_total{route="GET /api/lwm2m/securityModes",status="200"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}
