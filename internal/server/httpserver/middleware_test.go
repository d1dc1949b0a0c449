package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
)

func testLogger(t *testing.T) (logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	return l, &buf
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler, mark("a"), mark("b"), mark("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v", order)
	}
}

func TestRequestID(t *testing.T) {
	l, _ := testLogger(t)
	var seen string
	h := RequestID(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"generated", "", false},
		{"client supplied", "trace-42", true},
		{"with spaces", "trace 42", false},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if got != seen {
				t.Errorf("header %q != context %q", got, seen)
			}
			if tt.wantKeep && got != tt.header {
				t.Errorf("id = %q, want %q", got, tt.header)
			}
			if !tt.wantKeep && !strings.HasPrefix(got, "req-") {
				t.Errorf("generated id = %q", got)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	l, buf := testLogger(t)
	h := Recover(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "LW-SYS-5000" {
		t.Errorf("code = %s", code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{"allow all", nil, "https://ui.example.org", false, "https://ui.example.org", http.StatusOK},
		{"listed", []string{"https://ui.example.org"}, "https://ui.example.org", false, "https://ui.example.org", http.StatusOK},
		{"not listed", []string{"https://ui.example.org"}, "https://evil.example", false, "", http.StatusOK},
		{"preflight", nil, "https://ui.example.org", true, "https://ui.example.org", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2)(okHandler)

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("10.0.0.1") != http.StatusOK || do("10.0.0.1") != http.StatusOK {
		t.Fatal("burst rejected")
	}
	if got := do("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Errorf("third request status = %d", got)
	}
	if got := do("10.0.0.2"); got != http.StatusOK {
		t.Errorf("other client status = %d", got)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0)(okHandler)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func newAuth(t *testing.T) (*service.AuthService, map[domain.Role]string) {
	t.Helper()
	var keys []domain.APIKey
	creds := make(map[domain.Role]string)
	for _, role := range domain.ValidRoles() {
		key, secret, err := domain.NewAPIKey(string(role)+"-key", role)
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, *key)
		creds[role] = key.ID + ":" + secret
	}
	svc, err := service.NewAuthService(keys)
	if err != nil {
		t.Fatal(err)
	}
	return svc, creds
}

func TestAuth(t *testing.T) {
	svc, creds := newAuth(t)
	var seen *domain.APIKey
	h := Auth(svc, domain.RoleEditor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAPIKeyFromContext(r.Context())
	}))

	editorID, editorSecret, _ := strings.Cut(creds[domain.RoleEditor], ":")

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"missing", nil, http.StatusUnauthorized, "LW-AUTH-4010"},
		{"bearer editor", map[string]string{"Authorization": "Bearer " + creds[domain.RoleEditor]}, http.StatusOK, ""},
		{"combined header admin", map[string]string{"X-API-Key": creds[domain.RoleAdmin]}, http.StatusOK, ""},
		{"split headers", map[string]string{"X-API-Key-ID": editorID, "X-API-Key": editorSecret}, http.StatusOK, ""},
		{"viewer too weak", map[string]string{"Authorization": "Bearer " + creds[domain.RoleViewer]}, http.StatusForbidden, "LW-AUTH-4030"},
		{"wrong secret", map[string]string{"Authorization": "Bearer " + editorID + ":lwas_wrong"}, http.StatusUnauthorized, "LW-AUTH-4011"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec); code != tt.wantCode {
					t.Errorf("code = %s, want %s", code, tt.wantCode)
				}
				return
			}
			if seen == nil {
				t.Error("api key not stored in context")
			}
		})
	}
}

func TestAuth_DisabledWithoutKeys(t *testing.T) {
	svc, err := service.NewAuthService(nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		role       domain.Role
		wantStatus int
	}{
		{domain.RoleViewer, http.StatusOK},
		{domain.RoleEditor, http.StatusOK},
		{domain.RoleAdmin, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, s := range []*service.AuthService{svc, nil} {
				rec := httptest.NewRecorder()
				Auth(s, tt.role)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
				if rec.Code != tt.wantStatus {
					t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
				}
				if tt.wantStatus != http.StatusOK {
					if code := errorCode(t, rec); code != "LW-AUTH-4030" {
						t.Errorf("code = %s, want LW-AUTH-4030", code)
					}
				}
			}
		})
	}
}

func TestAudit(t *testing.T) {
	l, buf := testLogger(t)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), RequestID(l), Audit("GET /api/lwm2m/profiles/{id}"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/lwm2m/profiles/p1", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" || entry["route"] != "GET /api/lwm2m/profiles/{id}" || entry["status"] != float64(404) {
		t.Errorf("entry = %v", entry)
	}
	if id, _ := entry["request_id"].(string); !strings.HasPrefix(id, "req-") {
		t.Errorf("request_id = %v", entry["request_id"])
	}
}

func TestPathIDs(t *testing.T) {
	tests := []struct {
		route    string
		path     string
		wantAttr string
	}{
		{"GET /api/lwm2m/editor/sessions/{id}", "/api/lwm2m/editor/sessions/lwes-1", "session_id"},
		{"DELETE /api/lwm2m/profiles/{id}", "/api/lwm2m/profiles/lwes-1", "profile_id"},
		{"GET /api/lwm2m/policy/{securityMode}", "/api/lwm2m/policy/PSK", ""},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			l, buf := testLogger(t)
			mux := http.NewServeMux()
			mux.Handle(tt.route, Chain(okHandler, PathIDs(tt.route), Audit(tt.route)))
			h := Chain(mux, RequestID(l))

			method, _, _ := strings.Cut(tt.route, " ")
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, tt.path, nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("parse log %q: %v", buf.String(), err)
			}
			for _, attr := range []string{"session_id", "profile_id"} {
				want := ""
				if attr == tt.wantAttr {
					want = "lwes-1"
				}
				if got, _ := entry[attr].(string); got != want {
					t.Errorf("%s = %q, want %q", attr, got, want)
				}
			}
		})
	}
}

type observer struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (o *observer) ObserveRequest(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.status = append(o.status, status)
}

func TestInstrument(t *testing.T) {
	obs := &observer{}
	h := Instrument("POST /x", obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("implicit 200"))
		w.WriteHeader(http.StatusTeapot) // ignored after the body started
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

	if len(obs.routes) != 1 || obs.routes[0] != "POST /x" || obs.status[0] != http.StatusOK {
		t.Errorf("observed routes=%v status=%v", obs.routes, obs.status)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6", "[::1]:8080", nil, "::1"},
		{"forwarded", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
