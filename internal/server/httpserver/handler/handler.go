package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
)

const (
	// maxBodySize limits JSON request bodies.
	maxBodySize = 1 << 20

	// maxArchiveSize limits restore uploads.
	maxArchiveSize = 256 << 20
)

// Deps are the collaborators of a Handler. Backup and Metrics may be nil,
// which drops their routes.
type Deps struct {
	Profiles    *service.ProfileService
	Editor      *service.EditorService
	Objects     *service.ObjectService
	Bootstrap   *service.BootstrapService
	Backup      *backup.Manager
	DefaultHost string
	Logger      logger.Logger

	// Ready reports whether the service can take traffic. Nil means always.
	Ready func(ctx context.Context) error

	// Metrics serves the Prometheus exposition.
	Metrics http.Handler
}

// Handler serves the HTTP API.
type Handler struct {
	profiles    *service.ProfileService
	editor      *service.EditorService
	objects     *service.ObjectService
	bootstrap   *service.BootstrapService
	backup      *backup.Manager
	defaultHost string
	logger      logger.Logger
	ready       func(ctx context.Context) error
	metrics     http.Handler
}

// New creates a Handler.
func New(d Deps) *Handler {
	l := d.Logger
	if l == nil {
		l = logger.Default()
	}
	host := d.DefaultHost
	if host == "" {
		host = domain.DefaultHostName
	}
	return &Handler{
		profiles:    d.Profiles,
		editor:      d.Editor,
		objects:     d.Objects,
		bootstrap:   d.Bootstrap,
		backup:      d.Backup,
		defaultHost: host,
		logger:      l,
		ready:       d.Ready,
		metrics:     d.Metrics,
	}
}

// Route binds a method and path pattern to a handler and the least role
// allowed to call it. An empty Role marks a public route.
type Route struct {
	Pattern string
	Role    domain.Role
	Handler http.HandlerFunc
}

// Routes returns every route served by h.
func (h *Handler) Routes() []Route {
	routes := []Route{
		{"GET /health", "", h.handleHealth},
		{"GET /ready", "", h.handleReady},

		{"GET /api/lwm2m/securityModes", domain.RoleViewer, h.handleModes},
		{"GET /api/lwm2m/defaults", domain.RoleViewer, h.handleDefaults},
		{"GET /api/lwm2m/policy/{securityMode}", domain.RoleViewer, h.handlePolicy},
		{"GET /api/lwm2m/deviceProfile/bootstrap/{securityMode}/{bootstrapServerIs}", domain.RoleViewer, h.handleBootstrap},
		{"GET /api/lwm2m/deviceProfile/objects", domain.RoleViewer, h.handleObjectsPage},
		{"GET /api/lwm2m/deviceProfile/{objectIds}", domain.RoleViewer, h.handleObjectsByIDs},

		{"GET /api/lwm2m/profiles", domain.RoleViewer, h.handleListProfiles},
		{"POST /api/lwm2m/profiles/validate", domain.RoleViewer, h.handleValidateProfile},
		{"GET /api/lwm2m/profiles/{id}", domain.RoleViewer, h.handleGetProfile},
		{"PUT /api/lwm2m/profiles/{id}", domain.RoleEditor, h.handlePutProfile},
		{"DELETE /api/lwm2m/profiles/{id}", domain.RoleEditor, h.handleDeleteProfile},

		{"POST /api/lwm2m/editor/sessions", domain.RoleEditor, h.handleOpenSession},
		{"GET /api/lwm2m/editor/sessions/{id}", domain.RoleEditor, h.handleGetSession},
		{"POST /api/lwm2m/editor/sessions/{id}/client/mode", domain.RoleEditor, h.handleClientMode},
		{"POST /api/lwm2m/editor/sessions/{id}/client/fields", domain.RoleEditor, h.handleClientFields},
		{"POST /api/lwm2m/editor/sessions/{id}/servers/{target}/mode", domain.RoleEditor, h.handleServerMode},
		{"POST /api/lwm2m/editor/sessions/{id}/servers/{target}", domain.RoleEditor, h.handleServerEdit},
		{"POST /api/lwm2m/editor/sessions/{id}/json", domain.RoleEditor, h.handleJSONEdit},
		{"POST /api/lwm2m/editor/sessions/{id}/tab", domain.RoleEditor, h.handleChangeTab},
		{"POST /api/lwm2m/editor/sessions/{id}/save", domain.RoleEditor, h.handleSaveSession},
		{"POST /api/lwm2m/editor/sessions/{id}/cancel", domain.RoleEditor, h.handleCancelSession},
	}
	if h.metrics != nil {
		routes = append(routes, Route{"GET /metrics", "", h.metrics.ServeHTTP})
	}
	if h.backup != nil {
		routes = append(routes,
			Route{"GET /api/lwm2m/admin/backup", domain.RoleAdmin, h.handleBackup},
			Route{"POST /api/lwm2m/admin/restore", domain.RoleAdmin, h.handleRestore},
		)
	}
	return routes
}

// ServeMux returns a mux serving all routes without middleware.
func (h *Handler) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.HandleFunc(rt.Pattern, rt.Handler)
	}
	return mux
}

// ============================================================================
// Response Helpers
// ============================================================================

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.log(r).Error("failed to encode response", "error", err)
	}
}

// log returns the handler logger tagged with the ids of the request.
func (h *Handler) log(r *http.Request) logger.Logger {
	if args := logger.Fields(r.Context()); len(args) > 0 {
		return h.logger.With(args...)
	}
	return h.logger
}

// handleServiceError writes err as an error envelope.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, err)
}

// WriteError writes err as an error envelope. Errors that are not domain
// errors are logged and reported as LW-SYS-5000.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.FromContext(r.Context()).Error("internal error", "error", err, "path", r.URL.Path)
		de = domain.ErrInternalServer
	}

	var details any
	switch {
	case len(de.Fields) > 0:
		details = de.Fields
	case de.Details != "":
		details = de.Details
	}

	requestID := logger.RequestIDFromContext(r.Context())
	status := StatusForCode(de.Code)
	if status >= http.StatusInternalServerError && de.Cause != nil {
		logger.FromContext(r.Context()).Error("request failed", "code", de.Code, "error", de.Cause)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, de.Code, de.Message, details))
}

// StatusForCode maps an error code to an HTTP status.
func StatusForCode(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4100"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"),
		strings.HasSuffix(code, "-4002"), strings.HasSuffix(code, "-4003"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "LW-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Request Helpers
// ============================================================================

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrBadRequest.WithDetails("empty request body")
		}
		return domain.ErrBadRequest.WithDetails(err.Error())
	}
	return nil
}

// readBody returns the raw request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, domain.ErrBadRequest.WithDetails(err.Error())
	}
	return raw, nil
}
