package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// Policy sides accepted by GET /api/lwm2m/policy/{securityMode}.
const (
	SideServer = "server"
	SideClient = "client"
)

// handleModes handles GET /api/lwm2m/securityModes.
func (h *Handler) handleModes(w http.ResponseWriter, r *http.Request) {
	modes := domain.AllSecurityModes()
	out := make([]SecurityModeInfo, 0, len(modes))
	for _, m := range modes {
		out = append(out, SecurityModeInfo{Mode: m, DisplayName: m.DisplayName()})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// handleDefaults handles GET /api/lwm2m/defaults?host=&mode=&endpoint=.
// mode and endpoint replace the NO_SEC client of the default document.
func (h *Handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	host := strings.TrimSpace(q.Get("host"))
	if host == "" {
		host = h.defaultHost
	}
	doc := domain.DefaultSecurityConfig(host)

	if raw := q.Get("mode"); raw != "" {
		mode, err := domain.ParseSecurityMode(raw)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		doc.Client = domain.DefaultClientSecurityConfig(mode, q.Get("endpoint"))
	}
	h.writeJSON(w, r, http.StatusOK, doc)
}

// handlePolicy handles GET /api/lwm2m/policy/{securityMode}?side=server|client.
func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseSecurityMode(r.PathValue("securityMode"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	side := strings.ToLower(r.URL.Query().Get("side"))
	var rules domain.FieldRules
	switch side {
	case "", SideServer:
		side = SideServer
		rules = domain.ServerCredentialRules(mode)
	case SideClient:
		rules = domain.ClientCredentialRules(mode)
	default:
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("side must be server or client"))
		return
	}

	h.writeJSON(w, r, http.StatusOK, PolicyResponse{SecurityMode: mode, Side: side, Rules: rules})
}

// handleBootstrap handles
// GET /api/lwm2m/deviceProfile/bootstrap/{securityMode}/{bootstrapServerIs}.
func (h *Handler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseSecurityMode(r.PathValue("securityMode"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	isBootstrap, err := strconv.ParseBool(r.PathValue("bootstrapServerIs"))
	if err != nil {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("bootstrapServerIs must be true or false"))
		return
	}

	cfg, err := h.bootstrap.SecurityInfo(mode, isBootstrap)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cfg)
}
