package handler

import (
	"net/http"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/editor"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
)

// handleOpenSession handles POST /api/lwm2m/editor/sessions.
func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	open := &service.OpenRequest{
		Endpoint:  req.Endpoint,
		ProfileID: req.ProfileID,
		Host:      req.Host,
	}
	if req.Host == "" {
		open.Host = h.defaultHost
	}
	if len(req.Document) > 0 && string(req.Document) != "null" {
		doc, err := service.ParseDocument(req.Document)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		open.Document = doc
	}

	view, err := h.editor.Open(r.Context(), open)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, view)
}

// handleGetSession handles GET /api/lwm2m/editor/sessions/{id}.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.editor.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, view)
}

// handleClientMode handles POST …/{id}/client/mode.
func (h *Handler) handleClientMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	mode, err := domain.ParseSecurityMode(req.Mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.apply(w, r, func(s *editor.Session) error {
		return s.SetClientMode(mode)
	})
}

// handleClientFields handles POST …/{id}/client/fields.
func (h *Handler) handleClientFields(w http.ResponseWriter, r *http.Request) {
	var req ClientFieldsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.apply(w, r, func(s *editor.Session) error {
		if req.Endpoint != nil {
			if err := s.EditEndpoint(*req.Endpoint); err != nil {
				return err
			}
		}
		if req.Identity != nil {
			if err := s.EditIdentity(*req.Identity); err != nil {
				return err
			}
		}
		if req.Key != nil {
			if err := s.EditClientKey(*req.Key); err != nil {
				return err
			}
		}
		return nil
	})
}

// handleServerMode handles POST …/{id}/servers/{target}/mode.
func (h *Handler) handleServerMode(w http.ResponseWriter, r *http.Request) {
	target, err := domain.ParseServerTarget(r.PathValue("target"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req ModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	mode, err := domain.ParseSecurityMode(req.Mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.apply(w, r, func(s *editor.Session) error {
		return s.SetServerMode(target, mode)
	})
}

// handleServerEdit handles POST …/{id}/servers/{target}. A config replaces
// the draft before fields are applied in name order; nothing is applied when
// any part is rejected.
func (h *Handler) handleServerEdit(w http.ResponseWriter, r *http.Request) {
	target, err := domain.ParseServerTarget(r.PathValue("target"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req ServerEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if req.Config == nil && len(req.Fields) == 0 {
		h.handleServiceError(w, r, domain.ErrMissingArgument.WithDetails("config or fields"))
		return
	}

	h.apply(w, r, func(s *editor.Session) error {
		return s.EditServerFields(target, req.Config, req.Fields)
	})
}

// handleJSONEdit handles POST …/{id}/json.
func (h *Handler) handleJSONEdit(w http.ResponseWriter, r *http.Request) {
	var req JSONEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.apply(w, r, func(s *editor.Session) error {
		return s.EditJSON(req.Text)
	})
}

// handleChangeTab handles POST …/{id}/tab.
func (h *Handler) handleChangeTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	tab, err := editor.ParseTab(req.Tab)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.apply(w, r, func(s *editor.Session) error {
		return s.ChangeTab(tab)
	})
}

// handleSaveSession handles POST …/{id}/save.
func (h *Handler) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.Save(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, res)
}

// handleCancelSession handles POST …/{id}/cancel.
func (h *Handler) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.editor.Cancel(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, CancelSessionResponse{ID: id, Cancelled: true})
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, fn func(*editor.Session) error) {
	view, err := h.editor.Apply(r.Context(), r.PathValue("id"), fn)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, view)
}
