package handler

import (
	"net/http"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
)

// handleListProfiles handles GET /api/lwm2m/profiles.
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.profiles.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.writeJSON(w, r, http.StatusOK, ListProfilesResponse{IDs: ids})
}

// handleGetProfile handles GET /api/lwm2m/profiles/{id}.
// ?default=true returns the default document for unknown ids.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		doc *domain.SecurityConfig
		err error
	)
	if r.URL.Query().Get("default") == "true" {
		doc, err = h.profiles.GetOrDefault(r.Context(), id)
	} else {
		doc, err = h.profiles.Get(r.Context(), id)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, doc)
}

// handlePutProfile handles PUT /api/lwm2m/profiles/{id}.
func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, maxBodySize)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	doc, err := service.ParseDocument(raw)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := h.profiles.Put(r.Context(), id, doc); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.log(r).Info("profile stored", "profile_id", id)
	h.writeJSON(w, r, http.StatusOK, doc)
}

// handleDeleteProfile handles DELETE /api/lwm2m/profiles/{id}.
func (h *Handler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.profiles.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.log(r).Info("profile deleted", "profile_id", id)
	h.writeJSON(w, r, http.StatusOK, DeleteProfileResponse{ID: id, Deleted: true})
}

// handleValidateProfile handles POST /api/lwm2m/profiles/validate.
// A document that parses but breaks the rules is reported in the body.
func (h *Handler) handleValidateProfile(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, maxBodySize)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	doc, err := service.ParseDocument(raw)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := ValidateProfileResponse{Valid: true}
	if err := doc.Validate(); err != nil {
		if !domain.IsDomainError(err, domain.ErrProfileValidation.Code) {
			h.handleServiceError(w, r, err)
			return
		}
		resp.Valid = false
		resp.Errors = domain.GetErrorFields(err)
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
