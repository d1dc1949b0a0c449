package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
)

// defaultPageSize applies when pageSize is absent.
const defaultPageSize = 10

// handleObjectsPage handles
// GET /api/lwm2m/deviceProfile/objects?pageSize&page&textSearch&sortProperty&sortOrder.
func (h *Handler) handleObjectsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := intParam(q.Get("pageSize"), "pageSize", defaultPageSize)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	page, err := intParam(q.Get("page"), "page", 0)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	data, err := h.objects.Page(service.PageRequest{
		PageSize:     pageSize,
		Page:         page,
		TextSearch:   q.Get("textSearch"),
		SortProperty: q.Get("sortProperty"),
		SortOrder:    q.Get("sortOrder"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, data)
}

// handleObjectsByIDs handles GET /api/lwm2m/deviceProfile/{objectIds}.
// Unknown ids are skipped.
func (h *Handler) handleObjectsByIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := service.ParseObjectIDs(r.PathValue("objectIds"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.objects.GetByIDs(ids))
}

func intParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidArgument.WithDetails(name + " must be an integer")
	}
	return n, nil
}
