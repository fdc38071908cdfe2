package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type DepositorHandler struct {
	Lifecycle *usecase.LifecycleController
}

func NewDepositorHandler(lc *usecase.LifecycleController) *DepositorHandler {
	return &DepositorHandler{Lifecycle: lc}
}

func (h *DepositorHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	depositors, err := h.Lifecycle.ListDepositors(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositors)
}

func (h *DepositorHandler) Notes(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.UpdateRecordInput
	if !decode(w, r, &in) {
		return
	}
	depositor, err := h.Lifecycle.UpdateDepositor(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositor)
}

// ReleaseToCustomers handles POST /depositors/{id}/release-to-customers
func (h *DepositorHandler) ReleaseToCustomers(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.ReleaseDepositorToCustomer(r.Context(), c, chi.URLParam(r, "id"))
	record("release_depositor", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
