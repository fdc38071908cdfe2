package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type LeadHandler struct {
	Lifecycle *usecase.LifecycleController
}

func NewLeadHandler(lc *usecase.LifecycleController) *LeadHandler {
	return &LeadHandler{Lifecycle: lc}
}

// List handles GET /leads?listId=
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	leads, err := h.Lifecycle.ListLeads(r.Context(), c, r.URL.Query().Get("listId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// Create handles POST /lists/{id}/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.CreateLeadInput
	if !decode(w, r, &in) {
		return
	}
	lead, err := h.Lifecycle.CreateLead(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.DeleteLead(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Own handles POST /leads/{id}/own
func (h *LeadHandler) Own(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.Own(r.Context(), c, chi.URLParam(r, "id"))
	record("own", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Release handles POST /leads/{id}/release; the id may also be a customer id.
func (h *LeadHandler) Release(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.ReleaseLead(r.Context(), c, chi.URLParam(r, "id"))
	record("release", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) TakeOver(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.TakeOver(r.Context(), c, chi.URLParam(r, "id"))
	record("take_over", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.TransferLeadInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Lifecycle.Transfer(r.Context(), c, chi.URLParam(r, "id"), in)
	record("transfer", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Notes handles POST /leads/{id}/notes {status?, note?, customFields?}
func (h *LeadHandler) Notes(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.UpdateRecordInput
	if !decode(w, r, &in) {
		return
	}
	lead, err := h.Lifecycle.UpdateLead(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
