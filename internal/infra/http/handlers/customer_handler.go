package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type CustomerHandler struct {
	Lifecycle *usecase.LifecycleController
}

func NewCustomerHandler(lc *usecase.LifecycleController) *CustomerHandler {
	return &CustomerHandler{Lifecycle: lc}
}

// List handles GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	customers, err := h.Lifecycle.ListCustomers(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Notes(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.UpdateRecordInput
	if !decode(w, r, &in) {
		return
	}
	customer, err := h.Lifecycle.UpdateCustomer(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// Release handles POST /customers/{id}/release
func (h *CustomerHandler) Release(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.ReleaseCustomer(r.Context(), c, chi.URLParam(r, "id"))
	record("release_customer", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CustomerHandler) MoveToDepositors(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := h.Lifecycle.MoveToDepositors(r.Context(), c, chi.URLParam(r, "id"))
	record("move_to_depositors", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
