package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ListHandler struct {
	Registry   *usecase.ListRegistry
	Visibility *usecase.VisibilityFilter
}

func NewListHandler(registry *usecase.ListRegistry, visibility *usecase.VisibilityFilter) *ListHandler {
	return &ListHandler{Registry: registry, Visibility: visibility}
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	lists, err := h.Visibility.VisibleLists(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var in usecase.CreateListInput
	if !decode(w, r, &in) {
		return
	}
	list, err := h.Registry.CreateList(r.Context(), c, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var patch entity.LeadListPatch
	if !decode(w, r, &patch) {
		return
	}
	list, err := h.Registry.UpdateList(r.Context(), c, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Delete handles DELETE /lists/{id}?hard=true
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	hard := false
	if v := r.URL.Query().Get("hard"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "hard must be true or false")
			return
		}
		hard = parsed
	}
	out, err := h.Registry.DeleteList(r.Context(), c, chi.URLParam(r, "id"), hard)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
