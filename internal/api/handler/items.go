package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/unwind/internal/api/request"
	"github.com/edvin/unwind/internal/api/response"
	"github.com/edvin/unwind/internal/store"
)

type Items struct {
	items *store.ItemStore
}

func NewItems(items *store.ItemStore) *Items {
	return &Items{items: items}
}

// Today handles GET /items/today.
func (h *Items) Today(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	rows, err := h.items.Today(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// Week handles GET /items/week.
func (h *Items) Week(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	rows, err := h.items.Week(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// List handles GET /items?category= or ?tags=a,b. One filter is required;
// category wins when both are present.
func (h *Items) List(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	category := q.Get("category")
	tags := request.Tags(q)

	switch {
	case category != "":
		rows, err := h.items.ByCategory(r.Context(), user, category)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, "query failed")
			return
		}
		response.WriteList(w, http.StatusOK, rows, len(rows))
	case len(tags) > 0:
		rows, err := h.items.ByTags(r.Context(), user, tags)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, "query failed")
			return
		}
		response.WriteList(w, http.StatusOK, rows, len(rows))
	default:
		response.WriteError(w, http.StatusBadRequest, "category or tags query parameter is required")
	}
}

// Search handles GET /items/search?q=.
func (h *Items) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	rows, err := h.items.Search(r.Context(), user, r.URL.Query().Get("q"))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// Worries handles GET /worries.
func (h *Items) Worries(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	rows, err := h.items.Worries(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// Details handles GET /items/{id}.
func (h *Items) Details(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	row, err := h.items.Details(r.Context(), user, id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if row == nil {
		response.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, row)
}

// Complete handles POST /items/{id}/complete. 404 covers both "no such
// item" and "already completed"; the store cannot tell them apart and
// neither mutates anything.
func (h *Items) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	completed, err := h.items.Complete(r.Context(), user, id)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if completed == nil {
		response.WriteError(w, http.StatusNotFound, "item not found or already completed")
		return
	}
	response.WriteJSON(w, http.StatusOK, completed)
}

// SetPriority handles PUT /items/{id}/priority.
func (h *Items) SetPriority(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req request.SetPriority
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.items.SetPriority(r.Context(), user, id, req.Priority)
	if err != nil {
		if errors.Is(err, store.ErrInvalidPriority) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if updated == nil {
		response.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, updated)
}

// AddNote handles POST /items/{id}/notes.
func (h *Items) AddNote(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req request.AddNote
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.items.AddNote(r.Context(), user, id, req.Note)
	if err != nil {
		if errors.Is(err, store.ErrEmptyNote) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if updated == nil {
		response.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, updated)
}
