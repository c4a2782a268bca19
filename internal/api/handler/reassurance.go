package handler

import (
	"net/http"

	"github.com/edvin/unwind/internal/api/request"
	"github.com/edvin/unwind/internal/api/response"
	"github.com/edvin/unwind/internal/store"
)

type Reassurance struct {
	reassurance *store.ReassuranceStore
}

func NewReassurance(reassurance *store.ReassuranceStore) *Reassurance {
	return &Reassurance{reassurance: reassurance}
}

// Spirals handles GET /reassurance/spirals.
func (h *Reassurance) Spirals(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	rows, err := h.reassurance.Spirals(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// RecentCompletions handles GET /reassurance/recent-completions?limit=.
func (h *Reassurance) RecentCompletions(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := request.IntParam(r.URL.Query(), "limit", 0)
	rows, err := h.reassurance.RecentCompletions(r.Context(), user, limit)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}
