package handler

import (
	"net/http"

	"github.com/edvin/unwind/internal/api/request"
	"github.com/edvin/unwind/internal/api/response"
	"github.com/edvin/unwind/internal/store"
)

type Planner struct {
	planner *store.PlannerStore
}

func NewPlanner(planner *store.PlannerStore) *Planner {
	return &Planner{planner: planner}
}

// Stats handles GET /planner/stats.
func (h *Planner) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	row, err := h.planner.Stats(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if row == nil {
		response.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, row)
}

// History handles GET /planner/history?days=.
func (h *Planner) History(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	days := request.IntParam(r.URL.Query(), "days", 0)
	rows, err := h.planner.CompletionHistory(r.Context(), user, days)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteList(w, http.StatusOK, rows, len(rows))
}

// PendingCounts handles GET /planner/pending-counts.
func (h *Planner) PendingCounts(w http.ResponseWriter, r *http.Request) {
	user, ok := callerID(w, r)
	if !ok {
		return
	}

	counts, err := h.planner.PendingByPriority(r.Context(), user)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}
	response.WriteJSON(w, http.StatusOK, counts)
}
