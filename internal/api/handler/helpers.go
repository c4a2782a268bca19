package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edvin/unwind/internal/api/response"
	"github.com/edvin/unwind/internal/auth"
)

// callerID reads the verified identity from the request context and parses
// its subject as a user ID. Returns false after writing the error response;
// a subject that is not a UUID cannot scope any query, so it is treated the
// same as an unauthenticated request.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		response.WriteError(w, http.StatusUnauthorized, "access denied")
		return uuid.Nil, false
	}

	user, err := uuid.Parse(identity.Subject)
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, "access denied")
		return uuid.Nil, false
	}
	return user, true
}

// itemID parses the {id} URL parameter. Returns false after writing the
// error response.
func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid item id")
		return uuid.Nil, false
	}
	return id, true
}
