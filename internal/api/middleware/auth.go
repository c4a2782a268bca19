package middleware

import (
	"net/http"

	"github.com/edvin/unwind/internal/api/response"
	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
)

// Auth returns middleware that resolves the Authorization header to a
// verified identity and injects it into the request context. Every failure
// mode (missing header, bad scheme, invalid token) collapses to the same
// 401; the verifier logs the specific reason.
func Auth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := verifier.ExtractIdentity(r.Header.Get("Authorization"))
			if identity == nil {
				response.WriteError(w, http.StatusUnauthorized, "access denied")
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			ctx = db.WithUser(ctx, identity.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
