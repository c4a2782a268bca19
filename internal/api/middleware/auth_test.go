package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func authedHandler(t *testing.T, captured **auth.Identity, user *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.IdentityFromContext(r.Context())
		*user = db.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	verifier := auth.NewVerifier(testSecret, zerolog.Nop())

	var identity *auth.Identity
	var user string
	mw := Auth(verifier)(authedHandler(t, &identity, &user))

	r := httptest.NewRequest(http.MethodGet, "/items/today", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "11111111-1111-1111-1111-111111111111"))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", identity.Subject)
	assert.Equal(t, auth.RoleAuthenticated, identity.Role)
	assert.Equal(t, identity.Subject, user)
}

func TestAuth_Rejections(t *testing.T) {
	verifier := auth.NewVerifier(testSecret, zerolog.Nop())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwdw=="},
		{"no token", "Bearer"},
		{"extra parts", "Bearer a b"},
		{"wrong secret", "Bearer " + signToken(t, "another-secret-another-secret-xx", "u")},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mw := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			r := httptest.NewRequest(http.MethodGet, "/items/today", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, r)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
			assert.Contains(t, rec.Body.String(), "access denied")
		})
	}
}
