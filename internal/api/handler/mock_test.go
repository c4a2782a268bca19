package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
)

// ---------- Mock DB ----------

// mockDB implements store.DB for handler tests, so handlers run against
// real stores with the executor faked out.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) FetchOne(ctx context.Context, sql string, arguments ...any) (db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Row), args.Error(1)
}

func (m *mockDB) FetchAll(ctx context.Context, sql string, arguments ...any) ([]db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Row), args.Error(1)
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (string, error) {
	args := m.Called(ctx, sql, arguments)
	return args.String(0), args.Error(1)
}

func (m *mockDB) ExecReturning(ctx context.Context, sql string, arguments ...any) (db.Row, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Row), args.Error(1)
}

// ---------- Request helpers ----------

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withIdentity injects a verified identity into the request context, the way
// the auth middleware does for real requests.
func withIdentity(r *http.Request, subject string) *http.Request {
	ctx := auth.WithIdentity(r.Context(), &auth.Identity{Subject: subject, Role: auth.RoleAuthenticated})
	return r.WithContext(ctx)
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}
