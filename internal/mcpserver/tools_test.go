package mcpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/store"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testUser   = "11111111-1111-1111-1111-111111111111"
	testItem   = "22222222-2222-2222-2222-222222222222"
)

// mockDB implements store.DB for tool handler tests.
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

func newTestTools(t *testing.T, m *mockDB) *Tools {
	t.Helper()
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	verifier := auth.NewVerifier(testSecret, zerolog.Nop())
	return NewTools(verifier, store.NewStores(m), cfg, zerolog.Nop())
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func toolRequest(t *testing.T, args map[string]any, bearer string) mcp.CallToolRequest {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	req.Header = http.Header{}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

// ---------- Authorization ----------

func TestTools_MissingBearer(t *testing.T) {
	m := &mockDB{}
	tools := newTestTools(t, m)

	res, err := tools.handleTodayItems(context.Background(), toolRequest(t, nil, ""))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "access denied")
	m.AssertNotCalled(t, "FetchAll")
}

func TestTools_InvalidToken(t *testing.T) {
	m := &mockDB{}
	tools := newTestTools(t, m)

	res, err := tools.handleTodayItems(context.Background(), toolRequest(t, nil, "not.a.jwt"))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	m.AssertNotCalled(t, "FetchAll")
}

func TestTools_ValidTokenBindsUser(t *testing.T) {
	m := &mockDB{}
	m.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).
		Return([]db.Row{{"id": testItem, "title": "file taxes"}}, nil)

	tools := newTestTools(t, m)
	res, err := tools.handleTodayItems(context.Background(), toolRequest(t, nil, signToken(t, testUser)))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "file taxes")

	args := m.Calls[0].Arguments.Get(2).([]any)
	require.NotEmpty(t, args)
	assert.Equal(t, uuid.MustParse(testUser), args[0])
}

// ---------- Mutations ----------

func TestTools_MarkComplete_AlreadyCompleted(t *testing.T) {
	m := &mockDB{}
	m.On("ExecReturning", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	tools := newTestTools(t, m)
	res, err := tools.handleMarkComplete(context.Background(),
		toolRequest(t, map[string]any{"item_id": testItem}, signToken(t, testUser)))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "already completed")
}

func TestTools_MarkComplete_Pending(t *testing.T) {
	m := &mockDB{}
	m.On("ExecReturning", mock.Anything, mock.Anything, mock.Anything).
		Return(db.Row{"id": testItem, "title": "file taxes"}, nil)

	tools := newTestTools(t, m)
	res, err := tools.handleMarkComplete(context.Background(),
		toolRequest(t, map[string]any{"item_id": testItem}, signToken(t, testUser)))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "file taxes")
}

func TestTools_MarkComplete_BadItemID(t *testing.T) {
	m := &mockDB{}
	tools := newTestTools(t, m)

	res, err := tools.handleMarkComplete(context.Background(),
		toolRequest(t, map[string]any{"item_id": "nope"}, signToken(t, testUser)))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	m.AssertNotCalled(t, "ExecReturning")
}

func TestTools_UpdatePriority_InvalidLevel(t *testing.T) {
	m := &mockDB{}
	tools := newTestTools(t, m)

	res, err := tools.handleUpdatePriority(context.Background(),
		toolRequest(t, map[string]any{"item_id": testItem, "priority": "urgent"}, signToken(t, testUser)))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "priority must be one of")
	m.AssertNotCalled(t, "ExecReturning")
}

// ---------- Limits ----------

func TestTools_RecentCompletions_DefaultLimit(t *testing.T) {
	m := &mockDB{}
	m.On("FetchAll", mock.Anything, mock.Anything, mock.Anything).Return([]db.Row{}, nil)

	tools := newTestTools(t, m)
	_, err := tools.handleRecentCompletions(context.Background(), toolRequest(t, nil, signToken(t, testUser)))
	require.NoError(t, err)

	args := m.Calls[0].Arguments.Get(2).([]any)
	require.Len(t, args, 2)
	assert.Equal(t, 5, args[1])
}

// ---------- Group wiring ----------

func TestTools_Groups(t *testing.T) {
	tools := newTestTools(t, &mockDB{})
	groups := tools.Groups()

	assert.Len(t, groups["data"], 10)
	assert.Len(t, groups["planning"], 3)
	assert.Len(t, groups["reassurance"], 2)

	names := map[string]bool{}
	for _, tools := range groups {
		for _, st := range tools {
			names[st.Tool.Name] = true
		}
	}
	for _, want := range []string{
		"get_today_items", "get_week_items", "get_items_by_category",
		"get_items_by_tags", "search_items", "get_worries", "get_item_details",
		"mark_item_complete", "update_item_priority", "add_note_to_item",
		"get_user_stats", "get_completion_history", "count_pending_by_priority",
		"get_spiral_items", "get_recent_completions",
	} {
		assert.True(t, names[want], want)
	}
}
