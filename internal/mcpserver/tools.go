package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/store"
)

// Tools builds the MCP tool set over the feature stores. Every handler
// resolves the caller's bearer token to an identity first; a missing or
// invalid token is a tool error result, never a pass-through.
type Tools struct {
	verifier *auth.Verifier
	stores   *store.Stores
	cfg      *Config
	logger   zerolog.Logger
}

func NewTools(verifier *auth.Verifier, stores *store.Stores, cfg *Config, logger zerolog.Logger) *Tools {
	return &Tools{
		verifier: verifier,
		stores:   stores,
		cfg:      cfg,
		logger:   logger,
	}
}

// Groups returns the tools keyed by group name.
func (t *Tools) Groups() map[string][]server.ServerTool {
	return map[string][]server.ServerTool{
		"data": {
			t.tool("get_today_items",
				"Get the user's items due today, most pressing first.",
				t.handleTodayItems,
				readOnly()...),
			t.tool("get_week_items",
				"Get the user's items due within the next seven days.",
				t.handleWeekItems,
				readOnly()...),
			t.tool("get_items_by_category",
				"Get the user's pending items in a category.",
				t.handleItemsByCategory,
				append(readOnly(),
					mcp.WithString("category", mcp.Required(), mcp.Description("Category name, e.g. work, health, money")))...),
			t.tool("get_items_by_tags",
				"Get the user's pending items carrying any of the given tags.",
				t.handleItemsByTags,
				append(readOnly(),
					mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated list of tags")))...),
			t.tool("search_items",
				"Search the user's pending items by title and description.",
				t.handleSearchItems,
				append(readOnly(),
					mcp.WithString("query", mcp.Required(), mcp.Description("Search text")))...),
			t.tool("get_worries",
				"Get the user's worries vault, newest first.",
				t.handleWorries,
				readOnly()...),
			t.tool("get_item_details",
				"Get the full record for one of the user's items.",
				t.handleItemDetails,
				append(readOnly(), itemIDParam())...),
			t.tool("mark_item_complete",
				"Mark one of the user's pending items as completed.",
				t.handleMarkComplete,
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				itemIDParam()),
			t.tool("update_item_priority",
				"Change the priority of one of the user's items.",
				t.handleUpdatePriority,
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				itemIDParam(),
				mcp.WithString("priority", mcp.Required(), mcp.Description("New priority: high, medium or low"))),
			t.tool("add_note_to_item",
				"Append a timestamped note to one of the user's items.",
				t.handleAddNote,
				mcp.WithDestructiveHintAnnotation(false),
				itemIDParam(),
				mcp.WithString("note", mcp.Required(), mcp.Description("Note text"))),
		},
		"planning": {
			t.tool("get_user_stats",
				"Get the user's anxiety profile and completion counters.",
				t.handleUserStats,
				readOnly()...),
			t.tool("get_completion_history",
				"Get per-day completion stats over recent days, newest first.",
				t.handleCompletionHistory,
				append(readOnly(),
					mcp.WithNumber("days", mcp.Description("How many days back to look")))...),
			t.tool("count_pending_by_priority",
				"Count the user's pending items at each priority level.",
				t.handlePendingByPriority,
				readOnly()...),
		},
		"reassurance": {
			t.tool("get_spiral_items",
				"Get the user's pending items flagged as worry spirals, with their breakdowns.",
				t.handleSpiralItems,
				readOnly()...),
			t.tool("get_recent_completions",
				"Get the user's most recently completed items with mood context.",
				t.handleRecentCompletions,
				append(readOnly(),
					mcp.WithNumber("limit", mcp.Description("Maximum number of completions to return")))...),
		},
	}
}

// tool assembles one ServerTool, applying any mcp.yaml override on top of
// the built-in description and annotations.
func (t *Tools) tool(name, desc string, handler server.ToolHandlerFunc, opts ...mcp.ToolOption) server.ServerTool {
	override, hasOverride := t.cfg.Overrides[name]
	if hasOverride && override.Description != "" {
		desc = override.Description
	}

	toolOpts := []mcp.ToolOption{mcp.WithDescription(desc)}
	toolOpts = append(toolOpts, opts...)

	if hasOverride {
		if override.ReadOnly != nil {
			toolOpts = append(toolOpts, mcp.WithReadOnlyHintAnnotation(*override.ReadOnly))
		}
		if override.Destructive != nil {
			toolOpts = append(toolOpts, mcp.WithDestructiveHintAnnotation(*override.Destructive))
		}
		if override.Idempotent != nil {
			toolOpts = append(toolOpts, mcp.WithIdempotentHintAnnotation(*override.Idempotent))
		}
	}

	return server.ServerTool{
		Tool:    mcp.NewTool(name, toolOpts...),
		Handler: handler,
	}
}

func readOnly() []mcp.ToolOption {
	return []mcp.ToolOption{mcp.WithReadOnlyHintAnnotation(true)}
}

func itemIDParam() mcp.ToolOption {
	return mcp.WithString("item_id", mcp.Required(), mcp.Description("The item's ID"))
}

// authorize resolves the MCP session's Authorization header to a user ID.
// The second return value is non-nil when the call must be rejected.
func (t *Tools) authorize(ctx context.Context, req mcp.CallToolRequest) (uuid.UUID, context.Context, *mcp.CallToolResult) {
	identity := t.verifier.ExtractIdentity(req.Header.Get("Authorization"))
	if identity == nil {
		return uuid.Nil, ctx, mcp.NewToolResultError("access denied")
	}

	user, err := uuid.Parse(identity.Subject)
	if err != nil {
		return uuid.Nil, ctx, mcp.NewToolResultError("access denied")
	}

	return user, auth.WithIdentity(ctx, identity), nil
}

// ---------- Data tools ----------

func (t *Tools) handleTodayItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	rows, err := t.stores.Items.Today(ctx, user)
	return listResult(rows, err)
}

func (t *Tools) handleWeekItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	rows, err := t.stores.Items.Week(ctx, user)
	return listResult(rows, err)
}

func (t *Tools) handleItemsByCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	category := argString(req.GetArguments(), "category")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	rows, err := t.stores.Items.ByCategory(ctx, user, category)
	return listResult(rows, err)
}

func (t *Tools) handleItemsByTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	tags := splitTags(argString(req.GetArguments(), "tags"))
	if len(tags) == 0 {
		return mcp.NewToolResultError("tags is required"), nil
	}
	rows, err := t.stores.Items.ByTags(ctx, user, tags)
	return listResult(rows, err)
}

func (t *Tools) handleSearchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	query := argString(req.GetArguments(), "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	rows, err := t.stores.Items.Search(ctx, user, query)
	return listResult(rows, err)
}

func (t *Tools) handleWorries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	rows, err := t.stores.Items.Worries(ctx, user)
	return listResult(rows, err)
}

func (t *Tools) handleItemDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	item, res := itemIDArg(req)
	if res != nil {
		return res, nil
	}
	row, err := t.stores.Items.Details(ctx, user, item)
	if err != nil {
		return queryFailed(err), nil
	}
	if row == nil {
		return mcp.NewToolResultError("item not found"), nil
	}
	return jsonResult(row)
}

func (t *Tools) handleMarkComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	item, res := itemIDArg(req)
	if res != nil {
		return res, nil
	}
	completed, err := t.stores.Items.Complete(ctx, user, item)
	if err != nil {
		return queryFailed(err), nil
	}
	if completed == nil {
		return mcp.NewToolResultError("item not found or already completed"), nil
	}
	return jsonResult(completed)
}

func (t *Tools) handleUpdatePriority(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	item, res := itemIDArg(req)
	if res != nil {
		return res, nil
	}
	updated, err := t.stores.Items.SetPriority(ctx, user, item, argString(req.GetArguments(), "priority"))
	if err != nil {
		if errors.Is(err, store.ErrInvalidPriority) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return queryFailed(err), nil
	}
	if updated == nil {
		return mcp.NewToolResultError("item not found"), nil
	}
	return jsonResult(updated)
}

func (t *Tools) handleAddNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	item, res := itemIDArg(req)
	if res != nil {
		return res, nil
	}
	updated, err := t.stores.Items.AddNote(ctx, user, item, argString(req.GetArguments(), "note"))
	if err != nil {
		if errors.Is(err, store.ErrEmptyNote) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return queryFailed(err), nil
	}
	if updated == nil {
		return mcp.NewToolResultError("item not found"), nil
	}
	return jsonResult(updated)
}

// ---------- Planning tools ----------

func (t *Tools) handleUserStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	row, err := t.stores.Planner.Stats(ctx, user)
	if err != nil {
		return queryFailed(err), nil
	}
	if row == nil {
		return mcp.NewToolResultError("user not found"), nil
	}
	return jsonResult(row)
}

func (t *Tools) handleCompletionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	days := argInt(req.GetArguments(), "days", t.cfg.Limits.HistoryDays)
	rows, err := t.stores.Planner.CompletionHistory(ctx, user, days)
	return listResult(rows, err)
}

func (t *Tools) handlePendingByPriority(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	counts, err := t.stores.Planner.PendingByPriority(ctx, user)
	if err != nil {
		return queryFailed(err), nil
	}
	return jsonResult(counts)
}

// ---------- Reassurance tools ----------

func (t *Tools) handleSpiralItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	rows, err := t.stores.Reassurance.Spirals(ctx, user)
	return listResult(rows, err)
}

func (t *Tools) handleRecentCompletions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, ctx, denied := t.authorize(ctx, req)
	if denied != nil {
		return denied, nil
	}
	limit := argInt(req.GetArguments(), "limit", t.cfg.Limits.RecentCompletions)
	rows, err := t.stores.Reassurance.RecentCompletions(ctx, user, limit)
	return listResult(rows, err)
}

// ---------- Result helpers ----------

func itemIDArg(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	item, err := uuid.Parse(argString(req.GetArguments(), "item_id"))
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("invalid item_id")
	}
	return item, nil
}

func listResult(rows []db.Row, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return queryFailed(err), nil
	}
	return jsonResult(map[string]any{"items": rows, "count": len(rows)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// queryFailed hides backend error detail from the model; the executor
// already logged it.
func queryFailed(error) *mcp.CallToolResult {
	return mcp.NewToolResultError("query failed")
}

// argString reads a string argument, "" when absent or not a string.
func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// argInt reads a numeric argument; JSON numbers arrive as float64.
func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
