package patterntools

import (
	"context"
	"fmt"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecallTool handles the pattern_recall MCP tool.
type RecallTool struct {
	store *learnstore.Store
}

// NewRecallTool creates a RecallTool with the given store.
func NewRecallTool(store *learnstore.Store) *RecallTool {
	return &RecallTool{store: store}
}

// Definition returns the MCP tool definition for pattern_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_recall",
		mcp.WithDescription(
			"Recall learned patterns BEFORE starting a task. Call this at the beginning of every non-trivial task — "+
				"it returns what worked and what failed in similar situations, ready to inject into your working context.",
		),
		mcp.WithString("task",
			mcp.Description("Free text describing the task you are about to do (enables full-text matching)"),
		),
		mcp.WithString("namespace",
			mcp.Description("Scope to recall from, e.g. 'project:backend:auth'. Parent scopes are searched automatically. Default: 'default'"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Only return patterns at or above this confidence, 0.0–1.0 (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of patterns to return (default: 20)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Verbosity: summary, standard (default), or full"),
			mcp.Enum(learnstore.DetailLevelValues()...),
		),
	)
}

// Handle processes the pattern_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.store.QueryRelevant(learnstore.RecallOptions{
		Task:          req.GetString("task", ""),
		Namespace:     req.GetString("namespace", ""),
		MinConfidence: floatArg(req, "min_confidence", 0),
		Limit:         intArg(req, "limit", 0),
		DetailLevel:   learnstore.ParseDetailLevel(req.GetString("detail_level", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}
	return mcp.NewToolResultText(res.Context), nil
}
