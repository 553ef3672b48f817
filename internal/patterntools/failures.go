package patterntools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// FailureHistoryTool handles the failure_history MCP tool.
type FailureHistoryTool struct {
	store *learnstore.Store
}

// NewFailureHistoryTool creates a FailureHistoryTool with the given store.
func NewFailureHistoryTool(store *learnstore.Store) *FailureHistoryTool {
	return &FailureHistoryTool{store: store}
}

// Definition returns the MCP tool definition for failure_history.
func (t *FailureHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("failure_history",
		mcp.WithDescription(
			"Inspect recorded failures. Query by error type to see how a class of error evolved, "+
				"or omit it to list unresolved failures needing attention.",
		),
		mcp.WithString("error_type",
			mcp.Description("Error classification to query (e.g. 'build_break'). Omit for unresolved failures."),
		),
		mcp.WithNumber("within_days",
			mcp.Description("Only failures within the last N days (default: all)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results when listing unresolved failures (default: 20)"),
		),
	)
}

// Handle processes the failure_history tool call.
func (t *FailureHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	errorType := req.GetString("error_type", "")

	var failures []learnstore.Failure
	var err error
	if errorType == "" {
		failures, err = t.store.UnresolvedFailures(intArg(req, "limit", 20))
	} else {
		window := time.Duration(intArg(req, "within_days", 0)) * 24 * time.Hour
		failures, err = t.store.FailuresByType(errorType, window)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failure query failed: %v", err)), nil
	}
	if len(failures) == 0 {
		return mcp.NewToolResultText("No matching failures."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d failure(s):\n\n", len(failures))
	for _, f := range failures {
		status := "open"
		if f.Resolved {
			status = fmt.Sprintf("resolved by pattern #%d", *f.ResolutionPatternID)
		}
		fmt.Fprintf(&b, "- [#%d] %s at %s (%s)\n", f.FailureID, f.ErrorType, f.OccurredAt, status)
		if f.ErrorMessage != "" {
			fmt.Fprintf(&b, "  %s\n", learnstore.Truncate(f.ErrorMessage, 200))
		}
		if f.Context != "" {
			fmt.Fprintf(&b, "  context: %s\n", learnstore.Truncate(f.Context, 150))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── FailureResolveTool ─────────────────────────────────────────────────────

// FailureResolveTool handles the failure_resolve MCP tool.
type FailureResolveTool struct {
	store *learnstore.Store
}

// NewFailureResolveTool creates a FailureResolveTool.
func NewFailureResolveTool(store *learnstore.Store) *FailureResolveTool {
	return &FailureResolveTool{store: store}
}

// Definition returns the MCP tool definition for failure_resolve.
func (t *FailureResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("failure_resolve",
		mcp.WithDescription(
			"Mark a recorded failure as resolved by a specific pattern. The failure stays in history "+
				"but is linked to what fixed it.",
		),
		mcp.WithNumber("failure_id",
			mcp.Required(),
			mcp.Description("The failure to resolve"),
		),
		mcp.WithNumber("pattern_id",
			mcp.Required(),
			mcp.Description("The pattern that fixed it"),
		),
	)
}

// Handle processes the failure_resolve tool call.
func (t *FailureResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	failureID := intArg(req, "failure_id", 0)
	patternID := intArg(req, "pattern_id", 0)
	if failureID <= 0 || patternID <= 0 {
		return mcp.NewToolResultError("'failure_id' and 'pattern_id' are required"), nil
	}

	if err := t.store.MarkResolved(int64(failureID), int64(patternID)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve failure: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Failure #%d resolved by pattern #%d.", failureID, patternID)), nil
}
