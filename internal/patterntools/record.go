package patterntools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecordTool handles the pattern_record MCP tool.
type RecordTool struct {
	store *learnstore.Store
}

// NewRecordTool creates a RecordTool with the given store.
func NewRecordTool(store *learnstore.Store) *RecordTool {
	return &RecordTool{store: store}
}

// Definition returns the MCP tool definition for pattern_record.
func (t *RecordTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_record",
		mcp.WithDescription(
			"Record the outcome of a task AFTER finishing it. Call this PROACTIVELY — every recorded outcome "+
				"adjusts the pattern's confidence, logs failures for later analysis, and reinforces observed "+
				"cause-effect relationships.",
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("The approach or behavior that was applied (e.g. 'run migrations inside a transaction')"),
		),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("What happened: success, failure, or pending"),
			mcp.Enum("success", "failure", "pending"),
		),
		mcp.WithString("namespace",
			mcp.Description("Scope to record under (default: 'default')"),
		),
		mcp.WithString("context",
			mcp.Description("Short description of the situation the pattern was applied in"),
		),
		mcp.WithString("error_type",
			mcp.Description("Failure outcomes: error classification (e.g. 'build_break', 'timeout')"),
		),
		mcp.WithString("error_message",
			mcp.Description("Failure outcomes: the error text"),
		),
		mcp.WithString("causes",
			mcp.Description(`Observed cause-effect pairs as a JSON array, e.g. [{"cause":"missing index","effect":"slow query"}]`),
		),
		mcp.WithString("task_id",
			mcp.Description("Correlation id from the matching pattern_recall call (generated when omitted)"),
		),
	)
}

// Handle processes the pattern_record tool call.
func (t *RecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := req.GetString("pattern", "")
	if pattern == "" {
		return mcp.NewToolResultError("'pattern' is required"), nil
	}
	outcome, err := learnstore.ParseOutcome(req.GetString("outcome", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid outcome: %v", err)), nil
	}

	var causes []learnstore.CauseEffect
	if raw := strings.TrimSpace(req.GetString("causes", "")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &causes); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid 'causes' JSON: %v", err)), nil
		}
	}

	res, err := t.store.RecordOutcome(learnstore.OutcomeParams{
		Pattern:      pattern,
		Namespace:    req.GetString("namespace", ""),
		Context:      req.GetString("context", ""),
		Outcome:      outcome,
		ErrorType:    req.GetString("error_type", ""),
		ErrorMessage: req.GetString("error_message", ""),
		Causes:       causes,
		TaskID:       req.GetString("task_id", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record outcome: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recorded %s for %q (confidence %.3f, seen %d×)\n",
		outcome, learnstore.Truncate(res.Pattern.Pattern, 80), res.Pattern.Confidence, res.Pattern.OccurrenceCount)
	if res.Failure != nil {
		fmt.Fprintf(&b, "Failure logged: #%d (%s)\n", res.Failure.FailureID, res.Failure.ErrorType)
	}
	if res.FailuresResolved > 0 {
		fmt.Fprintf(&b, "Resolved %d prior failure(s) in this context\n", res.FailuresResolved)
	}
	if len(res.Links) > 0 {
		fmt.Fprintf(&b, "Reinforced %d causal link(s)\n", len(res.Links))
	}
	fmt.Fprintf(&b, "Task: %s", res.TaskID)

	return mcp.NewToolResultText(b.String()), nil
}
