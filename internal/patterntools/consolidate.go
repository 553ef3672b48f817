package patterntools

import (
	"context"
	"fmt"
	"time"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConsolidateTool handles the pattern_consolidate MCP tool.
type ConsolidateTool struct {
	store *learnstore.Store
	cfg   learnstore.ConsolidateConfig
}

// NewConsolidateTool creates a ConsolidateTool with the given store and
// default retention configuration.
func NewConsolidateTool(store *learnstore.Store, cfg learnstore.ConsolidateConfig) *ConsolidateTool {
	return &ConsolidateTool{store: store, cfg: cfg}
}

// Definition returns the MCP tool definition for pattern_consolidate.
func (t *ConsolidateTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_consolidate",
		mcp.WithDescription(
			"Run store maintenance: merge duplicate patterns, prune low-confidence unused ones, drop weak "+
				"causal links, and archive stale patterns. Safe to call repeatedly — a run over unchanged "+
				"data is a no-op. Only one run executes at a time.",
		),
		mcp.WithNumber("prune_days",
			mcp.Description("Prune window in days: low-confidence patterns unused this long are deleted (default: 90)"),
		),
		mcp.WithNumber("archive_days",
			mcp.Description("Archive window in days: patterns unused this long are archived (default: 180)"),
		),
	)
}

// Handle processes the pattern_consolidate tool call.
func (t *ConsolidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := t.cfg
	if d := intArg(req, "prune_days", 0); d > 0 {
		cfg.PruneWindow = time.Duration(d) * 24 * time.Hour
	}
	if d := intArg(req, "archive_days", 0); d > 0 {
		cfg.ArchiveWindow = time.Duration(d) * 24 * time.Hour
	}

	report, err := learnstore.NewConsolidator(t.store, cfg).Run()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("consolidation failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Consolidation %s complete:\n- merged: %d\n- pruned: %d\n- causal links pruned: %d\n- archived: %d",
		report.RunID, report.Merged, report.Pruned, report.CausalPruned, report.Archived,
	)), nil
}
