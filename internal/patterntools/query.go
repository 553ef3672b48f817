package patterntools

import (
	"context"
	"fmt"
	"strings"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// QueryTool handles the pattern_query MCP tool.
type QueryTool struct {
	store *learnstore.Store
}

// NewQueryTool creates a QueryTool with the given store.
func NewQueryTool(store *learnstore.Store) *QueryTool {
	return &QueryTool{store: store}
}

// Definition returns the MCP tool definition for pattern_query.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_query",
		mcp.WithDescription(
			"List learned patterns ranked by confidence. Use for browsing what the store knows; "+
				"use pattern_recall for task-scoped retrieval and pattern_search for free-text search.",
		),
		mcp.WithString("namespace",
			mcp.Description("Scope to query; parent scopes are included automatically (default: all namespaces)"),
		),
		mcp.WithString("context",
			mcp.Description("Substring filter on the stored context"),
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

// Handle processes the pattern_query tool call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := learnstore.QueryOptions{
		Context:       req.GetString("context", ""),
		MinConfidence: floatArg(req, "min_confidence", 0),
		Limit:         intArg(req, "limit", 0),
	}
	if ns := req.GetString("namespace", ""); ns != "" {
		chain, err := t.store.ResolveChain(ns)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("namespace resolution failed: %v", err)), nil
		}
		opts.Namespaces = chain
	}

	patterns, err := t.store.QueryPatterns(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	level := learnstore.ParseDetailLevel(req.GetString("detail_level", ""))
	return mcp.NewToolResultText(formatPatternList(patterns, level)), nil
}

// ─── SearchTool ─────────────────────────────────────────────────────────────

// SearchTool handles the pattern_search MCP tool.
type SearchTool struct {
	store *learnstore.Store
}

// NewSearchTool creates a SearchTool with the given store.
func NewSearchTool(store *learnstore.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for pattern_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_search",
		mcp.WithDescription(
			"Full-text search across learned patterns and their contexts. Returns ranked matches.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms (matched against pattern text and context)"),
		),
		mcp.WithString("namespace",
			mcp.Description("Scope to search; parent scopes are included automatically"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Only return patterns at or above this confidence (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
	)
}

// Handle processes the pattern_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	opts := learnstore.QueryOptions{
		MinConfidence: floatArg(req, "min_confidence", 0),
		Limit:         intArg(req, "limit", 0),
	}
	if ns := req.GetString("namespace", ""); ns != "" {
		chain, err := t.store.ResolveChain(ns)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("namespace resolution failed: %v", err)), nil
		}
		opts.Namespaces = chain
	}

	results, err := t.store.SearchPatterns(query, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No patterns matching %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) for %q:\n\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(&b, "- [#%d] %s (confidence %.2f, seen %d×, %s)\n",
			r.ID, learnstore.Truncate(r.Pattern.Pattern, 120), r.Confidence, r.OccurrenceCount, r.Namespace)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatPatternList(patterns []learnstore.Pattern, level learnstore.DetailLevel) string {
	if len(patterns) == 0 {
		return "No patterns found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d pattern(s):\n\n", len(patterns))
	for _, p := range patterns {
		fmt.Fprintf(&b, "- [#%d] %s (confidence %.2f, seen %d×, %s)\n",
			p.ID, learnstore.Truncate(p.Pattern, 120), p.Confidence, p.OccurrenceCount, p.Namespace)
		if level != learnstore.DetailSummary && p.Context != "" {
			fmt.Fprintf(&b, "  context: %s\n", learnstore.Truncate(p.Context, 200))
		}
		if level == learnstore.DetailFull {
			fmt.Fprintf(&b, "  outcome: %s, created %s, last used %s\n", p.Outcome, p.CreatedAt, p.LastUsed)
		}
	}
	if level == learnstore.DetailSummary {
		b.WriteString("\n")
		b.WriteString(learnstore.SummaryFooter(len(patterns)))
	}
	return b.String()
}
