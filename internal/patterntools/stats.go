package patterntools

import (
	"context"
	"fmt"
	"strings"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the pattern_stats MCP tool.
type StatsTool struct {
	store *learnstore.Store
}

// NewStatsTool creates a StatsTool with the given store.
func NewStatsTool(store *learnstore.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for pattern_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_stats",
		mcp.WithDescription(
			"Show aggregate statistics for the learning store: pattern counts, failure counts, causal links, "+
				"namespaces, and average confidence.",
		),
	)
}

// Handle processes the pattern_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("Learning store statistics:\n\n")
	fmt.Fprintf(&b, "- Patterns: %d (avg confidence %.3f, %d archived)\n",
		stats.TotalPatterns, stats.AvgConfidence, stats.ArchivedPatterns)
	fmt.Fprintf(&b, "- Failures: %d (%d unresolved)\n", stats.TotalFailures, stats.UnresolvedFailures)
	fmt.Fprintf(&b, "- Causal links: %d\n", stats.TotalCausalLinks)
	fmt.Fprintf(&b, "- Registered namespaces: %d\n", stats.TotalNamespaces)
	if len(stats.Namespaces) > 0 {
		fmt.Fprintf(&b, "- Active namespaces: %s\n", strings.Join(stats.Namespaces, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}
