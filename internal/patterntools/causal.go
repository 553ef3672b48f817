package patterntools

import (
	"context"
	"fmt"
	"strings"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// CausalLinkTool handles the causal_link MCP tool.
type CausalLinkTool struct {
	store *learnstore.Store
}

// NewCausalLinkTool creates a CausalLinkTool with the given store.
func NewCausalLinkTool(store *learnstore.Store) *CausalLinkTool {
	return &CausalLinkTool{store: store}
}

// Definition returns the MCP tool definition for causal_link.
func (t *CausalLinkTool) Definition() mcp.Tool {
	return mcp.NewTool("causal_link",
		mcp.WithDescription(
			"Record one observation of a cause-effect relationship. Repeated observations of the same "+
				"pair strengthen (or weaken) the link.",
		),
		mcp.WithString("cause",
			mcp.Required(),
			mcp.Description("What happened first (e.g. 'missing index')"),
		),
		mcp.WithString("effect",
			mcp.Required(),
			mcp.Description("What it led to (e.g. 'slow query')"),
		),
		mcp.WithString("link_type",
			mcp.Description("Relationship kind: causal (default), correlation, precondition"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Whether this observation confirmed the relationship (default: true)"),
		),
	)
}

// Handle processes the causal_link tool call.
func (t *CausalLinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cause := req.GetString("cause", "")
	effect := req.GetString("effect", "")
	if cause == "" || effect == "" {
		return mcp.NewToolResultError("'cause' and 'effect' are required"), nil
	}

	link, err := t.store.AddOrReinforceLink(cause, effect,
		req.GetString("link_type", ""), boolArg(req, "confirmed", true))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record link: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Link recorded: %q → %q (%s, confidence %.3f, evidence %d)",
		link.Cause, link.Effect, link.LinkType, link.Confidence, link.EvidenceCount,
	)), nil
}

// ─── CausalChainTool ────────────────────────────────────────────────────────

// CausalChainTool handles the causal_chain MCP tool.
type CausalChainTool struct {
	store *learnstore.Store
}

// NewCausalChainTool creates a CausalChainTool.
func NewCausalChainTool(store *learnstore.Store) *CausalChainTool {
	return &CausalChainTool{store: store}
}

// Definition returns the MCP tool definition for causal_chain.
func (t *CausalChainTool) Definition() mcp.Tool {
	return mcp.NewTool("causal_chain",
		mcp.WithDescription(
			"Trace the known causal chains leading to an observed effect. Use when debugging to see "+
				"what has historically caused this symptom, strongest explanation first.",
		),
		mcp.WithString("effect",
			mcp.Required(),
			mcp.Description("The observed effect to explain (e.g. 'request timeout')"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum chain length in edges, 1–5 (default: 5)"),
		),
	)
}

// Handle processes the causal_chain tool call.
func (t *CausalChainTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	effect := req.GetString("effect", "")
	if effect == "" {
		return mcp.NewToolResultError("'effect' is required"), nil
	}

	paths, err := t.store.Chain(effect, intArg(req, "max_depth", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chain query failed: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No known causes for %q.", effect)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d causal path(s) to %q:\n\n", len(paths), effect)
	for i, p := range paths {
		fmt.Fprintf(&b, "%d. %s (mean confidence %.3f)\n", i+1, strings.Join(p.Steps, " → "), p.MeanConfidence)
		for _, l := range p.Links {
			fmt.Fprintf(&b, "   %q → %q: confidence %.3f, evidence %d\n",
				l.Cause, l.Effect, l.Confidence, l.EvidenceCount)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
