package patterntools

import (
	"context"
	"fmt"
	"strings"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/mark3labs/mcp-go/mcp"
)

// NamespaceCreateTool handles the namespace_create MCP tool.
type NamespaceCreateTool struct {
	store *learnstore.Store
}

// NewNamespaceCreateTool creates a NamespaceCreateTool with the given store.
func NewNamespaceCreateTool(store *learnstore.Store) *NamespaceCreateTool {
	return &NamespaceCreateTool{store: store}
}

// Definition returns the MCP tool definition for namespace_create.
func (t *NamespaceCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("namespace_create",
		mcp.WithDescription(
			"Register a namespace in the scoping hierarchy. Patterns recorded under a child namespace "+
				"are visible to recalls in that child, while recalls also inherit the parent's patterns. "+
				"Unregistered namespaces work too, as standalone scopes.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Namespace name, e.g. 'project:backend:auth'"),
		),
		mcp.WithString("parent",
			mcp.Description("Parent namespace (must already be registered; omit for a top-level scope)"),
		),
		mcp.WithString("description",
			mcp.Description("What this scope covers"),
		),
	)
}

// Handle processes the namespace_create tool call.
func (t *NamespaceCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	ns, err := t.store.CreateNamespace(name, req.GetString("parent", ""), req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create namespace: %v", err)), nil
	}

	if ns.ParentNamespace != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Namespace %q created under %q.", ns.Name, ns.ParentNamespace)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Namespace %q created.", ns.Name)), nil
}

// ─── NamespaceChainTool ─────────────────────────────────────────────────────

// NamespaceChainTool handles the namespace_chain MCP tool.
type NamespaceChainTool struct {
	store *learnstore.Store
}

// NewNamespaceChainTool creates a NamespaceChainTool.
func NewNamespaceChainTool(store *learnstore.Store) *NamespaceChainTool {
	return &NamespaceChainTool{store: store}
}

// Definition returns the MCP tool definition for namespace_chain.
func (t *NamespaceChainTool) Definition() mcp.Tool {
	return mcp.NewTool("namespace_chain",
		mcp.WithDescription(
			"Show the inheritance chain a namespace resolves to (most specific first, ending at root). "+
				"This is the exact scope set pattern_recall searches.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Namespace to resolve"),
		),
	)
}

// Handle processes the namespace_chain tool call.
func (t *NamespaceChainTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	chain, err := t.store.ResolveChain(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve namespace: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.Join(chain, " → ")), nil
}
