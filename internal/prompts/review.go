package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the patternbank-review MCP prompt.
// It walks the AI through a periodic review of the learning store.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("patternbank-review",
		mcp.WithPromptDescription(
			"Review the health of the learning store: unresolved failures, low-confidence patterns, "+
				"and whether consolidation is due.",
		),
		mcp.WithArgument("namespace",
			mcp.ArgumentDescription("Scope to review (default: all namespaces)"),
		),
	)
}

// Handle processes the patternbank-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	namespace := ""
	if args := req.Params.Arguments; args != nil {
		if ns, ok := args["namespace"]; ok {
			namespace = ns
		}
	}

	scopeLine := "across all namespaces"
	queryStep := "2. Call `pattern_query` with min_confidence=0 and detail_level='summary' to scan what is stored\n"
	if namespace != "" {
		scopeLine = fmt.Sprintf("for namespace %q", namespace)
		queryStep = fmt.Sprintf("2. Call `pattern_query` with namespace='%s' and detail_level='summary' to scan what is stored\n", namespace)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review the learning store %s", scopeLine),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please review the state of the Patternbank learning store " + scopeLine + ".\n\n" +
						"1. Call `pattern_stats` for the overall picture\n" +
						queryStep +
						"3. Call `failure_history` (no arguments) to list unresolved failures, and for each one\n" +
						"   tell me whether a known pattern could resolve it (use `failure_resolve` if so)\n" +
						"4. Flag duplicate-looking or low-confidence patterns; if the store looks noisy,\n" +
						"   suggest running `pattern_consolidate`\n" +
						"5. Summarize: what the store knows well, where it keeps failing, and what to clean up",
				),
			},
		},
	}, nil
}
