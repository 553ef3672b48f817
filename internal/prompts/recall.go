// Package prompts implements MCP prompt handlers for the learning store.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RecallPrompt handles the patternbank-recall MCP prompt.
// It instructs the AI to recall learned patterns before starting work.
type RecallPrompt struct{}

// NewRecallPrompt creates a RecallPrompt.
func NewRecallPrompt() *RecallPrompt {
	return &RecallPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RecallPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("patternbank-recall",
		mcp.WithPromptDescription(
			"Recall learned patterns relevant to a task before starting it. "+
				"Pulls what worked and what failed in similar situations into the conversation.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you are about to do"),
		),
		mcp.WithArgument("namespace",
			mcp.ArgumentDescription("Scope to recall from, e.g. 'project:backend'. Default: 'default'"),
		),
	)
}

// Handle processes the patternbank-recall prompt request.
func (p *RecallPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := ""
	namespace := "default"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["task"]; ok && t != "" {
			task = t
		}
		if ns, ok := args["namespace"]; ok && ns != "" {
			namespace = ns
		}
	}

	taskLine := "the task I'm about to describe"
	if task != "" {
		taskLine = fmt.Sprintf("this task: %s", task)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Recall patterns for namespace %q", namespace),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Before we start, recall what Patternbank has learned about %s.\n\n"+
						"Please:\n"+
						"1. Call `pattern_recall` with task='%s' and namespace='%s'\n"+
						"2. Summarize the high-confidence patterns and any recorded failures that apply\n"+
						"3. Apply those patterns while doing the task, and tell me if you deviate from one\n"+
						"4. When the task is done, call `pattern_record` with the outcome",
					taskLine, task, namespace,
				)),
			},
		},
	}, nil
}
