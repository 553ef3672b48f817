// detail_level.go provides shared constants and parsing for the detail_level
// parameter used across recall and query tools.
//
// Three verbosity levels enable progressive disclosure:
//   - summary: minimal tokens — pattern text and confidence only
//   - standard: default behavior — truncated context snippets
//   - full: complete records including outcome and usage timestamps
package learnstore

import "fmt"

// DetailLevel controls response verbosity.
type DetailLevel string

const (
	DetailSummary  DetailLevel = "summary"
	DetailStandard DetailLevel = "standard"
	DetailFull     DetailLevel = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
// Use this to avoid duplicating the list across tool definitions.
func DetailLevelValues() []string {
	return []string{string(DetailSummary), string(DetailStandard), string(DetailFull)}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) DetailLevel {
	switch DetailLevel(s) {
	case DetailSummary, DetailFull:
		return DetailLevel(s)
	default:
		return DetailStandard
	}
}

// SummaryFooter is appended to summary-mode responses to guide the AI
// toward progressive disclosure — fetch more detail only when needed.
func SummaryFooter(shown int) string {
	return fmt.Sprintf("---\n💡 %d patterns shown. Use detail_level: standard or full for more detail.", shown)
}

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit (showing >= total) or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\n📊 Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\n📊 Showing %d of %d.", showing, total)
}
