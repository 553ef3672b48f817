// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the learning store and injects it
// into the tools/prompts/resources that depend on it. No business logic
// lives here — only wiring.
package server

import (
	"fmt"
	"time"

	"github.com/authenticwalk/patternbank/internal/learnstore"
	"github.com/authenticwalk/patternbank/internal/patterntools"
	"github.com/authenticwalk/patternbank/internal/prompts"
	"github.com/authenticwalk/patternbank/internal/resources"
	"github.com/kelseyhightower/envconfig"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// EnvConfig holds server overrides loaded from PATTERNBANK_* environment
// variables.
type EnvConfig struct {
	DataDir          string `envconfig:"DATA_DIR"`
	PruneDays        int    `envconfig:"PRUNE_DAYS" default:"90"`
	ArchiveDays      int    `envconfig:"ARCHIVE_DAYS" default:"180"`
	MaxRecallResults int    `envconfig:"MAX_RECALL_RESULTS" default:"20"`
}

// New creates and configures the MCP server with all tools, prompts, and
// resources registered. This is the single place where all dependencies are
// resolved.
//
// Unlike auxiliary subsystems, the store is the product here: if it fails to
// open, the server has nothing to serve and startup fails.
//
// The returned cleanup function closes the store's database connection and
// must be called on shutdown (typically via defer). It is always non-nil.
func New() (*server.MCPServer, func(), error) {
	var env EnvConfig
	if err := envconfig.Process("patternbank", &env); err != nil {
		return nil, noop, fmt.Errorf("loading environment config: %w", err)
	}

	cfg := learnstore.DefaultConfig()
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.MaxRecallResults > 0 {
		cfg.MaxRecallResults = env.MaxRecallResults
	}

	store, err := learnstore.New(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("opening learning store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	consolidateCfg := learnstore.DefaultConsolidateConfig()
	if env.PruneDays > 0 {
		consolidateCfg.PruneWindow = time.Duration(env.PruneDays) * 24 * time.Hour
	}
	if env.ArchiveDays > 0 {
		consolidateCfg.ArchiveWindow = time.Duration(env.ArchiveDays) * 24 * time.Hour
	}

	s := server.NewMCPServer(
		"patternbank",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Lifecycle tools (the pre/post-task pair) ---

	recallTool := patterntools.NewRecallTool(store)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	recordTool := patterntools.NewRecordTool(store)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	// --- Query & retrieval ---

	queryTool := patterntools.NewQueryTool(store)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	searchTool := patterntools.NewSearchTool(store)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	// --- Failure tracking ---

	failureHistory := patterntools.NewFailureHistoryTool(store)
	s.AddTool(failureHistory.Definition(), failureHistory.Handle)

	failureResolve := patterntools.NewFailureResolveTool(store)
	s.AddTool(failureResolve.Definition(), failureResolve.Handle)

	// --- Causal graph ---

	causalLink := patterntools.NewCausalLinkTool(store)
	s.AddTool(causalLink.Definition(), causalLink.Handle)

	causalChain := patterntools.NewCausalChainTool(store)
	s.AddTool(causalChain.Definition(), causalChain.Handle)

	// --- Namespaces ---

	nsCreate := patterntools.NewNamespaceCreateTool(store)
	s.AddTool(nsCreate.Definition(), nsCreate.Handle)

	nsChain := patterntools.NewNamespaceChainTool(store)
	s.AddTool(nsChain.Definition(), nsChain.Handle)

	// --- Maintenance & statistics ---

	consolidateTool := patterntools.NewConsolidateTool(store, consolidateCfg)
	s.AddTool(consolidateTool.Definition(), consolidateTool.Handle)

	statsTool := patterntools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Register prompts ---

	recallPrompt := prompts.NewRecallPrompt()
	s.AddPrompt(recallPrompt.Definition(), recallPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when startup fails before the
// store is open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how
// to use Patternbank effectively.
func serverInstructions() string {
	return `You have access to Patternbank, a self-learning pattern store MCP server.

Patternbank remembers which approaches worked and which failed across your
coding sessions. Every task you do should pass through its two lifecycle
tools: recall before, record after. The more honestly you record, the better
the recalls get.

## THE LIFECYCLE (do this for every non-trivial task)

1. BEFORE starting: call pattern_recall with a short task description and the
   namespace you are working in. Inject the returned context block into your
   working context and honor high-confidence patterns unless the user says
   otherwise.
2. DO the task.
3. AFTER finishing: call pattern_record with:
   - pattern: the approach you applied, phrased as reusable advice
     ("wrap migrations in a transaction", not "fixed the migration bug")
   - outcome: success, failure, or pending (if the result is not yet known)
   - context: one line describing the situation
   - on failure: error_type (a stable classification) and error_message
   - causes: any cause-effect relationships you observed, as JSON

NEVER skip the record step after a failure — failures are the most valuable
training signal the store gets.

## CONFIDENCE

Every pattern carries a confidence score in [0, 1], starting at 0.5.
Successes raise it gradually; a failure discounts it meaningfully. Read the
scores as: below 0.3 = probably bad advice, around 0.5 = unproven,
above 0.7 = repeatedly confirmed. Use min_confidence on recall/query to
filter noise.

## NAMESPACES

Patterns are scoped by namespace, with explicit inheritance:
- Register scopes with namespace_create (e.g. "project", then
  "project:backend" under it).
- Recalls in a child namespace automatically include parent patterns;
  recording always targets exactly the namespace you name.
- Unregistered namespaces work as standalone scopes — "default" needs no
  setup.
- Use namespace_chain to see exactly which scopes a recall will search.

Convention: use "project:<area>[:<component>]" for project knowledge and
keep cross-project advice in a top-level namespace.

## FAILURE TRACKING

Failures recorded via pattern_record are kept permanently. Use:
- failure_history with an error_type to see how a class of error evolved,
  or without arguments to list unresolved failures.
- failure_resolve to link a failure to the pattern that fixed it. A success
  recorded with the same context auto-resolves matching open failures.

## CAUSAL GRAPH

When you observe that one thing led to another, record it:
- causal_link(cause, effect) — repeated observations strengthen the link;
  pass confirmed=false when the relationship did NOT hold.
- causal_chain(effect) — when debugging, ask what has historically caused
  this symptom. Paths come back strongest explanation first.

## MAINTENANCE

Suggest pattern_consolidate when the store grows noisy (duplicates in
pattern_query output, stale entries in recalls). It merges duplicates,
prunes low-confidence unused patterns, and archives stale ones. It is
idempotent and safe to run anytime.

Use pattern_stats (or the patternbank://stats resource) for a quick health
check of the store.`
}
