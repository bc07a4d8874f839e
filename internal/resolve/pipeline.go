// Package resolve orchestrates a resolution run: identify the target
// request, materialize its master node, then repeatedly extract dynamic
// parts, bind caller inputs, and trace each remaining value to its producer
// until the work queue drains or the step budget runs out.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/usestring/replaygraph-mcp/internal/config"
	"github.com/usestring/replaygraph-mcp/internal/corpus"
	"github.com/usestring/replaygraph-mcp/internal/graph"
	"github.com/usestring/replaygraph-mcp/internal/oracle"
	"github.com/usestring/replaygraph-mcp/internal/provenance"
	"github.com/usestring/replaygraph-mcp/pkg/contenttype"
	"github.com/usestring/replaygraph-mcp/pkg/replay"
	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// ErrNoTargetFound means no candidate endpoint matched the goal, or the
// oracle's answer could not be resolved against the corpus. This is the one
// fatal outcome of a run: without a target there is no graph to build.
var ErrNoTargetFound = errors.New("resolve: no target endpoint found for goal")

// Step costs against the run budget.
const (
	setupSteps     = 2 // target identification + master materialization
	iterationSteps = 3 // extract + bind + search
)

// Result is the outcome of a run. The graph is always valid and inspectable,
// including after budget exhaustion, cancellation, and oracle failures.
type Result struct {
	Graph     *graph.Store
	MasterID  string
	TargetURL string
	Status    types.RunStatus
	Reason    string
	Cycles    []types.Edge
	StepsUsed int
}

// Pipeline runs resolutions over one corpus. Safe for concurrent Run calls:
// each run owns its graph, dedup maps, and work queue; the corpus and oracle
// are shared read-only.
type Pipeline struct {
	corpus *corpus.Index
	oracle oracle.Oracle
	search *provenance.Searcher
	cfg    *config.Config
}

// New creates a Pipeline.
func New(idx *corpus.Index, orc oracle.Oracle, cfg *config.Config) *Pipeline {
	return &Pipeline{
		corpus: idx,
		oracle: orc,
		search: provenance.New(idx, orc, cfg.MaxCandidates),
		cfg:    cfg,
	}
}

// runState is the mutable working state threaded through one run.
type runState struct {
	masterID string
	queue    []string // node ids awaiting expansion; top of the stack is next
	inputs   map[string]string
	steps    int
}

// Run resolves the dependency graph for the given goal. inputs are the
// caller-supplied named values (credentials, form fields) that should be
// recognized as givens rather than searched as dependencies.
func (p *Pipeline) Run(ctx context.Context, goal string, inputs map[string]string) (*Result, error) {
	g := graph.New()
	run := provenance.NewRun(g)
	state := &runState{inputs: inputs}

	targetURL, entry, err := p.identifyTarget(ctx, goal)
	if err != nil {
		return nil, err
	}
	slog.Info("target identified", "goal", goal, "url", targetURL)

	// MasterMaterialize.
	key := replay.String(entry.Request)
	state.masterID = g.AddNode(&types.Node{
		Kind:  types.KindMaster,
		Entry: entry,
	})
	run.RequestNodes[key] = state.masterID
	state.queue = append(state.queue, state.masterID)
	state.steps = setupSteps

	result := &Result{
		Graph:     g,
		MasterID:  state.masterID,
		TargetURL: targetURL,
		Status:    types.StatusComplete,
	}

	for len(state.queue) > 0 {
		if err := ctx.Err(); err != nil {
			result.Status = types.StatusCancelled
			result.Reason = err.Error()
			break
		}
		if state.steps+iterationSteps > p.cfg.StepBudget {
			slog.Warn("step budget exhausted", "steps", state.steps, "budget", p.cfg.StepBudget)
			result.Status = types.StatusBudget
			result.Reason = fmt.Sprintf("budget of %d steps exhausted", p.cfg.StepBudget)
			break
		}
		state.steps += iterationSteps

		// Depth-first: expand the most recently discovered node.
		currentID := state.queue[len(state.queue)-1]
		state.queue = state.queue[:len(state.queue)-1]

		if err := p.expand(ctx, currentID, state, run, result); err != nil {
			break
		}

		// Diagnostic only: a cycle may reflect a genuine mutual dependency
		// in the target application, so it is reported, never repaired.
		if cyc := g.DetectCycle(); cyc != nil {
			slog.Warn("dependency cycle detected", "edges", len(cyc))
		}
	}

	result.Cycles = g.DetectCycle()
	result.StepsUsed = state.steps
	slog.Info("run finished",
		"status", string(result.Status), "nodes", g.Len(), "steps", state.steps)
	return result, nil
}

// expand runs one loop iteration (extract, bind, search) for one node.
// Oracle failures mark the result aborted and return an error to stop the
// loop; the partial graph stays valid.
func (p *Pipeline) expand(ctx context.Context, currentID string, state *runState, run *provenance.Run, result *Result) error {
	node, err := run.Graph.Node(currentID)
	if err != nil {
		// Queue entries come from the graph itself, so this is a bug.
		result.Status = types.StatusOracleError
		result.Reason = err.Error()
		return err
	}

	parts, err := p.extractDynamicParts(ctx, node)
	if err != nil {
		slog.Error("dynamic-part extraction failed", "node", currentID, "error", err)
		result.Status = types.StatusOracleError
		result.Reason = err.Error()
		return err
	}

	parts, bound := p.bindKnownInputs(ctx, node, parts, state.inputs)

	if err := run.Graph.UpdateNode(currentID, graph.NodeUpdate{
		DynamicParts:   parts,
		InputVariables: bound,
	}); err != nil {
		result.Status = types.StatusOracleError
		result.Reason = err.Error()
		return err
	}

	// Values whose only producers are script assets or HTML documents are
	// dropped by the search; they must not linger in the node's part list.
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		res, err := p.search.Resolve(ctx, part, currentID, run)
		if err != nil {
			result.Status = types.StatusOracleError
			result.Reason = err.Error()
			return err
		}
		if res.Outcome != provenance.OutcomeNoise {
			kept = append(kept, part)
		}
		if res.Enqueued {
			state.queue = append(state.queue, res.NodeID)
		}
	}
	if len(kept) != len(parts) {
		if err := run.Graph.UpdateNode(currentID, graph.NodeUpdate{DynamicParts: kept}); err != nil {
			result.Status = types.StatusOracleError
			result.Reason = err.Error()
			return err
		}
	}
	return nil
}

// extractDynamicParts asks the oracle for the session/identity-specific
// substrings of the node's request. Script-asset requests trivially have
// none; the oracle call is skipped entirely.
func (p *Pipeline) extractDynamicParts(ctx context.Context, node *types.Node) ([]string, error) {
	if node.Entry == nil || node.Entry.Request == nil {
		return nil, nil
	}
	if contenttype.IsAssetURL(node.Entry.Request.URL) {
		return nil, nil
	}
	return p.oracle.IdentifyDynamicParts(ctx, replay.String(node.Entry.Request))
}

// bindKnownInputs removes caller-supplied input values from the dynamic-part
// list and returns them as bound variables instead. A cheap substring
// prefilter picks the plausible subset; the oracle confirms it, and on
// oracle failure the prefilter result stands.
func (p *Pipeline) bindKnownInputs(ctx context.Context, node *types.Node, parts []string, inputs map[string]string) ([]string, map[string]string) {
	if len(inputs) == 0 || len(parts) == 0 || node.Entry == nil {
		return parts, nil
	}

	form := replay.String(node.Entry.Request)
	present := make(map[string]string)
	for name, value := range inputs {
		if value != "" && strings.Contains(form, value) {
			present[name] = value
		}
	}
	if len(present) == 0 {
		return parts, nil
	}

	confirmed, err := p.oracle.IdentifyBoundInputs(ctx, form, present)
	if err != nil {
		slog.Warn("input binding oracle failed, using substring matches", "error", err)
		confirmed = present
	}

	// Never trust the oracle to invent bindings the prefilter did not see.
	bound := make(map[string]string)
	for name, value := range confirmed {
		if pv, ok := present[name]; ok && pv == value {
			bound[name] = value
		}
	}
	if len(bound) == 0 {
		return parts, nil
	}

	var remaining []string
	for _, part := range parts {
		isInput := false
		for _, value := range bound {
			if part == value || strings.Contains(value, part) {
				isInput = true
				break
			}
		}
		if !isInput {
			remaining = append(remaining, part)
		}
	}
	return remaining, bound
}

// identifyTarget resolves the goal to one corpus entry, evaluating candidate
// chunks in order and stopping at the first confident answer.
func (p *Pipeline) identifyTarget(ctx context.Context, goal string) (string, *types.CorpusEntry, error) {
	candidates := p.corpus.InterestingURLs()
	chunkSize := p.cfg.TargetChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultTargetChunkSizeValue
	}

	for start := 0; start < len(candidates); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		end := min(start+chunkSize, len(candidates))
		answer, err := p.oracle.IdentifyTarget(ctx, goal, candidates[start:end])
		if err != nil {
			slog.Warn("target identification chunk failed", "chunk", start/chunkSize, "error", err)
			continue
		}
		if answer == "" || answer == oracle.AnswerNone {
			continue
		}

		if entry := p.corpus.LookupByURL(answer); entry != nil {
			return answer, entry, nil
		}
		slog.Warn("oracle target not in corpus", "url", answer)
	}

	return "", nil, ErrNoTargetFound
}
