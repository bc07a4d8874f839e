package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/replaygraph-mcp/pkg/types"
)

// ResolveInput is the input for replaygraph_resolve.
type ResolveInput struct {
	Goal   string            `json:"goal" jsonschema:"required,Natural-language description of the target request"`
	Inputs map[string]string `json:"inputs,omitempty" jsonschema:"Known input values by name (credentials, form fields) to bind instead of trace"`
}

// ResolveOutput is the output for replaygraph_resolve.
type ResolveOutput struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	TargetURL  string `json:"target_url"`
	MasterID   string `json:"master_id"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Unresolved int    `json:"unresolved"`
	Cycles     int    `json:"cycles"`
	StepsUsed  int    `json:"steps_used"`
	Hint       string `json:"hint,omitempty"`
}

// GetRunInput is the input for replaygraph_get_run.
type GetRunInput struct {
	RunID string `json:"run_id" jsonschema:"required,Run ID from replaygraph_resolve"`
}

// GetRunOutput is the output for replaygraph_get_run.
type GetRunOutput struct {
	RunID     string     `json:"run_id"`
	Goal      string     `json:"goal"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	TargetURL string     `json:"target_url"`
	MasterID  string     `json:"master_id"`
	StepsUsed int        `json:"steps_used"`
	Nodes     []NodeView `json:"nodes"`
	Edges     []EdgeView `json:"edges"`
	Cycles    []EdgeView `json:"cycles,omitempty"`
}

// ToolResolve runs the resolution pipeline for a goal and stores the result.
func ToolResolve(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResolveInput) (*sdkmcp.CallToolResult, ResolveOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResolveInput) (*sdkmcp.CallToolResult, ResolveOutput, error) {
		if input.Goal == "" {
			return nil, ResolveOutput{}, ErrInvalidInput("goal is required")
		}

		pipeline, err := d.Pipeline()
		if err != nil {
			return nil, ResolveOutput{}, err
		}

		result, err := pipeline.Run(ctx, input.Goal, input.Inputs)
		if err != nil {
			return nil, ResolveOutput{}, WrapResolveError(err)
		}

		runID := d.StoreRun(input.Goal, result)

		output := ResolveOutput{
			RunID:      runID,
			Status:     string(result.Status),
			Reason:     result.Reason,
			TargetURL:  result.TargetURL,
			MasterID:   result.MasterID,
			Nodes:      result.Graph.Len(),
			Edges:      len(result.Graph.Edges()),
			Unresolved: countKind(result.Graph, types.KindUnresolved),
			Cycles:     len(result.Cycles),
			StepsUsed:  result.StepsUsed,
		}

		switch {
		case output.Cycles > 0:
			output.Hint = "Dependency cycle detected; inspect it with replaygraph_get_run before replaying."
		case result.Status == types.StatusBudget:
			output.Hint = "Partial graph: the step budget ran out. Raise STEP_BUDGET or narrow the goal."
		case output.Unresolved > 0:
			output.Hint = "Some values have no producer in the capture; they may need to be supplied as inputs."
		default:
			output.Hint = "Call replaygraph_get_run for the full graph or replaygraph_export_graph for DOT output."
		}
		return nil, output, nil
	}
}

// ToolGetRun returns the full graph of a stored run.
func ToolGetRun(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRunInput) (*sdkmcp.CallToolResult, GetRunOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRunInput) (*sdkmcp.CallToolResult, GetRunOutput, error) {
		if input.RunID == "" {
			return nil, GetRunOutput{}, ErrInvalidInput("run_id is required")
		}

		result, goal, ok := d.Run(input.RunID)
		if !ok {
			return nil, GetRunOutput{}, ErrNotFound("run", input.RunID)
		}

		nodes, edges := GraphView(result.Graph)
		output := GetRunOutput{
			RunID:     input.RunID,
			Goal:      goal,
			Status:    string(result.Status),
			Reason:    result.Reason,
			TargetURL: result.TargetURL,
			MasterID:  result.MasterID,
			StepsUsed: result.StepsUsed,
			Nodes:     nodes,
			Edges:     edges,
		}
		for _, edge := range result.Cycles {
			output.Cycles = append(output.Cycles, EdgeView{From: edge.From, To: edge.To})
		}
		return nil, output, nil
	}
}
