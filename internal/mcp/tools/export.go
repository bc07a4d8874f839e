package tools

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ExportGraphInput is the input for replaygraph_export_graph.
type ExportGraphInput struct {
	RunID  string `json:"run_id" jsonschema:"required,Run ID from replaygraph_resolve"`
	Format string `json:"format,omitempty" jsonschema:"Export format: dot or json (default: dot)"`
}

// ExportGraphOutput is the output for replaygraph_export_graph.
type ExportGraphOutput struct {
	RunID  string `json:"run_id"`
	Format string `json:"format"`
	Data   string `json:"data"`
	// ReplayOrder lists node ids suppliers-first: the order in which the
	// requests would have to be replayed.
	ReplayOrder []string `json:"replay_order,omitempty"`
}

// ToolExportGraph renders a stored run's graph as Graphviz DOT or JSON.
func ToolExportGraph(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportGraphInput) (*sdkmcp.CallToolResult, ExportGraphOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportGraphInput) (*sdkmcp.CallToolResult, ExportGraphOutput, error) {
		if input.RunID == "" {
			return nil, ExportGraphOutput{}, ErrInvalidInput("run_id is required")
		}

		result, _, ok := d.Run(input.RunID)
		if !ok {
			return nil, ExportGraphOutput{}, ErrNotFound("run", input.RunID)
		}

		format := input.Format
		if format == "" {
			format = "dot"
		}

		output := ExportGraphOutput{
			RunID:       input.RunID,
			Format:      format,
			ReplayOrder: result.Graph.TopoOrder(true),
		}

		switch format {
		case "dot":
			output.Data = result.Graph.ToDOT()
		case "json":
			data, err := json.MarshalIndent(result.Graph.ToExport(), "", "  ")
			if err != nil {
				return nil, ExportGraphOutput{}, fmt.Errorf("serializing graph: %w", err)
			}
			output.Data = string(data)
		default:
			return nil, ExportGraphOutput{}, ErrInvalidInput(fmt.Sprintf("unknown format: %s (want dot or json)", format))
		}

		return nil, output, nil
	}
}
