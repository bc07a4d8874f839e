package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: replaygraph_load_har
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "replaygraph_load_har",
		Description: "Load and index a HAR capture file. Replaces any previously loaded capture. Returns entry, interesting-endpoint, and cookie counts. All other tools require a loaded capture.",
	}, ToolLoadHAR(d))

	// Tool 2: replaygraph_list_endpoints
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "replaygraph_list_endpoints",
		Description: "List interesting endpoints from the loaded capture in capture order (static assets and noise domains excluded). GraphQL operations and JSON-RPC methods are listed as separate url#operation entries. Use contains to filter.",
	}, ToolListEndpoints(d))

	// Tool 3: replaygraph_resolve
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "replaygraph_resolve",
		Description: "Resolve the dependency graph for a goal: identify the target request, find its dynamic values (tokens, session ids), and trace each one back to the response or cookie that produced it. Pass known values (credentials, form fields) via inputs so they are bound instead of traced. Returns a run_id plus status and graph summary; the graph is valid even when the run was aborted by budget or cancellation.",
	}, ToolResolve(d))

	// Tool 4: replaygraph_get_run
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "replaygraph_get_run",
		Description: "Get the full dependency graph of a completed run: nodes (master, request, cookie, unresolved) with their dynamic parts, extracted values, bound inputs, and JSON source paths, plus edges and any detected cycles. Requires run_id from replaygraph_resolve.",
	}, ToolGetRun(d))

	// Tool 5: replaygraph_export_graph
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "replaygraph_export_graph",
		Description: "Export a run's dependency graph as Graphviz DOT or JSON, with a suppliers-first replay order. Requires run_id from replaygraph_resolve.",
	}, ToolExportGraph(d))
}
