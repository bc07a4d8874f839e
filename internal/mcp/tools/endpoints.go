package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListEndpointsInput is the input for replaygraph_list_endpoints.
type ListEndpointsInput struct {
	Contains string `json:"contains,omitempty" jsonschema:"Only endpoints containing this substring"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max endpoints to return (default: 100)"`
}

// ListEndpointsOutput is the output for replaygraph_list_endpoints.
type ListEndpointsOutput struct {
	Endpoints []string `json:"endpoints"`
	Total     int      `json:"total"`
	Hint      string   `json:"hint,omitempty"`
}

// ToolListEndpoints lists interesting endpoints in capture order. GraphQL
// operations and JSON-RPC methods appear as distinct url#operation entries.
func ToolListEndpoints(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListEndpointsInput) (*sdkmcp.CallToolResult, ListEndpointsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListEndpointsInput) (*sdkmcp.CallToolResult, ListEndpointsOutput, error) {
		idx, err := d.Corpus()
		if err != nil {
			return nil, ListEndpointsOutput{}, err
		}

		limit := input.Limit
		if limit <= 0 {
			limit = 100
		}

		all := idx.InterestingURLs()
		var matched []string
		for _, url := range all {
			if input.Contains != "" && !strings.Contains(url, input.Contains) {
				continue
			}
			matched = append(matched, url)
		}

		output := ListEndpointsOutput{Total: len(matched)}
		if len(matched) > limit {
			matched = matched[:limit]
			output.Hint = "Truncated; narrow with contains or raise limit."
		}
		output.Endpoints = matched
		return nil, output, nil
	}
}
